package azure

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appservice/armappservice"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
)

type webAppClient struct {
	client *armappservice.WebAppsClient
}

func newWebAppClient(cred *azidentity.DefaultAzureCredential, subscriptionID string) (*webAppClient, error) {
	client, err := armappservice.NewWebAppsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	return &webAppClient{client: client}, nil
}

func (c *webAppClient) ListWebApps(ctx context.Context) ([]sweep.WebApp, error) {
	var apps []sweep.WebApp

	pager := c.client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list web apps: %w", err)
		}
		for _, site := range page.Value {
			if site.Name == nil || site.ID == nil {
				continue
			}
			apps = append(apps, sweep.WebApp{
				Name:          *site.Name,
				ResourceGroup: helpers.ExtractResourceGroup(*site.ID),
			})
		}
	}
	return apps, nil
}

func (c *webAppClient) PublishingProfileXML(ctx context.Context, app sweep.WebApp) (string, error) {
	resp, err := c.client.ListPublishingProfileXMLWithSecrets(ctx, app.ResourceGroup, app.Name, armappservice.CsmPublishingProfileOptions{
		Format: to.Ptr(armappservice.PublishingProfileFormatWebDeploy),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get publishing profile for %s: %w", app.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read publishing profile for %s: %w", app.Name, err)
	}
	return string(body), nil
}

func (c *webAppClient) ListConnectionStrings(ctx context.Context, app sweep.WebApp) ([]sweep.ConnectionString, error) {
	resp, err := c.client.ListConnectionStrings(ctx, app.ResourceGroup, app.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list connection strings for %s: %w", app.Name, err)
	}

	var out []sweep.ConnectionString
	for name, pair := range resp.Properties {
		if pair == nil {
			continue
		}
		cs := sweep.ConnectionString{Name: name}
		if pair.Value != nil {
			cs.Value = *pair.Value
		}
		if pair.Type != nil {
			cs.Type = string(*pair.Type)
		}
		out = append(out, cs)
	}
	return out, nil
}
