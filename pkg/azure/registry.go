package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
)

type registryClient struct {
	client *armcontainerregistry.RegistriesClient
}

func newRegistryClient(cred *azidentity.DefaultAzureCredential, subscriptionID string) (*registryClient, error) {
	client, err := armcontainerregistry.NewRegistriesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	return &registryClient{client: client}, nil
}

func (c *registryClient) ListRegistries(ctx context.Context) ([]sweep.Registry, error) {
	var registries []sweep.Registry

	pager := c.client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list container registries: %w", err)
		}
		for _, reg := range page.Value {
			if reg.Name == nil || reg.ID == nil {
				continue
			}
			r := sweep.Registry{
				Name:          *reg.Name,
				ResourceGroup: helpers.ExtractResourceGroup(*reg.ID),
			}
			if reg.Properties != nil && reg.Properties.AdminUserEnabled != nil {
				r.AdminEnabled = *reg.Properties.AdminUserEnabled
			}
			registries = append(registries, r)
		}
	}
	return registries, nil
}

func (c *registryClient) ListCredentials(ctx context.Context, reg sweep.Registry) (sweep.RegistryCredentials, error) {
	resp, err := c.client.ListCredentials(ctx, reg.ResourceGroup, reg.Name, nil)
	if err != nil {
		return sweep.RegistryCredentials{}, fmt.Errorf("failed to list credentials for registry %s: %w", reg.Name, err)
	}

	creds := sweep.RegistryCredentials{}
	if resp.Username != nil {
		creds.Username = *resp.Username
	}
	for _, pw := range resp.Passwords {
		if pw == nil || pw.Value == nil {
			continue
		}
		name := "password"
		if pw.Name != nil {
			name = string(*pw.Name)
		}
		creds.Passwords = append(creds.Passwords, sweep.NamedValue{Name: name, Value: *pw.Value})
	}
	return creds, nil
}
