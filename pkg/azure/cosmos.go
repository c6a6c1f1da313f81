package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cosmos/armcosmos/v2"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
)

type cosmosClient struct {
	client *armcosmos.DatabaseAccountsClient
}

func newCosmosClient(cred *azidentity.DefaultAzureCredential, subscriptionID string) (*cosmosClient, error) {
	client, err := armcosmos.NewDatabaseAccountsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	return &cosmosClient{client: client}, nil
}

func (c *cosmosClient) ListAccounts(ctx context.Context) ([]sweep.CosmosAccount, error) {
	var accounts []sweep.CosmosAccount

	pager := c.client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list cosmos accounts: %w", err)
		}
		for _, acct := range page.Value {
			if acct.Name == nil || acct.ID == nil {
				continue
			}
			accounts = append(accounts, sweep.CosmosAccount{
				Name:          *acct.Name,
				ResourceGroup: helpers.ExtractResourceGroup(*acct.ID),
			})
		}
	}
	return accounts, nil
}

func (c *cosmosClient) ListKeys(ctx context.Context, acct sweep.CosmosAccount) ([]sweep.NamedValue, error) {
	resp, err := c.client.ListKeys(ctx, acct.ResourceGroup, acct.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys for cosmos account %s: %w", acct.Name, err)
	}

	var keys []sweep.NamedValue
	add := func(name string, value *string) {
		if value != nil {
			keys = append(keys, sweep.NamedValue{Name: name, Value: *value})
		}
	}
	add("PrimaryMasterKey", resp.PrimaryMasterKey)
	add("SecondaryMasterKey", resp.SecondaryMasterKey)
	add("PrimaryReadonlyMasterKey", resp.PrimaryReadonlyMasterKey)
	add("SecondaryReadonlyMasterKey", resp.SecondaryReadonlyMasterKey)
	return keys, nil
}
