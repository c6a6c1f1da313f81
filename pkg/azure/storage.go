package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
)

type storageClient struct {
	client *armstorage.AccountsClient
}

func newStorageClient(cred *azidentity.DefaultAzureCredential, subscriptionID string) (*storageClient, error) {
	client, err := armstorage.NewAccountsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	return &storageClient{client: client}, nil
}

func (c *storageClient) ListAccounts(ctx context.Context) ([]sweep.StorageAccount, error) {
	var accounts []sweep.StorageAccount

	pager := c.client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list storage accounts: %w", err)
		}
		for _, acct := range page.Value {
			if acct.Name == nil || acct.ID == nil {
				continue
			}
			accounts = append(accounts, sweep.StorageAccount{
				Name:          *acct.Name,
				ResourceGroup: helpers.ExtractResourceGroup(*acct.ID),
			})
		}
	}
	return accounts, nil
}

func (c *storageClient) ListKeys(ctx context.Context, acct sweep.StorageAccount) ([]sweep.NamedValue, error) {
	resp, err := c.client.ListKeys(ctx, acct.ResourceGroup, acct.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys for storage account %s: %w", acct.Name, err)
	}

	var keys []sweep.NamedValue
	for _, key := range resp.Keys {
		if key == nil || key.Value == nil {
			continue
		}
		name := "key"
		if key.KeyName != nil {
			name = *key.KeyName
		}
		keys = append(keys, sweep.NamedValue{Name: name, Value: *key.Value})
	}
	return keys, nil
}
