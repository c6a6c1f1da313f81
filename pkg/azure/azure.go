// Package azure implements the sweep capability interfaces on top of
// the Azure SDK for Go. SDK responses are converted into the sweep
// package's typed structures at this boundary.
package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
)

// NewClients builds the full capability bundle for one subscription.
func NewClients(cred *azidentity.DefaultAzureCredential, subscriptionID string) (sweep.Clients, error) {
	arg, err := helpers.NewARGClient(cred)
	if err != nil {
		return sweep.Clients{}, err
	}

	vaults, err := newVaultClient(cred, subscriptionID)
	if err != nil {
		return sweep.Clients{}, fmt.Errorf("creating key vault client: %v", err)
	}

	webapps, err := newWebAppClient(cred, subscriptionID)
	if err != nil {
		return sweep.Clients{}, fmt.Errorf("creating app service client: %v", err)
	}

	registries, err := newRegistryClient(cred, subscriptionID)
	if err != nil {
		return sweep.Clients{}, fmt.Errorf("creating container registry client: %v", err)
	}

	storage, err := newStorageClient(cred, subscriptionID)
	if err != nil {
		return sweep.Clients{}, fmt.Errorf("creating storage client: %v", err)
	}

	cosmos, err := newCosmosClient(cred, subscriptionID)
	if err != nil {
		return sweep.Clients{}, fmt.Errorf("creating cosmos client: %v", err)
	}

	automation, err := newAutomationClient(cred, subscriptionID, arg)
	if err != nil {
		return sweep.Clients{}, fmt.Errorf("creating automation client: %v", err)
	}

	graph, err := newGraphClient(cred)
	if err != nil {
		return sweep.Clients{}, fmt.Errorf("creating graph client: %v", err)
	}

	return sweep.Clients{
		Vaults:     vaults,
		VaultData:  newVaultDataClient(cred),
		WebApps:    webapps,
		Registries: registries,
		Storage:    storage,
		Cosmos:     cosmos,
		Automation: automation,
		Graph:      graph,
	}, nil
}
