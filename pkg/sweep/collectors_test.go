package sweep

import (
	"context"
	"testing"

	"github.com/praetorian-inc/pulsar/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectRegistriesEmitsOneRowPerPassword(t *testing.T) {
	registries := &fakeRegistries{
		registries: []Registry{
			{Name: "prodacr", ResourceGroup: "rg-1", AdminEnabled: true},
			{Name: "lockedacr", ResourceGroup: "rg-1", AdminEnabled: false},
		},
		creds: map[string]RegistryCredentials{
			"prodacr": {
				Username: "prodacr",
				Passwords: []NamedValue{
					{Name: "password", Value: "pw-one"},
					{Name: "password2", Value: "pw-two"},
				},
			},
		},
	}

	r := newTestRunner(Config{Subscription: "sub-1", ACR: true}, Clients{Registries: registries})
	require.NoError(t, r.collectRegistries(context.Background()))

	records := r.Records()
	require.Len(t, records, 2) // admin-disabled registry contributes nothing

	for _, rec := range records {
		assert.Equal(t, types.KindAcrAdminUser, rec.Kind)
		assert.Equal(t, "prodacr", rec.Username)
		assert.Equal(t, "prodacr", rec.SourceContainer)
	}
	assert.Equal(t, "pw-one", records[0].Value)
	assert.Equal(t, "pw-two", records[1].Value)
}

func TestCollectStorageAccounts(t *testing.T) {
	storage := &fakeStorage{
		accounts: []StorageAccount{{Name: "prodstore", ResourceGroup: "rg-1"}},
		keys: map[string][]NamedValue{
			"prodstore": {
				{Name: "key1", Value: "storage-key-one"},
				{Name: "key2", Value: "storage-key-two"},
			},
		},
	}

	r := newTestRunner(Config{Subscription: "sub-1", StorageAccounts: true}, Clients{Storage: storage})
	require.NoError(t, r.collectStorageAccounts(context.Background()))

	records := r.Records()
	require.Len(t, records, 2)
	assert.Equal(t, types.KindStorageAccountKey, records[0].Kind)
	assert.Equal(t, "key1", records[0].Name)
	assert.Equal(t, "prodstore", records[0].Username)
	assert.Equal(t, "storage-key-one", records[0].Value)
	assert.Equal(t, "key2", records[1].Name)
}

func TestCollectCosmosAccounts(t *testing.T) {
	cosmos := &fakeCosmos{
		accounts: []CosmosAccount{{Name: "orders-db", ResourceGroup: "rg-1"}},
		keys: map[string][]NamedValue{
			"orders-db": {
				{Name: "PrimaryMasterKey", Value: "cosmos-primary"},
				{Name: "SecondaryMasterKey", Value: "cosmos-secondary"},
			},
		},
	}

	r := newTestRunner(Config{Subscription: "sub-1", CosmosDB: true}, Clients{Cosmos: cosmos})
	require.NoError(t, r.collectCosmosAccounts(context.Background()))

	records := r.Records()
	require.Len(t, records, 2)
	assert.Equal(t, types.KindCosmosDbKey, records[0].Kind)
	assert.Equal(t, "PrimaryMasterKey", records[0].Name)
	assert.Equal(t, "cosmos-primary", records[0].Value)
	assert.Equal(t, "orders-db", records[0].SourceContainer)
}

func TestRunOnlyExecutesEnabledSteps(t *testing.T) {
	storage := &fakeStorage{
		accounts: []StorageAccount{{Name: "prodstore"}},
		keys:     map[string][]NamedValue{"prodstore": {{Name: "key1", Value: "k"}}},
	}

	r := newTestRunner(Config{Subscription: "sub-1", StorageAccounts: true}, Clients{Storage: storage})
	records, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, types.KindStorageAccountKey, records[0].Kind)
}
