package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
)

type vaultClient struct {
	client         *armkeyvault.VaultsClient
	subscriptionID string
	// vault name -> resource group, filled in during ListVaults
	groups map[string]string
}

func newVaultClient(cred *azidentity.DefaultAzureCredential, subscriptionID string) (*vaultClient, error) {
	client, err := armkeyvault.NewVaultsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	return &vaultClient{
		client:         client,
		subscriptionID: subscriptionID,
		groups:         make(map[string]string),
	}, nil
}

func (c *vaultClient) ListVaults(ctx context.Context) ([]sweep.Vault, error) {
	var vaults []sweep.Vault

	pager := c.client.NewListBySubscriptionPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list vaults: %w", err)
		}

		for _, v := range page.Value {
			if v.Name == nil || v.ID == nil || v.Properties == nil {
				continue
			}
			vault := sweep.Vault{
				Name:          *v.Name,
				ResourceGroup: helpers.ExtractResourceGroup(*v.ID),
			}
			if v.Properties.VaultURI != nil {
				vault.URI = *v.Properties.VaultURI
			}
			if v.Properties.TenantID != nil {
				vault.TenantID = *v.Properties.TenantID
			}
			for _, p := range v.Properties.AccessPolicies {
				vault.Policies = append(vault.Policies, fromAccessPolicy(p))
			}
			c.groups[vault.Name] = vault.ResourceGroup
			vaults = append(vaults, vault)
		}
	}
	return vaults, nil
}

func (c *vaultClient) UpdateAccessPolicy(ctx context.Context, vault sweep.Vault, kind sweep.PolicyUpdateKind, entry sweep.AccessPolicyEntry) error {
	var opKind armkeyvault.AccessPolicyUpdateKind
	switch kind {
	case sweep.PolicyAdd:
		opKind = armkeyvault.AccessPolicyUpdateKindAdd
	case sweep.PolicyRemove:
		opKind = armkeyvault.AccessPolicyUpdateKindRemove
	default:
		opKind = armkeyvault.AccessPolicyUpdateKindReplace
	}

	params := armkeyvault.VaultAccessPolicyParameters{
		Properties: &armkeyvault.VaultAccessPolicyProperties{
			AccessPolicies: []*armkeyvault.AccessPolicyEntry{toAccessPolicy(entry)},
		},
	}

	rg := vault.ResourceGroup
	if rg == "" {
		rg = c.groups[vault.Name]
	}
	_, err := c.client.UpdateAccessPolicy(ctx, rg, vault.Name, opKind, params, nil)
	if err != nil {
		return fmt.Errorf("failed to %s access policy on vault %s: %w", kind, vault.Name, err)
	}
	return nil
}

func fromAccessPolicy(p *armkeyvault.AccessPolicyEntry) sweep.AccessPolicyEntry {
	entry := sweep.AccessPolicyEntry{}
	if p.ObjectID != nil {
		entry.ObjectID = *p.ObjectID
	}
	if p.TenantID != nil {
		entry.TenantID = *p.TenantID
	}
	if p.Permissions != nil {
		for _, perm := range p.Permissions.Keys {
			entry.KeyPermissions = append(entry.KeyPermissions, string(*perm))
		}
		for _, perm := range p.Permissions.Secrets {
			entry.SecretPermissions = append(entry.SecretPermissions, string(*perm))
		}
		for _, perm := range p.Permissions.Certificates {
			entry.CertificatePermissions = append(entry.CertificatePermissions, string(*perm))
		}
	}
	return entry
}

func toAccessPolicy(entry sweep.AccessPolicyEntry) *armkeyvault.AccessPolicyEntry {
	perms := &armkeyvault.Permissions{}
	for _, p := range entry.KeyPermissions {
		perms.Keys = append(perms.Keys, to.Ptr(armkeyvault.KeyPermissions(p)))
	}
	for _, p := range entry.SecretPermissions {
		perms.Secrets = append(perms.Secrets, to.Ptr(armkeyvault.SecretPermissions(p)))
	}
	for _, p := range entry.CertificatePermissions {
		perms.Certificates = append(perms.Certificates, to.Ptr(armkeyvault.CertificatePermissions(p)))
	}
	return &armkeyvault.AccessPolicyEntry{
		ObjectID:    to.Ptr(entry.ObjectID),
		TenantID:    to.Ptr(entry.TenantID),
		Permissions: perms,
	}
}

// vaultDataClient talks to the key vault dataplane. Clients are built
// lazily per vault URI and cached for the run.
type vaultDataClient struct {
	cred azcore.TokenCredential

	mu      sync.Mutex
	secrets map[string]*azsecrets.Client
	keys    map[string]*azkeys.Client
}

func newVaultDataClient(cred azcore.TokenCredential) *vaultDataClient {
	return &vaultDataClient{
		cred:    cred,
		secrets: make(map[string]*azsecrets.Client),
		keys:    make(map[string]*azkeys.Client),
	}
}

func (c *vaultDataClient) secretsClient(vaultURI string) (*azsecrets.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.secrets[vaultURI]; ok {
		return client, nil
	}
	client, err := azsecrets.NewClient(vaultURI, c.cred, nil)
	if err != nil {
		return nil, err
	}
	c.secrets[vaultURI] = client
	return client, nil
}

func (c *vaultDataClient) keysClient(vaultURI string) (*azkeys.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.keys[vaultURI]; ok {
		return client, nil
	}
	client, err := azkeys.NewClient(vaultURI, c.cred, nil)
	if err != nil {
		return nil, err
	}
	c.keys[vaultURI] = client
	return client, nil
}

func (c *vaultDataClient) ListSecrets(ctx context.Context, vaultURI string) ([]sweep.SecretItem, error) {
	client, err := c.secretsClient(vaultURI)
	if err != nil {
		return nil, err
	}

	var items []sweep.SecretItem
	pager := client.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list secrets: %w", err)
		}
		for _, s := range page.Value {
			if s.ID == nil {
				continue
			}
			item := sweep.SecretItem{Name: s.ID.Name()}
			if s.Attributes != nil {
				item.Enabled = s.Attributes.Enabled
				item.Created = s.Attributes.Created
				item.Updated = s.Attributes.Updated
			}
			if s.ContentType != nil {
				item.ContentType = *s.ContentType
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (c *vaultDataClient) GetSecret(ctx context.Context, vaultURI, name string) (string, error) {
	client, err := c.secretsClient(vaultURI)
	if err != nil {
		return "", err
	}

	resp, err := client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if resp.Value == nil {
		return "", nil
	}
	return *resp.Value, nil
}

func (c *vaultDataClient) ListKeys(ctx context.Context, vaultURI string) ([]sweep.KeyItem, error) {
	client, err := c.keysClient(vaultURI)
	if err != nil {
		return nil, err
	}

	var items []sweep.KeyItem
	pager := client.NewListKeyPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}
		for _, k := range page.Value {
			if k.KID == nil {
				continue
			}
			item := sweep.KeyItem{Name: k.KID.Name()}
			if k.Attributes != nil {
				item.Enabled = k.Attributes.Enabled
				item.Created = k.Attributes.Created
				item.Updated = k.Attributes.Updated
			}

			// The bundle carries the public JWK; private material never
			// leaves the vault.
			bundle, err := client.GetKey(ctx, item.Name, "", nil)
			if err == nil && bundle.Key != nil {
				if bundle.Key.Kty != nil {
					item.KeyType = string(*bundle.Key.Kty)
				}
				if jwk, err := json.Marshal(bundle.Key); err == nil {
					item.PublicJWK = string(jwk)
				}
			}
			items = append(items, item)
		}
	}
	return items, nil
}
