package helpers

import (
	"io"
	"strings"
	"testing"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	message.SetOutput(io.Discard)
	m.Run()
}

func TestExtractResourceGroup(t *testing.T) {
	id := "/subscriptions/sub-1/resourceGroups/rg-prod/providers/Microsoft.KeyVault/vaults/prod-vault"
	assert.Equal(t, "rg-prod", ExtractResourceGroup(id))
	assert.Equal(t, "rg-prod", ExtractResourceGroup(strings.ReplaceAll(id, "resourceGroups", "resourcegroups")))
	assert.Equal(t, "", ExtractResourceGroup("/subscriptions/sub-1"))
}

func TestSafeGetString(t *testing.T) {
	row := map[string]interface{}{"name": "erp-automation", "count": 3}
	assert.Equal(t, "erp-automation", SafeGetString(row, "name"))
	assert.Equal(t, "", SafeGetString(row, "count"))
	assert.Equal(t, "", SafeGetString(row, "missing"))
}

func TestSafeGetBool(t *testing.T) {
	row := map[string]interface{}{"adminUserEnabled": true, "name": "acr"}
	assert.True(t, SafeGetBool(row, "adminUserEnabled"))
	assert.False(t, SafeGetBool(row, "name"))
	assert.False(t, SafeGetBool(row, "missing"))
}

func TestSelectSubscriptions(t *testing.T) {
	subs := []SubscriptionInfo{
		{ID: "sub-1", Name: "Production"},
		{ID: "sub-2", Name: "Staging"},
		{ID: "sub-3", Name: "Dev"},
	}

	ids, err := SelectSubscriptions(strings.NewReader("1,3\n"), subs)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1", "sub-3"}, ids)

	ids, err = SelectSubscriptions(strings.NewReader("all\n"), subs)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1", "sub-2", "sub-3"}, ids)

	_, err = SelectSubscriptions(strings.NewReader("7\n"), subs)
	assert.Error(t, err)

	_, err = SelectSubscriptions(strings.NewReader("\n"), subs)
	assert.Error(t, err)
}
