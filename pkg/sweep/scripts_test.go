package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionExportScript(t *testing.T) {
	script := connectionExportScript("AzureRunAsCertificate", "pass'word", "CERTB64")

	assert.Contains(t, script, "Get-AutomationCertificate -Name 'AzureRunAsCertificate'")
	assert.Contains(t, script, "pass''word")
	assert.Contains(t, script, "FromBase64String('CERTB64')")
	assert.Contains(t, script, "OaepSHA256")
	assert.Contains(t, script, markerAssetNotFound)
	assert.Contains(t, script, "'"+markerEnvelopeKey+"'")
	assert.Contains(t, script, "'"+markerEnvelopeData+"'")
}

func TestCredentialExportScript(t *testing.T) {
	script := credentialExportScript("svc-user", "CERTB64")

	assert.Contains(t, script, "Get-AutomationPSCredential -Name 'svc-user'")
	assert.Contains(t, script, "GetNetworkCredential().Password")
	assert.Contains(t, script, markerAssetNotFound)
	assert.Contains(t, script, "'"+markerUsername+"'")
	assert.Contains(t, script, "'"+markerPassword+"'")
}

func TestAuthenticateAsScript(t *testing.T) {
	conn := Connection{
		Name:          "AzureRunAsConnection",
		Thumbprint:    "ABC123",
		TenantID:      "tenant-1",
		ApplicationID: "app-1",
	}
	script := authenticateAsScript("out/acct-AzureRunAsConnection.pfx", "pw", conn)

	assert.Contains(t, script, "Import-PfxCertificate -FilePath 'out/acct-AzureRunAsConnection.pfx'")
	assert.Contains(t, script, "Connect-AzAccount -ServicePrincipal -Tenant 'tenant-1' -ApplicationId 'app-1' -CertificateThumbprint 'ABC123'")

	// Without an exported pfx the import step becomes instructions.
	script = authenticateAsScript("", "pw", conn)
	assert.NotContains(t, script, "Import-PfxCertificate")
	assert.NotContains(t, script, "ConvertTo-SecureString")
	assert.Contains(t, script, "thumbprint ABC123")
	assert.Contains(t, script, "Connect-AzAccount -ServicePrincipal -Tenant 'tenant-1' -ApplicationId 'app-1' -CertificateThumbprint 'ABC123'")
}

func TestCertAssetName(t *testing.T) {
	tests := []struct {
		conn string
		want string
	}{
		{"AzureRunAsConnection", "AzureRunAsCertificate"},
		{"AzureClassicRunAsConnection", "AzureClassicRunAsCertificate"},
		{"deploy-identity", "deploy-identity"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, certAssetName(Connection{Name: tc.conn}))
	}
}

func TestJobNamesAreRandomized(t *testing.T) {
	a, b := jobName(), jobName()
	assert.Regexp(t, `^pulsar-[0-9a-f]{16}$`, a)
	assert.NotEqual(t, a, b)
}
