package sweep

import (
	"fmt"
	"strings"
)

// Output line markers shared between the generated runbooks and the
// Decrypt phase.
const (
	markerAssetNotFound = "ASSET_NOT_FOUND"
	markerEnvelopeKey   = "KEY:"
	markerEnvelopeData  = "DATA:"
	markerUsername      = "USR:"
	markerPassword      = "PWD:"
)

// connectionExportScript builds the one-time runbook that exports a
// run-as certificate. The certificate asset is exported as a
// password-protected PKCS#12 archive, base64-encoded, then sealed with
// a fresh AES key that is itself wrapped under the run's public
// transport certificate, so only this process can read the job output.
func connectionExportScript(certName, exportPassword, publicCertB64 string) string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	fmt.Fprintf(&b, "try { $cert = Get-AutomationCertificate -Name '%s' } catch { Write-Output '%s'; exit }\n", psEscape(certName), markerAssetNotFound)
	fmt.Fprintf(&b, "if ($null -eq $cert) { Write-Output '%s'; exit }\n", markerAssetNotFound)
	fmt.Fprintf(&b, "$archive = $cert.Export([System.Security.Cryptography.X509Certificates.X509ContentType]::Pkcs12, '%s')\n", psEscape(exportPassword))
	b.WriteString("$payload = [System.Text.Encoding]::UTF8.GetBytes([Convert]::ToBase64String($archive))\n")
	fmt.Fprintf(&b, "$transport = [System.Security.Cryptography.X509Certificates.X509Certificate2]::new([Convert]::FromBase64String('%s'))\n", publicCertB64)
	b.WriteString("$rsa = [System.Security.Cryptography.X509Certificates.RSACertificateExtensions]::GetRSAPublicKey($transport)\n")
	b.WriteString("$aes = [System.Security.Cryptography.Aes]::Create()\n")
	b.WriteString("$aes.KeySize = 256\n")
	b.WriteString("$aes.Mode = [System.Security.Cryptography.CipherMode]::CBC\n")
	b.WriteString("$aes.Padding = [System.Security.Cryptography.PaddingMode]::PKCS7\n")
	b.WriteString("$sealed = $aes.CreateEncryptor().TransformFinalBlock($payload, 0, $payload.Length)\n")
	b.WriteString("$keyBlock = $rsa.Encrypt(($aes.Key + $aes.IV), [System.Security.Cryptography.RSAEncryptionPadding]::OaepSHA256)\n")
	fmt.Fprintf(&b, "Write-Output ('%s' + [Convert]::ToBase64String($keyBlock))\n", markerEnvelopeKey)
	fmt.Fprintf(&b, "Write-Output ('%s' + [Convert]::ToBase64String($sealed))\n", markerEnvelopeData)
	return b.String()
}

// credentialExportScript builds the one-time runbook that resolves a
// stored credential asset and emits username and password as two
// RSA-OAEP sealed output lines.
func credentialExportScript(credName, publicCertB64 string) string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	fmt.Fprintf(&b, "try { $cred = Get-AutomationPSCredential -Name '%s' } catch { Write-Output '%s'; exit }\n", psEscape(credName), markerAssetNotFound)
	fmt.Fprintf(&b, "if ($null -eq $cred) { Write-Output '%s'; exit }\n", markerAssetNotFound)
	fmt.Fprintf(&b, "$transport = [System.Security.Cryptography.X509Certificates.X509Certificate2]::new([Convert]::FromBase64String('%s'))\n", publicCertB64)
	b.WriteString("$rsa = [System.Security.Cryptography.X509Certificates.RSACertificateExtensions]::GetRSAPublicKey($transport)\n")
	b.WriteString("$oaep = [System.Security.Cryptography.RSAEncryptionPadding]::OaepSHA256\n")
	b.WriteString("$user = [System.Text.Encoding]::UTF8.GetBytes($cred.UserName)\n")
	b.WriteString("$pass = [System.Text.Encoding]::UTF8.GetBytes($cred.GetNetworkCredential().Password)\n")
	fmt.Fprintf(&b, "Write-Output ('%s' + [Convert]::ToBase64String($rsa.Encrypt($user, $oaep)))\n", markerUsername)
	fmt.Fprintf(&b, "Write-Output ('%s' + [Convert]::ToBase64String($rsa.Encrypt($pass, $oaep)))\n", markerPassword)
	return b.String()
}

// authenticateAsScript builds the retained helper an operator runs
// locally to sign in as the connection's service principal. An empty
// pfxFile means the certificate was not exported alongside the helper,
// so the import step is replaced with instructions.
func authenticateAsScript(pfxFile, exportPassword string, conn Connection) string {
	var b strings.Builder
	b.WriteString("# Authenticates as the connection's service principal.\n")
	if pfxFile == "" {
		fmt.Fprintf(&b, "# The run-as certificate (thumbprint %s) was not exported with this\n", psEscape(conn.Thumbprint))
		b.WriteString("# helper; import it into Cert:\\CurrentUser\\My before running.\n")
	} else {
		b.WriteString("# Imports the exported run-as certificate first.\n")
		fmt.Fprintf(&b, "$password = ConvertTo-SecureString -String '%s' -AsPlainText -Force\n", psEscape(exportPassword))
		fmt.Fprintf(&b, "Import-PfxCertificate -FilePath '%s' -CertStoreLocation Cert:\\CurrentUser\\My -Password $password\n", psEscape(pfxFile))
	}
	fmt.Fprintf(&b, "Connect-AzAccount -ServicePrincipal -Tenant '%s' -ApplicationId '%s' -CertificateThumbprint '%s'\n",
		psEscape(conn.TenantID), psEscape(conn.ApplicationID), psEscape(conn.Thumbprint))
	return b.String()
}

// psEscape makes a value safe inside a single-quoted PowerShell string.
func psEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
