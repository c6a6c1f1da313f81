package sweep

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// KeyPair is the run-scoped asymmetric pair that protects secret
// payloads on their way through the job output channel, which other
// principals may be able to read. The public half is wrapped in a
// self-signed certificate so remote runbooks can import it into the
// sandbox certificate store; the private half never leaves the process.
type KeyPair struct {
	priv     *rsa.PrivateKey
	certDER  []byte
	certPath string
}

// NewKeyPair generates a fresh RSA-2048 pair and writes the public
// certificate into outputDir for the remote scripts to reference.
func NewKeyPair(outputDir string) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating transport key pair: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generating certificate serial: %w", err)
	}

	tmpl := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "pulsar-transport-" + uuid.NewString()[:8],
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDataEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, fmt.Errorf("creating transport certificate: %w", err)
	}

	certPath := filepath.Join(outputDir, "pulsar-transport.cer")
	if err := os.WriteFile(certPath, der, 0600); err != nil {
		return nil, fmt.Errorf("writing transport certificate: %w", err)
	}

	return &KeyPair{priv: priv, certDER: der, certPath: certPath}, nil
}

// PublicCertBase64 returns the DER certificate base64-encoded for
// embedding in remote scripts.
func (kp *KeyPair) PublicCertBase64() string {
	return base64.StdEncoding.EncodeToString(kp.certDER)
}

// CertPath returns the on-disk location of the public certificate.
func (kp *KeyPair) CertPath() string {
	return kp.certPath
}

// Decrypt reverses a direct RSA-OAEP(SHA-256) encryption of a short
// payload, as produced by the credential export scripts.
func (kp *KeyPair) Decrypt(ciphertextB64 string) ([]byte, error) {
	if kp.priv == nil {
		return nil, fmt.Errorf("%w: key pair already destroyed", ErrDecryption)
	}
	ct, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, kp.priv, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return pt, nil
}

// DecryptEnvelope reverses the hybrid encryption used for certificate
// archives: an RSA-OAEP wrapped AES-256 key plus IV, then AES-CBC with
// PKCS#7 padding over the payload.
func (kp *KeyPair) DecryptEnvelope(keyB64, dataB64 string) ([]byte, error) {
	keyIV, err := kp.Decrypt(keyB64)
	if err != nil {
		return nil, err
	}
	if len(keyIV) != 48 {
		return nil, fmt.Errorf("%w: envelope key block has %d bytes, want 48", ErrDecryption, len(keyIV))
	}

	data, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: payload is not block-aligned", ErrDecryption)
	}

	block, err := aes.NewCipher(keyIV[:32])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	pt := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, keyIV[32:48]).CryptBlocks(pt, data)

	return pkcs7Unpad(pt)
}

// EncryptForTest is the counterpart of Decrypt, used by fakes standing
// in for the remote execution environment.
func (kp *KeyPair) EncryptForTest(plaintext []byte) (string, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &kp.priv.PublicKey, plaintext, nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Destroy removes the exported certificate file and drops the private
// key. Safe to call more than once; runs exactly once per automation
// phase regardless of outcome.
func (kp *KeyPair) Destroy() error {
	kp.priv = nil
	kp.certDER = nil
	if kp.certPath == "" {
		return nil
	}
	path := kp.certPath
	kp.certPath = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing transport certificate: %w", err)
	}
	return nil
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecryption)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecryption)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}
