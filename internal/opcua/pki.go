package opcua

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	applicationURI = "urn:pickplace-simulator:arm"
	certValidity   = 365 * 24 * time.Hour
)

// ensurePKI creates the PKI directory and a self-signed certificate if missing
func ensurePKI(appName, dir, certPath, keyPath string) error {
	if _, err := os.Stat(certPath); err == nil {
		log.Info().Str("certFile", certPath).Msg("Using existing PKI certificates")
		return nil
	}

	log.Info().Msg("Generating self-signed certificates for OPC UA server")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create PKI directory: %w", err)
	}

	return createSelfSignedCert(appName, certPath, keyPath)
}

// createSelfSignedCert generates a self-signed certificate for the OPC UA server
func createSelfSignedCert(appName, certPath, keyPath string) error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	uri, err := url.Parse(applicationURI)
	if err != nil {
		return fmt.Errorf("failed to parse application URI: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   appName,
			Organization: []string{"Pick and Place Simulator"},
		},
		NotBefore:             now,
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost", appName, "pickplace-simulator"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("0.0.0.0")},
		URIs:                  []*url.URL{uri},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	if err := writePEM(certPath, "CERTIFICATE", certDER, 0644); err != nil {
		return err
	}
	if err := writePEM(keyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(privateKey), 0600); err != nil {
		return err
	}

	log.Info().
		Str("certPath", certPath).
		Str("keyPath", keyPath).
		Msg("Self-signed certificates generated successfully")

	return nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", blockType, err)
	}
	return nil
}
