// Package tlsutil loads transport credentials for the loan service gRPC
// endpoint and issues development certificate bundles.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc/credentials"
)

const (
	caValidity     = 10 * 365 * 24 * time.Hour
	serverValidity = 365 * 24 * time.Hour
)

// Bundle names the files of a development certificate bundle inside Dir.
type Bundle struct {
	Dir string
}

func (b Bundle) CAFile() string    { return filepath.Join(b.Dir, "ca.pem") }
func (b Bundle) CAKeyFile() string { return filepath.Join(b.Dir, "ca-key.pem") }
func (b Bundle) CertFile() string  { return filepath.Join(b.Dir, "server.pem") }
func (b Bundle) KeyFile() string   { return filepath.Join(b.Dir, "server-key.pem") }
func (b Bundle) files() []string   { return []string{b.CAFile(), b.CAKeyFile(), b.CertFile(), b.KeyFile()} }

// ServerCredentials loads a server key pair. TLS 1.2 is the minimum accepted
// version.
func ServerCredentials(certFile, keyFile string) (credentials.TransportCredentials, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: load key pair: %w", err)
	}
	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// ClientCredentials trusts the CA certificate in caFile, or the system roots
// when caFile is empty.
func ClientCredentials(caFile string) (credentials.TransportCredentials, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return credentials.NewTLS(cfg), nil
	}

	raw, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(raw) {
		return nil, fmt.Errorf("tlsutil: no certificates in %s", caFile)
	}
	cfg.RootCAs = pool
	return credentials.NewTLS(cfg), nil
}

// IssueDevBundle creates a CA and a server certificate for hosts (DNS names
// or IP literals) signed by it, and writes both key pairs into dir.
func IssueDevBundle(dir string, hosts []string) (Bundle, error) {
	if len(hosts) == 0 {
		return Bundle{}, errors.New("tlsutil: at least one host is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Bundle{}, fmt.Errorf("tlsutil: create %s: %w", dir, err)
	}
	b := Bundle{Dir: dir}
	now := time.Now()

	ca := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"fintrack dev CA"}},
		NotBefore:             now,
		NotAfter:              now.Add(caValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caKey, caDER, err := issue(ca, nil, nil)
	if err != nil {
		return Bundle{}, fmt.Errorf("tlsutil: ca: %w", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return Bundle{}, fmt.Errorf("tlsutil: parse ca: %w", err)
	}

	leaf := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{Organization: []string{"fintrack dev"}, CommonName: hosts[0]},
		NotBefore:    now,
		NotAfter:     now.Add(serverValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			leaf.IPAddresses = append(leaf.IPAddresses, ip)
			continue
		}
		leaf.DNSNames = append(leaf.DNSNames, h)
	}
	leafKey, leafDER, err := issue(leaf, caCert, caKey)
	if err != nil {
		return Bundle{}, fmt.Errorf("tlsutil: server: %w", err)
	}

	writes := []struct {
		path string
		der  []byte
		key  *ecdsa.PrivateKey
	}{
		{path: b.CAFile(), der: caDER},
		{path: b.CAKeyFile(), key: caKey},
		{path: b.CertFile(), der: leafDER},
		{path: b.KeyFile(), key: leafKey},
	}
	for _, w := range writes {
		if w.key != nil {
			err = writeKey(w.path, w.key)
		} else {
			err = writePEM(w.path, "CERTIFICATE", w.der)
		}
		if err != nil {
			return Bundle{}, err
		}
	}
	return b, nil
}

// issue generates a P-256 key and signs tmpl with parentKey. A nil parent
// makes the certificate self-signed.
func issue(tmpl, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*ecdsa.PrivateKey, []byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}
	if parent == nil {
		parent, parentKey = tmpl, key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	if err != nil {
		return nil, nil, fmt.Errorf("sign: %w", err)
	}
	return key, der, nil
}

func writeKey(path string, key *ecdsa.PrivateKey) error {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("tlsutil: marshal key: %w", err)
	}
	return writePEM(path, "EC PRIVATE KEY", der)
}

func writePEM(path, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("tlsutil: write %s: %w", path, err)
	}
	return nil
}
