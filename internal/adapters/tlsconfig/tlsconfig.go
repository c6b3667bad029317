package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Paths names PEM files on disk.
type Paths struct {
	CA   string
	Cert string
	Key  string
}

// Empty reports whether no TLS material is configured.
func (p Paths) Empty() bool {
	return p.CA == "" && p.Cert == "" && p.Key == ""
}

// Client builds a client TLS config. It returns nil when p is empty.
// CA verifies the broker; Cert and Key, if given, authenticate the client.
func Client(p Paths) (*tls.Config, error) {
	if p.Empty() {
		return nil, nil
	}
	config := &tls.Config{MinVersion: tls.VersionTLS12}
	if p.CA != "" {
		pool, err := loadPool(p.CA)
		if err != nil {
			return nil, err
		}
		config.RootCAs = pool
	}
	if p.Cert != "" || p.Key != "" {
		cert, err := loadPair(p)
		if err != nil {
			return nil, err
		}
		config.Certificates = []tls.Certificate{cert}
	}
	return config, nil
}

// Server builds a listener TLS config. Cert and Key are required; CA, if
// given, verifies client certificates that are presented.
func Server(p Paths) (*tls.Config, error) {
	cert, err := loadPair(p)
	if err != nil {
		return nil, err
	}
	config := &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}
	if p.CA != "" {
		pool, err := loadPool(p.CA)
		if err != nil {
			return nil, err
		}
		config.ClientCAs = pool
		config.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return config, nil
}

func loadPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("failed to parse CA bundle")
	}
	return pool, nil
}

func loadPair(p Paths) (tls.Certificate, error) {
	if p.Cert == "" || p.Key == "" {
		return tls.Certificate{}, errors.New("both tls cert and key are required")
	}
	cert, err := tls.LoadX509KeyPair(p.Cert, p.Key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair: %w", err)
	}
	return cert, nil
}
