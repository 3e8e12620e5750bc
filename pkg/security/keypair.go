// pkg/security/keypair.go
package security

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// CertificateError reports unusable client key material: no parseable
// certificate, no private key, or a key that cannot be decoded.
type CertificateError struct {
	Reason string
	Err    error
}

func (e *CertificateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load certificate: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to load certificate: %s", e.Reason)
}

func (e *CertificateError) Unwrap() error { return e.Err }

// LoadKeyPair reads a single PEM file holding a client certificate chain
// concatenated with a PKCS#8 private key and returns a tls.Certificate
// suitable for mutual-TLS client auth. Any unusable key material yields
// a *CertificateError; it never panics.
func LoadKeyPair(path string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, &CertificateError{Reason: "read key pair file", Err: err}
	}

	var cert tls.Certificate
	var keyDER []byte

	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		switch block.Type {
		case "CERTIFICATE":
			cert.Certificate = append(cert.Certificate, block.Bytes)
		case "PRIVATE KEY":
			keyDER = block.Bytes
		}
	}

	if len(cert.Certificate) == 0 {
		return tls.Certificate{}, &CertificateError{Reason: "no certificate found in key pair file"}
	}
	if keyDER == nil {
		return tls.Certificate{}, &CertificateError{Reason: "no private key found in key pair file"}
	}

	key, err := x509.ParsePKCS8PrivateKey(keyDER)
	if err != nil {
		return tls.Certificate{}, &CertificateError{Reason: "parse PKCS#8 private key", Err: err}
	}
	cert.PrivateKey = key

	return cert, nil
}
