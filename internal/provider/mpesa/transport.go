package mpesa

import (
	"crypto/tls"
	"net/http"
	"time"
)

// NewTransport builds an HTTPS client that presents the given certificate
// during the TLS handshake. Server certificates are validated against the
// platform trust anchors; RootCAs is left nil on purpose.
func NewTransport(cert tls.Certificate, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		},
	}
}
