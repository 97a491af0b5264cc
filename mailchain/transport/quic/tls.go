package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"
)

// ALPN identifies the delivery protocol on the wire.
const ALPN = "mailchain-delivery/1"

// endpointCertLifetime bounds how long one process serves a certificate.
const endpointCertLifetime = 24 * time.Hour

// endpointCertificate issues a throwaway certificate for a delivery endpoint.
// Mail servers are untrusted relays, so there is no PKI to chain to.
func endpointCertificate(now time.Time) (tls.Certificate, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, err
	}
	tpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "mailchain delivery"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(endpointCertLifetime),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, pub, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}

// NewServerTLSConfig returns the TLS 1.3 config a delivery endpoint listens
// with, offering only the delivery ALPN.
func NewServerTLSConfig() (*tls.Config, error) {
	cert, err := endpointCertificate(time.Now())
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
		NextProtos:   []string{ALPN},
	}, nil
}

// NewClientTLSConfig returns the config a sender dials with. It presents no
// certificate and accepts any server certificate.
func NewClientTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS13,
		NextProtos: []string{ALPN},
		// TLS hides which recipient a request names from the network.
		// Envelope confidentiality does not depend on it.
		InsecureSkipVerify: true,
	}
}
