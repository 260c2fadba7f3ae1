package api

import (
	"crypto/tls"
	"os"

	"go.uber.org/zap"
)

// TLSConfig holds the certificate and key paths used by ListenAndServe.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

var tlsConfig *TLSConfig

// InitTLS sets the key pair from the config values, each overridden by
// GAMEMAP_TLS_CERT / GAMEMAP_TLS_KEY. TLS is on only when both end up set.
func InitTLS(certFile, keyFile string) {
	if v := os.Getenv("GAMEMAP_TLS_CERT"); v != "" {
		certFile = v
	}
	if v := os.Getenv("GAMEMAP_TLS_KEY"); v != "" {
		keyFile = v
	}
	if certFile == "" || keyFile == "" {
		tlsConfig = nil
		return
	}
	tlsConfig = &TLSConfig{CertFile: certFile, KeyFile: keyFile}
}

// IsTLSEnabled returns true if TLS is configured.
func IsTLSEnabled() bool {
	return tlsConfig != nil && tlsConfig.CertFile != "" && tlsConfig.KeyFile != ""
}

// GetTLSConfig returns the current TLS configuration (may be nil).
func GetTLSConfig() *TLSConfig {
	return tlsConfig
}

// LoadTLSConfig builds a tls.Config from the configured key pair.
// A key pair that fails to load is logged and TLS stays off.
func LoadTLSConfig() *tls.Config {
	if !IsTLSEnabled() {
		return nil
	}
	cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
	if err != nil {
		Logger().Error("failed to load TLS certificate",
			zap.String("cert", tlsConfig.CertFile), zap.Error(err))
		return nil
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}

// SetTLSConfigForTest allows tests to set TLS config directly.
func SetTLSConfigForTest(cfg *TLSConfig) {
	tlsConfig = cfg
}
