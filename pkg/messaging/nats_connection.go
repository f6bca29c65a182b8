package messaging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/nats-io/nats.go"
)

const (
	// Default certificate paths
	defaultCertsDir   = "certs"
	defaultClientCert = "client-cert.pem"
	defaultClientKey  = "client-key.pem"
	defaultCACert     = "rootCA.pem"

	connectTimeout = 5 * time.Second
)

// Connect dials the relayer's NATS cluster. Production connections require mutual TLS.
func Connect(cfg *config.NATsConfig, environment string) (*nats.Conn, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("nats url is not configured")
	}

	opts := []nats.Option{
		nats.Name("tps-reporter"),
		nats.Timeout(connectTimeout),
		// A benchmark is short lived; give up instead of hanging on a dead cluster.
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Debug("NATS connection closed")
		}),
	}

	if environment == config.Production {
		tlsOpts, err := buildTLSOptions(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tlsOpts...)
	} else if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", cfg.URL, err)
	}
	logger.Info("Connected to NATS", "url", nc.ConnectedUrl())
	return nc, nil
}

func buildTLSOptions(cfg *config.NATsConfig) ([]nats.Option, error) {
	certPaths := getCertificatePaths(cfg)

	if err := validateCertificateFiles(certPaths); err != nil {
		return nil, err
	}

	return []nats.Option{
		nats.ClientCert(certPaths.ClientCert, certPaths.ClientKey),
		nats.RootCAs(certPaths.CACert),
		nats.UserInfo(cfg.Username, cfg.Password),
	}, nil
}

type certificatePaths struct {
	ClientCert string
	ClientKey  string
	CACert     string
}

// getCertificatePaths returns configured paths, falling back to ./certs.
func getCertificatePaths(cfg *config.NATsConfig) certificatePaths {
	paths := certificatePaths{}

	if cfg.TLS != nil {
		paths.ClientCert = cfg.TLS.ClientCert
		paths.ClientKey = cfg.TLS.ClientKey
		paths.CACert = cfg.TLS.CACert
	}

	if paths.ClientCert == "" {
		paths.ClientCert = filepath.Join(".", defaultCertsDir, defaultClientCert)
	}
	if paths.ClientKey == "" {
		paths.ClientKey = filepath.Join(".", defaultCertsDir, defaultClientKey)
	}
	if paths.CACert == "" {
		paths.CACert = filepath.Join(".", defaultCertsDir, defaultCACert)
	}

	return paths
}

func validateCertificateFiles(paths certificatePaths) error {
	requiredFiles := []struct {
		name string
		path string
	}{
		{"client certificate", paths.ClientCert},
		{"client key", paths.ClientKey},
		{"CA certificate", paths.CACert},
	}

	for _, f := range requiredFiles {
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			return fmt.Errorf("%s not found at %s", f.name, f.path)
		}
	}

	return nil
}
