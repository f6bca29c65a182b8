package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/avast/retry-go"
	"github.com/hashicorp/consul/api"
)

type ConsulKV interface {
	Put(kv *api.KVPair, options *api.WriteOptions) (*api.WriteMeta, error)
	Get(key string, options *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
	Delete(key string, options *api.WriteOptions) (*api.WriteMeta, error)
	List(prefix string, options *api.QueryOptions) (api.KVPairs, *api.QueryMeta, error)
}

// ConsulConfig translates the application settings into a consul client config.
// Credentials are only sent in production.
func ConsulConfig(cfg *config.ConsulConfig, environment string) *api.Config {
	clientConfig := api.DefaultConfig()
	if cfg == nil {
		return clientConfig
	}

	if environment == config.Production {
		clientConfig.Token = cfg.Token
		if cfg.Username != "" || cfg.Password != "" {
			clientConfig.HttpAuth = &api.HttpBasicAuth{
				Username: cfg.Username,
				Password: cfg.Password,
			}
		}
	}

	if cfg.Address != "" {
		clientConfig.Address = cfg.Address
	}
	return clientConfig
}

// NewConsulClient builds a client and waits for the cluster to report a leader.
func NewConsulClient(ctx context.Context, cfg *config.ConsulConfig, environment string) (*api.Client, error) {
	clientConfig := ConsulConfig(cfg, environment)
	clientConfig.WaitTime = 10 * time.Second

	logger.Debug("Consul config",
		"environment", environment,
		"address", clientConfig.Address,
		"token_length", len(clientConfig.Token),
	)

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	err = retry.Do(
		func() error {
			_, err := client.Status().Leader()
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Consul not reachable, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to consul at %s: %w", clientConfig.Address, err)
	}

	return client, nil
}
