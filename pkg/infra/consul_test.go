package infra

import (
	"testing"

	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsulConfig(t *testing.T) {
	consulCfg := &config.ConsulConfig{
		Address:  "consul.internal:8500",
		Username: "bench",
		Password: "secret",
		Token:    "tok",
	}

	t.Run("production sends credentials", func(t *testing.T) {
		cfg := ConsulConfig(consulCfg, config.Production)
		assert.Equal(t, "consul.internal:8500", cfg.Address)
		assert.Equal(t, "tok", cfg.Token)
		require.NotNil(t, cfg.HttpAuth)
		assert.Equal(t, "bench", cfg.HttpAuth.Username)
	})

	t.Run("development omits credentials", func(t *testing.T) {
		cfg := ConsulConfig(consulCfg, config.Development)
		assert.Equal(t, "consul.internal:8500", cfg.Address)
		assert.Empty(t, cfg.Token)
		assert.Nil(t, cfg.HttpAuth)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		cfg := ConsulConfig(nil, config.Development)
		assert.Equal(t, api.DefaultConfig().Address, cfg.Address)
	})
}
