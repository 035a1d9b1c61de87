package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartServiceYaml = `
application:
  env: development
  host: localhost
  port: 8082
  secret_key: secret
db:
  name: storefront
  host: postgres
  port: 5432
  username: postgres
  password: postgres
cache:
  host: redis
  port: 6379
catalog:
  base_url: http://product-service:8080
cart:
  snapshot_ttl: 2h
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart-service.yaml"), []byte(cartServiceYaml), 0o600))

	tests := []struct {
		name   string
		env    map[string]string
		assert func(t *testing.T, cfg *Config)
	}{
		{
			name: "given yaml file should read values and fill defaults",
			assert: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Application.Env)
				assert.Equal(t, 8082, cfg.Application.Port)
				assert.Equal(t, "secret", cfg.Application.SecretKey)
				assert.Equal(t, uint16(5432), cfg.Database.Port)
				assert.Equal(t, "http://product-service:8080", cfg.Catalog.BaseURL)
				assert.Equal(t, 2*time.Hour, cfg.Cart.SnapshotTTL)
				assert.Equal(t, 5*time.Minute, cfg.Cart.EvictionInterval)
				assert.Equal(t, 10*time.Minute, cfg.RateLimit.ClientTTL)
				assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
				assert.Equal(t, uint32(5), cfg.Catalog.MaxConsecutiveFails)
				assert.Equal(t, "storefront.events", cfg.Broker.Exchange)
				assert.Equal(t, "file://migrations", cfg.Database.MigrationPath)
			},
		},
		{
			name: "given environment variable should override yaml value",
			env:  map[string]string{"DB_HOST": "localhost", "APPLICATION_PORT": "9090"},
			assert: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 9090, cfg.Application.Port)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("cart-service", dir)
			require.NoError(t, err)
			tt.assert(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("missing-service", t.TempDir())
	assert.Error(t, err)
}
