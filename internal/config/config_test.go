package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, StoreJSON, cfg.StoreKind)
	assert.Equal(t, "127.0.0.1:5555", cfg.Address())
	require.NoError(t, cfg.Validate())
}

func Test_Load_Reads_Env_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	content := "CHAT_RELAY_PORT=6001\nCHAT_RELAY_STORE=sqlite\nCHAT_RELAY_STORE_PATH=/tmp/users.db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Cleanup(func() {
		os.Unsetenv(PortEnv)
		os.Unsetenv(StoreKindEnv)
		os.Unsetenv(StorePathEnv)
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6001, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreKind)
	assert.Equal(t, "/tmp/users.db", cfg.StorePath)
}

func Test_Load_Rejects_Bad_Port(t *testing.T) {
	t.Setenv(PortEnv, "not-a-port")

	_, err := Load("")
	require.ErrorIs(t, err, ErrConversionFailed)
}

func Test_Validate(t *testing.T) {
	valid := Config{
		Host: "localhost", Port: 5555, CertFile: "c", KeyFile: "k",
		StoreKind: StoreMemory, ScratchDir: "tmp", MaxFileSize: 1,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 70000 }},
		{"cert", func(c *Config) { c.CertFile = "" }},
		{"store", func(c *Config) { c.StoreKind = "redis" }},
		{"store path", func(c *Config) { c.StoreKind = StoreJSON; c.StorePath = "" }},
		{"scratch", func(c *Config) { c.ScratchDir = "" }},
		{"max size", func(c *Config) { c.MaxFileSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
