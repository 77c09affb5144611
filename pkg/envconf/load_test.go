package envconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	DSN string `env:"ENVCONF_TEST_DSN"`
}

type sample struct {
	Port    string        `env:"ENVCONF_TEST_PORT"`
	Timeout time.Duration `env:"ENVCONF_TEST_TIMEOUT" envDefault:"5s"`
	Hosts   []string      `env:"ENVCONF_TEST_HOSTS" envDefault:""`
	DB      nested
}

func TestLoad(t *testing.T) {
	t.Setenv("ENVCONF_TEST_PORT", "8080")
	t.Setenv("ENVCONF_TEST_DSN", "postgres://x")
	t.Setenv("ENVCONF_TEST_HOSTS", "a:9200,b:9200")

	var cfg sample
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"a:9200", "b:9200"}, cfg.Hosts)
	assert.Equal(t, "postgres://x", cfg.DB.DSN)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("ENVCONF_TEST_PORT", "8080")
	os.Unsetenv("ENVCONF_TEST_DSN")

	var cfg sample
	err := Load(&cfg)
	require.ErrorIs(t, err, ErrMissingRequired)
	assert.Contains(t, err.Error(), "ENVCONF_TEST_DSN")
}

func TestLoad_DotenvFile(t *testing.T) {
	t.Setenv("ENVCONF_TEST_PORT", "9090")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENVCONF_TEST_PORT=1111\nENVCONF_TEST_DSN=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ENVCONF_TEST_DSN") })

	var cfg sample
	require.NoError(t, Load(&cfg, path, filepath.Join(t.TempDir(), "missing.env")))

	// The process environment wins over the file.
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "from-file", cfg.DB.DSN)
}
