package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no config file present

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Server.ProtectionMode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "mevshield.db", cfg.Database.DSN)
	assert.Empty(t, cfg.Analyzer.APIKey)
	assert.Equal(t, 50, cfg.Analyzer.FallbackScore)
	assert.Equal(t, 15*time.Second, cfg.Attack.Interval)
	assert.Equal(t, 50, cfg.Attack.RiskScoreMin)
	assert.Equal(t, 99, cfg.Attack.RiskScoreMax)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MEVSHIELD_SERVER_PORT", "9090")
	t.Setenv("MEVSHIELD_DATABASE_DRIVER", "postgres")
	t.Setenv("MEVSHIELD_DATABASE_DSN", "host=localhost user=mev dbname=mevshield")
	t.Setenv("MEVSHIELD_ANALYZER_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "sk-test", cfg.Analyzer.APIKey)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad driver":    {"MEVSHIELD_DATABASE_DRIVER", "oracle"},
		"bad port":      {"MEVSHIELD_SERVER_PORT", "-1"},
		"band inverted": {"MEVSHIELD_ATTACK_RISK_SCORE_MIN", "120"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(kv[0], kv[1])

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
