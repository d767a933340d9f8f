package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIME_ZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendYAML, cfg.StoreBackend)
	assert.Equal(t, "data/sign_data.yml", cfg.DataFile)
	assert.Equal(t, 3, cfg.MaxContractors)
	assert.Equal(t, 0.15, cfg.PriceBonusRate)
	require.NotNil(t, cfg.Location())

	r := cfg.Rates()
	assert.Equal(t, 100.0, r.BaseIncome)
	assert.Equal(t, 0.7, r.EmployedIncomeRate)
	assert.False(t, r.RequireTargetSigned)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIME_ZONE", "UTC")
	t.Setenv("STORE_BACKEND", "bolt")
	t.Setenv("TAKEOVER_FEE_RATE", "0.25")
	t.Setenv("REQUIRE_TARGET_SIGNED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendBolt, cfg.StoreBackend)
	assert.Equal(t, 0.25, cfg.Rates().TakeoverFeeRate)
	assert.True(t, cfg.Rates().RequireTargetSigned)
}

func TestLoadValidation(t *testing.T) {
	tests := map[string][2]string{
		"postgres without dsn": {"STORE_BACKEND", "postgres"},
		"unknown backend":      {"STORE_BACKEND", "mongo"},
		"penalty not below 1":  {"EMPLOYED_INCOME_RATE", "1"},
		"no capacity":          {"MAX_CONTRACTORS", "0"},
		"negative rate":        {"SELL_RETURN_RATE", "-0.1"},
		"bad zone":             {"TIME_ZONE", "Mars/Olympus"},
		"bad number":           {"BASE_INCOME", "lots"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("TIME_ZONE", "UTC")
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
