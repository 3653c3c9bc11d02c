package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStrategyConfig(t *testing.T) {
	cfg := DefaultStrategyConfig()

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 306_000.0, cfg.AnnualTicketBaseline)
	assert.Equal(t, 0.75, cfg.DefaultConfidence)

	assert.Equal(t, []string{"FERNET", "COCA"}, cfg.Combo.Keywords)
	assert.Equal(t, 150_000.0, cfg.Combo.PromoInvestment)

	assert.InDelta(t, -1.8, cfg.MarcaPropia.Elasticities["BEBIDAS"], 1e-9)
	assert.InDelta(t, -1.3, cfg.MarcaPropia.ElasticityFallback, 1e-9)

	assert.Equal(t, 5_000.0, cfg.Upselling.ConvenienciaBound)
	assert.Equal(t, 15_000.0, cfg.Upselling.EstandarBound)
	assert.Equal(t, 30_000.0, cfg.Upselling.AbastecimientoBound)

	require.NoError(t, ValidateStrategyConfig(cfg))
}

func TestLoadStrategyConfig_FileOverride(t *testing.T) {
	dir := t.TempDir()
	yml := []byte("strategy:\n  seed: 7\n  combo:\n    targetAdoptionRate: 0.2\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "strategy.yml"), yml, 0o644))

	cfg, err := LoadStrategyConfig(filepath.Join(dir, "strategy.yml"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.InDelta(t, 0.2, cfg.Combo.TargetAdoptionRate, 1e-9)

	// Keys the file omits keep their coded defaults.
	assert.Equal(t, 306_000.0, cfg.AnnualTicketBaseline)
	assert.Equal(t, []string{"FERNET", "COCA"}, cfg.Combo.Keywords)
}

func TestValidateStrategyConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*StrategyConfig)
	}{
		{"zero seed", func(c *StrategyConfig) { c.Seed = 0 }},
		{"zero baseline", func(c *StrategyConfig) { c.AnnualTicketBaseline = 0 }},
		{"no combo keywords", func(c *StrategyConfig) { c.Combo.Keywords = nil }},
		{"positive elasticity", func(c *StrategyConfig) { c.MarcaPropia.Elasticities["BEBIDAS"] = 1.8 }},
		{"positive fallback", func(c *StrategyConfig) { c.MarcaPropia.ElasticityFallback = 0 }},
		{"subsample above one", func(c *StrategyConfig) { c.Predictor.Subsample = 1.5 }},
		{"inverted bounds", func(c *StrategyConfig) { c.Upselling.EstandarBound = 1_000 }},
		{"zero proxy ratio", func(c *StrategyConfig) { c.Fidelizacion.CustomerProxyRatio = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultStrategyConfig()
			tc.mutate(&cfg)
			assert.Error(t, ValidateStrategyConfig(cfg))
		})
	}
}
