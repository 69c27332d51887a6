package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "VIEWER_PORT", "ENV", "BACKEND_URL", "API_TIMEOUT_MS",
		"FRAME_INTERVAL_MS", "CHARGE_STRENGTH", "LINK_DISTANCE", "TUNING_PATH",
		"HOT_DEFAULT_NODE_RELEVANCE", "HOT_DEFAULT_EDGE_WEIGHT",
		"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD",
		"LITELLM_URL", "MODEL_ID", "OPENROUTER_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "8050", cfg.ViewerPort)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, 5000, cfg.APITimeoutMS)
	assert.Equal(t, 33, cfg.FrameIntervalMS)
	assert.Equal(t, -300.0, cfg.ChargeStrength)
	assert.Equal(t, 100.0, cfg.LinkDistance)
	assert.Equal(t, 0.5, cfg.DefaultNodeRelevance)
	assert.Equal(t, 0.5, cfg.DefaultEdgeWeight)
	assert.Empty(t, cfg.Neo4jURI)

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadReadsOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9100")
	t.Setenv("ENV", "production")
	t.Setenv("FRAME_INTERVAL_MS", "16")
	t.Setenv("CHARGE_STRENGTH", "-520.5")
	t.Setenv("HOT_DEFAULT_NODE_RELEVANCE", "0.7")
	t.Setenv("NEO4J_URI", "neo4j://db:7687")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 16, cfg.FrameIntervalMS)
	assert.Equal(t, -520.5, cfg.ChargeStrength)
	assert.Equal(t, 0.7, cfg.DefaultNodeRelevance)
	assert.Equal(t, "neo4j://db:7687", cfg.Neo4jURI)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_TIMEOUT_MS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			BackendURL:           "http://localhost:8000",
			APITimeoutMS:         5000,
			FrameIntervalMS:      33,
			DefaultNodeRelevance: 0.5,
			DefaultEdgeWeight:    0.5,
			ModelID:              "some-model",
		}
	}

	require.NoError(t, base().Validate())

	cases := map[string]func(*Config){
		"missing backend url":    func(c *Config) { c.BackendURL = "" },
		"zero api timeout":       func(c *Config) { c.APITimeoutMS = 0 },
		"negative frame rate":    func(c *Config) { c.FrameIntervalMS = -1 },
		"relevance above range":  func(c *Config) { c.DefaultNodeRelevance = 1.5 },
		"weight below range":     func(c *Config) { c.DefaultEdgeWeight = -0.2 },
		"missing model id":       func(c *Config) { c.ModelID = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
