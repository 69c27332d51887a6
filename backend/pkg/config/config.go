package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port       string
	ViewerPort string
	Env        string

	// Backend API (consumed by the viewer)
	BackendURL   string
	APITimeoutMS int // Request timeout in milliseconds

	// Viewer rendering
	FrameIntervalMS int     // Simulation step interval in milliseconds
	ChargeStrength  float64 // Repulsion strength (negative repels)
	LinkDistance    float64 // Target distance for linked nodes
	TuningPath      string  // Optional layout tuning file watched at runtime

	// Hypergraph defaults
	DefaultNodeRelevance float64
	DefaultEdgeWeight    float64

	// Neo4j (optional; the in-memory store is used when URI is empty)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// AI
	LiteLLMURL       string
	ModelID          string
	OpenRouterAPIKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8000"),
		ViewerPort:           getEnv("VIEWER_PORT", "8050"),
		Env:                  getEnv("ENV", "development"),
		BackendURL:           getEnv("BACKEND_URL", "http://localhost:8000"),
		APITimeoutMS:         getEnvInt("API_TIMEOUT_MS", 5000),
		FrameIntervalMS:      getEnvInt("FRAME_INTERVAL_MS", 33),
		ChargeStrength:       getEnvFloat("CHARGE_STRENGTH", -300),
		LinkDistance:         getEnvFloat("LINK_DISTANCE", 100),
		TuningPath:           getEnv("TUNING_PATH", ""),
		DefaultNodeRelevance: getEnvFloat("HOT_DEFAULT_NODE_RELEVANCE", 0.5),
		DefaultEdgeWeight:    getEnvFloat("HOT_DEFAULT_EDGE_WEIGHT", 0.5),
		Neo4jURI:             getEnv("NEO4J_URI", ""),
		Neo4jUser:            getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:        getEnv("NEO4J_PASSWORD", "password"),
		LiteLLMURL:           getEnv("LITELLM_URL", "http://localhost:4000"),
		ModelID:              getEnv("MODEL_ID", "openrouter/anthropic/claude-3.5-sonnet"),
		OpenRouterAPIKey:     getEnv("OPENROUTER_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and sane
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.APITimeoutMS <= 0 {
		return fmt.Errorf("API_TIMEOUT_MS must be positive")
	}
	if c.FrameIntervalMS <= 0 {
		return fmt.Errorf("FRAME_INTERVAL_MS must be positive")
	}
	if c.DefaultNodeRelevance < 0 || c.DefaultNodeRelevance > 1 {
		return fmt.Errorf("HOT_DEFAULT_NODE_RELEVANCE must be between 0 and 1")
	}
	if c.DefaultEdgeWeight < 0 || c.DefaultEdgeWeight > 1 {
		return fmt.Errorf("HOT_DEFAULT_EDGE_WEIGHT must be between 0 and 1")
	}
	if c.ModelID == "" {
		return fmt.Errorf("MODEL_ID is required")
	}
	// Neo4j and OpenRouter credentials are optional; the server falls back
	// to the in-memory store and the LiteLLM dummy key respectively.
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
