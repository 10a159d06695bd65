package cfg

import (
	"flag"
	"math"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:            60,
		ShutdownBudgetSeconds:   90,
		APIPort:                 8080,
		ClaudeAPIKey:            "sk-test-key",
		ClaudeModel:             "claude-sonnet-4-20250514",
		EvaluatorTimeoutSeconds: 20,
		EvaluatorMaxRetries:     2,
		GeminiEmbedModel:        "gemini-embedding-001",
		RedisTTLHours:           24,
		MinTurns:                4,
		MaxTurns:                7,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.ClaudeModel != "claude-sonnet-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-sonnet-4-20250514")
	}
	if c.EvaluatorTimeoutSeconds != 20 || c.EvaluatorMaxRetries != 2 {
		t.Errorf("evaluator = %ds/%d retries, want 20s/2", c.EvaluatorTimeoutSeconds, c.EvaluatorMaxRetries)
	}
	if c.RedisTTLHours != 24 {
		t.Errorf("RedisTTLHours = %d, want 24", c.RedisTTLHours)
	}
	if c.MinTurns != 0 || c.MaxTurns != 0 {
		t.Errorf("turns = %d..%d, want 0..0 (thresholds file decides)", c.MinTurns, c.MaxTurns)
	}
	if c.DatabaseURL != "" || c.RedisURL != "" || c.CorpusPath != "" {
		t.Errorf("storage defaults should be empty, got %q %q %q", c.DatabaseURL, c.RedisURL, c.CorpusPath)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-api-token", "a,b",
		"-claude-api-key", "sk-override",
		"-claude-model", "claude-opus-4-20250514",
		"-redis-url", "redis://cache:6379/0",
		"-max-turns", "9",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.APIToken != "a,b" {
		t.Errorf("APIToken = %q, want %q", c.APIToken, "a,b")
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want %q", c.ClaudeAPIKey, "sk-override")
	}
	if c.ClaudeModel != "claude-opus-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-opus-4-20250514")
	}
	if c.RedisURL != "redis://cache:6379/0" {
		t.Errorf("RedisURL = %q", c.RedisURL)
	}
	if c.MaxTurns != 9 {
		t.Errorf("MaxTurns = %d, want 9", c.MaxTurns)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	with := func(mut func(*Config)) Config {
		c := validBase()
		mut(&c)
		return c
	}

	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name: "defaults are valid",
			cfg:  validBase(),
		},
		{
			name: "minimum valid values",
			cfg: with(func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = 1, 2, 1
				c.EvaluatorTimeoutSeconds, c.EvaluatorMaxRetries, c.RedisTTLHours = 1, 0, 1
				c.MinTurns, c.MaxTurns = 1, 1
			}),
		},
		{
			name: "maximum valid values",
			cfg: with(func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = 299, 300, 65535
				c.EvaluatorTimeoutSeconds, c.EvaluatorMaxRetries, c.RedisTTLHours = 120, 5, 720
				c.MaxTurns = 20
			}),
		},
		{
			name: "api token is optional",
			cfg:  with(func(c *Config) { c.APIToken = "" }),
		},
		// DrainSeconds boundaries
		{
			name:      "drain zero",
			cfg:       with(func(c *Config) { c.DrainSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			cfg:       with(func(c *Config) { c.DrainSeconds, c.ShutdownBudgetSeconds = 301, 302 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:    "drain at upper bound",
			cfg:     with(func(c *Config) { c.DrainSeconds, c.ShutdownBudgetSeconds = 300, 300 }),
			wantErr: true, // budget must be greater than drain
		},
		// ShutdownBudgetSeconds boundaries
		{
			name:      "budget negative",
			cfg:       with(func(c *Config) { c.ShutdownBudgetSeconds = -1 }),
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		{
			name:      "budget equals drain",
			cfg:       with(func(c *Config) { c.ShutdownBudgetSeconds = 60 }),
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		// APIPort boundaries
		{
			name:      "port zero",
			cfg:       with(func(c *Config) { c.APIPort = 0 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "port above max",
			cfg:       with(func(c *Config) { c.APIPort = 65536 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		// Claude
		{
			name:      "empty claude api key",
			cfg:       with(func(c *Config) { c.ClaudeAPIKey = "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_API_KEY"},
		},
		{
			name:      "empty claude model",
			cfg:       with(func(c *Config) { c.ClaudeModel = "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		{
			name:      "evaluator timeout above max",
			cfg:       with(func(c *Config) { c.EvaluatorTimeoutSeconds = 121 }),
			wantErr:   true,
			errSubstr: []string{"EVALUATOR_TIMEOUT_SECONDS"},
		},
		{
			name:      "negative retries",
			cfg:       with(func(c *Config) { c.EvaluatorMaxRetries = -1 }),
			wantErr:   true,
			errSubstr: []string{"EVALUATOR_MAX_RETRIES"},
		},
		// Embeddings
		{
			name:      "gemini key without model",
			cfg:       with(func(c *Config) { c.GeminiAPIKey, c.GeminiEmbedModel = "g", "" }),
			wantErr:   true,
			errSubstr: []string{"GEMINI_EMBED_MODEL"},
		},
		{
			name: "no gemini key, no model",
			cfg:  with(func(c *Config) { c.GeminiEmbedModel = "" }),
		},
		// Storage
		{
			name:      "redis ttl zero",
			cfg:       with(func(c *Config) { c.RedisTTLHours = 0 }),
			wantErr:   true,
			errSubstr: []string{"REDIS_TTL_HOURS"},
		},
		// Turns
		{
			name: "turn limits unset",
			cfg:  with(func(c *Config) { c.MinTurns, c.MaxTurns = 0, 0 }),
		},
		{
			name: "only max turns set",
			cfg:  with(func(c *Config) { c.MinTurns, c.MaxTurns = 0, 3 }),
		},
		{
			name:      "min turns negative",
			cfg:       with(func(c *Config) { c.MinTurns = -1 }),
			wantErr:   true,
			errSubstr: []string{"MIN_TURNS"},
		},
		{
			name:      "max below min",
			cfg:       with(func(c *Config) { c.MinTurns, c.MaxTurns = 5, 4 }),
			wantErr:   true,
			errSubstr: []string{"MAX_TURNS"},
		},
		{
			name:      "max above cap",
			cfg:       with(func(c *Config) { c.MaxTurns = 21 }),
			wantErr:   true,
			errSubstr: []string{"MAX_TURNS"},
		},
		// Error accumulation: all fields invalid
		{
			name:    "all fields invalid",
			cfg:     Config{},
			wantErr: true,
			errSubstr: []string{
				"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "CLAUDE_API_KEY", "CLAUDE_MODEL",
				"EVALUATOR_TIMEOUT_SECONDS", "REDIS_TTL_HOURS",
			},
		},
		// Extreme values
		{
			name:      "extreme negative values",
			cfg:       Config{DrainSeconds: math.MinInt32, ShutdownBudgetSeconds: math.MinInt32, APIPort: math.MinInt32},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				errMsg := err.Error()
				for _, sub := range tt.errSubstr {
					if !strings.Contains(errMsg, sub) {
						t.Errorf("error %q does not contain %q", errMsg, sub)
					}
				}
			}
		})
	}
}

func FuzzValidate(f *testing.F) {
	seeds := []struct {
		drain, budget, port, minTurns, maxTurns int
		key, model                              string
	}{
		{60, 90, 8080, 4, 7, "sk-test", "claude-sonnet"},
		{1, 2, 1, 1, 1, "k", "m"},
		{299, 300, 65535, 20, 20, "k", "m"},
		{0, 0, 0, 0, 0, "", ""},
		{-1, -1, -1, -1, -1, "", ""},
		{150, 100, 8080, 5, 3, "k", "m"},
		{math.MinInt32, math.MinInt32, math.MinInt32, math.MinInt32, math.MinInt32, "", ""},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt32, "", ""},
	}
	for _, s := range seeds {
		f.Add(s.drain, s.budget, s.port, s.minTurns, s.maxTurns, s.key, s.model)
	}

	f.Fuzz(func(t *testing.T, drain, budget, port, minTurns, maxTurns int, key, model string) {
		c := validBase()
		c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = drain, budget, port
		c.MinTurns, c.MaxTurns = minTurns, maxTurns
		c.ClaudeAPIKey, c.ClaudeModel = key, model
		err := c.Validate()

		allValid := drain >= 1 && drain <= 300 &&
			budget >= 1 && budget <= 300 &&
			budget > drain &&
			port >= 1 && port <= 65535 &&
			minTurns >= 0 && maxTurns >= 0 && maxTurns <= 20 &&
			(maxTurns == 0 || maxTurns >= minTurns) &&
			key != "" && model != ""

		if allValid && err != nil {
			t.Errorf("expected no error for valid config %+v, got: %v", c, err)
		}
		if !allValid && err == nil {
			t.Errorf("expected error for invalid config %+v, got nil", c)
		}
	})
}
