package cfg

import (
	"errors"
	"flag"
	"fmt"

	"github.com/linnemanlabs/screener/internal/triage"
)

// Config holds the app-level flags. Library packages register their own.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string

	ClaudeAPIKey            string
	ClaudeModel             string
	EvaluatorTimeoutSeconds int
	EvaluatorMaxRetries     int

	GeminiAPIKey     string
	GeminiEmbedModel string

	DatabaseURL   string
	RedisURL      string
	RedisTTLHours int
	CorpusPath    string

	SlackWebhookURL string
	ThresholdsFile  string
	MinTurns        int
	MaxTurns        int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "comma-separated bearer tokens for /api/v1 (empty = no auth)")

	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude evaluator and responder")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.IntVar(&c.EvaluatorTimeoutSeconds, "evaluator-timeout-seconds", 20, "per-attempt evaluator timeout (1..120)")
	fs.IntVar(&c.EvaluatorMaxRetries, "evaluator-max-retries", 2, "evaluator retries on timeout or 5xx (0..5)")

	fs.StringVar(&c.GeminiAPIKey, "gemini-api-key", "", "Gemini API key for embeddings (empty = embeddings disabled)")
	fs.StringVar(&c.GeminiEmbedModel, "gemini-embed-model", "gemini-embedding-001", "Gemini embedding model")

	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (takes precedence over redis-url)")
	fs.StringVar(&c.RedisURL, "redis-url", "", "Redis URL for conversation state (empty with no database-url = in-memory store)")
	fs.IntVar(&c.RedisTTLHours, "redis-ttl-hours", 24, "idle hours before a conversation expires in redis (1..720)")
	fs.StringVar(&c.CorpusPath, "corpus-path", "", "SQLite file for the rejected-pitch corpus (empty = in-memory)")

	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for evaluation notifications")
	fs.StringVar(&c.ThresholdsFile, "thresholds-file", "", "YAML file overlaying the default scoring thresholds")
	fs.IntVar(&c.MinTurns, "min-turns", 0, "earliest turn a signal-based evaluation may trigger (0 = thresholds file, default 4)")
	fs.IntVar(&c.MaxTurns, "max-turns", 0, "turn at which evaluation always triggers, at most 20 (0 = thresholds file, default 7)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}
	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}
	if c.EvaluatorTimeoutSeconds < 1 || c.EvaluatorTimeoutSeconds > 120 {
		errs = append(errs, fmt.Errorf("invalid EVALUATOR_TIMEOUT_SECONDS %d (must be 1..120)", c.EvaluatorTimeoutSeconds))
	}
	if c.EvaluatorMaxRetries < 0 || c.EvaluatorMaxRetries > 5 {
		errs = append(errs, fmt.Errorf("invalid EVALUATOR_MAX_RETRIES %d (must be 0..5)", c.EvaluatorMaxRetries))
	}

	if c.GeminiAPIKey != "" && c.GeminiEmbedModel == "" {
		errs = append(errs, errors.New("GEMINI_EMBED_MODEL is required when GEMINI_API_KEY is set"))
	}

	if c.RedisTTLHours < 1 || c.RedisTTLHours > 720 {
		errs = append(errs, fmt.Errorf("invalid REDIS_TTL_HOURS %d (must be 1..720)", c.RedisTTLHours))
	}

	// zero turn limits defer to the thresholds file
	if c.MinTurns < 0 {
		errs = append(errs, fmt.Errorf("invalid MIN_TURNS %d (must be 0 or positive)", c.MinTurns))
	}
	if c.MaxTurns < 0 || c.MaxTurns > triage.MaxTurnLimit || (c.MaxTurns > 0 && c.MaxTurns < c.MinTurns) {
		errs = append(errs, fmt.Errorf("invalid MAX_TURNS %d (must be 0 or MIN_TURNS..%d)", c.MaxTurns, triage.MaxTurnLimit))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
