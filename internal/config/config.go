// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for the brain database (always absolute)
	Port          int
	LogLevel      string
	DevMode       bool
	FeedBaseURL   string        // Scoreboard API base URL
	FeedTimeout   time.Duration // Bound on every scoreboard fetch
	AuditSchedule string        // cron spec for the background audit pass
	Model         Model
}

// Model holds every numeric constant of the rating and prediction formulas.
// The formula drifted across historical versions of the dashboard; the
// mechanism is fixed here and the tuning is configuration. The defaults
// below are the documented canonical set for this implementation.
type Model struct {
	// DefaultRating is the strength assigned to a team on first reference.
	// Ratings are unbounded in both directions after that.
	DefaultRating float64

	// HomeCourtEdge is added to the expected margin for the home side.
	HomeCourtEdge float64

	// BaseWinDelta / BaseLossDelta are the rating adjustments applied to
	// the winner (+) and loser (-) of each audited game. The magnitudes
	// are deliberately asymmetric: winning gains more than losing costs.
	BaseWinDelta  float64
	BaseLossDelta float64

	// BlowoutMargin is the score differential at or above which the
	// winner's delta is scaled by BlowoutMultiplier.
	BlowoutMargin     int
	BlowoutMultiplier float64

	// StreakBonus is added flat to the winner's delta once its updated
	// win streak reaches StreakBonusThreshold.
	StreakBonusThreshold int
	StreakBonus          float64

	// FatiguePenalty is subtracted from the effective rating of a team on
	// a back-to-back. RestBonus is added to a rested team only when its
	// opponent is on a back-to-back.
	FatiguePenalty float64
	RestBonus      float64

	// MarginStdDev is the standard deviation of the simulated single-game
	// margin distribution. Simulations is the Monte-Carlo sample count.
	MarginStdDev float64
	Simulations  int

	// ValueThreshold flags a "value" divergence between the model margin
	// and the market's posted signed spread.
	ValueThreshold float64

	// BaselineTotal anchors projected game totals; TotalPerStrength scales
	// the total by how far the combined team strengths sit above two
	// default-rated teams.
	BaselineTotal    float64
	TotalPerStrength float64

	// LedgerWindow bounds the audited-game ledger to the most recent N
	// identifiers. Older identifiers are forgotten and could in principle
	// be re-audited if the feed re-served them; accepted risk.
	LedgerWindow int

	// TopTeams is the length of the strength leaderboard in API output.
	TopTeams int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory, resolve to absolute, ensure it exists
	dataDir := getEnv("EDGELAB_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("EDGELAB_PORT", 8040),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		FeedBaseURL:   getEnv("FEED_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"),
		FeedTimeout:   time.Duration(getEnvAsInt("FEED_TIMEOUT_SECONDS", 8)) * time.Second,
		AuditSchedule: getEnv("AUDIT_SCHEDULE", "@every 5m"),
		Model:         DefaultModel(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultModel returns the canonical constant set, each value overridable
// through the environment.
func DefaultModel() Model {
	return Model{
		DefaultRating:        getEnvAsFloat("MODEL_DEFAULT_RATING", 50.0),
		HomeCourtEdge:        getEnvAsFloat("MODEL_HOME_COURT_EDGE", 2.85),
		BaseWinDelta:         getEnvAsFloat("MODEL_BASE_WIN_DELTA", 1.5),
		BaseLossDelta:        getEnvAsFloat("MODEL_BASE_LOSS_DELTA", 1.0),
		BlowoutMargin:        getEnvAsInt("MODEL_BLOWOUT_MARGIN", 15),
		BlowoutMultiplier:    getEnvAsFloat("MODEL_BLOWOUT_MULTIPLIER", 1.5),
		StreakBonusThreshold: getEnvAsInt("MODEL_STREAK_BONUS_THRESHOLD", 3),
		StreakBonus:          getEnvAsFloat("MODEL_STREAK_BONUS", 0.5),
		FatiguePenalty:       getEnvAsFloat("MODEL_FATIGUE_PENALTY", 1.5),
		RestBonus:            getEnvAsFloat("MODEL_REST_BONUS", 0.75),
		MarginStdDev:         getEnvAsFloat("MODEL_MARGIN_STDDEV", 10.5),
		Simulations:          getEnvAsInt("MODEL_SIMULATIONS", 10000),
		ValueThreshold:       getEnvAsFloat("MODEL_VALUE_THRESHOLD", 3.5),
		BaselineTotal:        getEnvAsFloat("MODEL_BASELINE_TOTAL", 224.0),
		TotalPerStrength:     getEnvAsFloat("MODEL_TOTAL_PER_STRENGTH", 0.25),
		LedgerWindow:         getEnvAsInt("MODEL_LEDGER_WINDOW", 100),
		TopTeams:             getEnvAsInt("MODEL_TOP_TEAMS", 10),
	}
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Model.MarginStdDev <= 0 {
		return fmt.Errorf("margin stddev must be positive, got %v", c.Model.MarginStdDev)
	}
	if c.Model.Simulations <= 0 {
		return fmt.Errorf("simulation count must be positive, got %d", c.Model.Simulations)
	}
	if c.Model.LedgerWindow <= 0 {
		return fmt.Errorf("ledger window must be positive, got %d", c.Model.LedgerWindow)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
