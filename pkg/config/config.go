package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Solver    SolverConfig
	Solutions SolutionsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PrecedenceMode selects how must-follow relations are enforced.
type PrecedenceMode string

const (
	// PrecedenceStrict makes the earlier activity end no later than the
	// later one starts on every day both are active.
	PrecedenceStrict PrecedenceMode = "strict"
	// PrecedenceFlexible only tracks whether the pair co-occurs on a day
	// and minimizes the deviation in a dedicated phase.
	PrecedenceFlexible PrecedenceMode = "flexible"
)

// SolverConfig tunes the optimization engine.
type SolverConfig struct {
	GridStep          int // minutes between candidate start times
	FlexCap           int // max drift outside a declared window, minutes
	FlexUsePenalty    float64
	ModifiedWeight    float64 // stay-close weight for user-edited rows
	BaselineWeight    float64 // stay-close weight for untouched rows
	ConsecutiveWeight float64
	FallbackCeiling   float64
	Tolerance         float64
	Seed              int64
	Restarts          int
	PrecedenceMode    PrecedenceMode

	StayCloseBudget   time.Duration
	TimeFlexBudget    time.Duration
	BeforeAfterBudget time.Duration
	DefaultBudget     time.Duration
}

// SolutionsConfig governs persisted solution documents.
type SolutionsConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	mode := PrecedenceMode(v.GetString("SOLVER_PRECEDENCE_MODE"))
	if mode != PrecedenceStrict {
		mode = PrecedenceFlexible
	}

	cfg.Solver = SolverConfig{
		GridStep:          v.GetInt("SOLVER_GRID_STEP"),
		FlexCap:           v.GetInt("SOLVER_FLEX_CAP"),
		FlexUsePenalty:    v.GetFloat64("SOLVER_FLEX_USE_PENALTY"),
		ModifiedWeight:    v.GetFloat64("SOLVER_MODIFIED_WEIGHT"),
		BaselineWeight:    v.GetFloat64("SOLVER_BASELINE_WEIGHT"),
		ConsecutiveWeight: v.GetFloat64("SOLVER_CONSECUTIVE_WEIGHT"),
		FallbackCeiling:   v.GetFloat64("SOLVER_FALLBACK_CEILING"),
		Tolerance:         v.GetFloat64("SOLVER_TOLERANCE"),
		Seed:              v.GetInt64("SOLVER_SEED"),
		Restarts:          v.GetInt("SOLVER_RESTARTS"),
		PrecedenceMode:    mode,
		StayCloseBudget:   parseDuration(v.GetString("SOLVER_STAYCLOSE_BUDGET"), time.Minute),
		TimeFlexBudget:    parseDuration(v.GetString("SOLVER_TIMEFLEX_BUDGET"), 100*time.Second),
		BeforeAfterBudget: parseDuration(v.GetString("SOLVER_BEFOREAFTER_BUDGET"), 2*time.Minute),
		DefaultBudget:     parseDuration(v.GetString("SOLVER_DEFAULT_BUDGET"), 100*time.Second),
	}

	cfg.Solutions = SolutionsConfig{
		CacheTTL: parseDuration(v.GetString("SOLUTIONS_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sportsched")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_GRID_STEP", 5)
	v.SetDefault("SOLVER_FLEX_CAP", 60)
	v.SetDefault("SOLVER_FLEX_USE_PENALTY", 100)
	v.SetDefault("SOLVER_MODIFIED_WEIGHT", 100)
	v.SetDefault("SOLVER_BASELINE_WEIGHT", 1)
	v.SetDefault("SOLVER_CONSECUTIVE_WEIGHT", 100)
	v.SetDefault("SOLVER_FALLBACK_CEILING", 1000)
	v.SetDefault("SOLVER_TOLERANCE", 1e-6)
	v.SetDefault("SOLVER_SEED", 1)
	v.SetDefault("SOLVER_RESTARTS", 24)
	v.SetDefault("SOLVER_PRECEDENCE_MODE", string(PrecedenceFlexible))
	v.SetDefault("SOLVER_STAYCLOSE_BUDGET", "60s")
	v.SetDefault("SOLVER_TIMEFLEX_BUDGET", "100s")
	v.SetDefault("SOLVER_BEFOREAFTER_BUDGET", "120s")
	v.SetDefault("SOLVER_DEFAULT_BUDGET", "100s")

	v.SetDefault("SOLUTIONS_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
