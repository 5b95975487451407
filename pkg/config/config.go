package config

import (
	"errors"
	"fmt"
	"strconv"
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
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Detection DetectionConfig
	Risk      RiskConfig
	Grading   GradingConfig
	Analytics AnalyticsConfig
	Dashboard DashboardConfig
	Exports   ExportsConfig
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

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DetectionConfig tunes the survey event detector.
type DetectionConfig struct {
	StressThreshold int
}

// RiskConfig holds the default thresholds for high-risk classification.
type RiskConfig struct {
	AttendanceThreshold float64
	GradeThreshold      float64
	StressThreshold     float64
}

// GradeBand labels mean grades at or above its lower bound.
type GradeBand struct {
	Label string
	Min   float64
}

// GradingConfig defines the ordered band table used by the grade distribution.
type GradingConfig struct {
	Bands []GradeBand
}

// AnalyticsConfig governs cache behaviour for analysis endpoints.
type AnalyticsConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// ExportsConfig toggles report export endpoints.
type ExportsConfig struct {
	Enabled bool
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

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	threshold := v.GetInt("STRESS_THRESHOLD")
	if threshold < 1 || threshold > 5 {
		threshold = 4
	}
	cfg.Detection = DetectionConfig{StressThreshold: threshold}

	cfg.Risk = RiskConfig{
		AttendanceThreshold: v.GetFloat64("RISK_ATTENDANCE_THRESHOLD"),
		GradeThreshold:      v.GetFloat64("RISK_GRADE_THRESHOLD"),
		StressThreshold:     v.GetFloat64("RISK_STRESS_THRESHOLD"),
	}

	bands, err := parseGradeBands(v.GetString("GRADE_BANDS"))
	if err != nil {
		return nil, fmt.Errorf("parse GRADE_BANDS: %w", err)
	}
	cfg.Grading = GradingConfig{Bands: bands}

	cfg.Analytics = AnalyticsConfig{
		Enabled:  v.GetBool("ENABLE_ANALYTICS_CACHE"),
		CacheTTL: parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD_CACHE"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Exports = ExportsConfig{Enabled: v.GetBool("ENABLE_EXPORTS")}

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
	v.SetDefault("DB_NAME", "uwm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STRESS_THRESHOLD", 4)

	v.SetDefault("RISK_ATTENDANCE_THRESHOLD", 70)
	v.SetDefault("RISK_GRADE_THRESHOLD", 40)
	v.SetDefault("RISK_STRESS_THRESHOLD", 4)

	v.SetDefault("GRADE_BANDS", "Fail:0,Pass:40,Merit:50,Distinction:60")

	v.SetDefault("ENABLE_ANALYTICS_CACHE", false)
	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("ENABLE_DASHBOARD_CACHE", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_EXPORTS", true)
}

// parseGradeBands reads an ordered "label:min" list. Lower bounds must be strictly
// increasing; the first band anchors the bottom of the scale.
func parseGradeBands(raw string) ([]GradeBand, error) {
	parts := splitAndTrim(raw)
	if len(parts) == 0 {
		return nil, errors.New("at least one band required")
	}
	bands := make([]GradeBand, 0, len(parts))
	for _, part := range parts {
		label, minRaw, found := strings.Cut(part, ":")
		if !found || strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("malformed band %q", part)
		}
		min, err := strconv.ParseFloat(strings.TrimSpace(minRaw), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed band bound %q", part)
		}
		if len(bands) > 0 && min <= bands[len(bands)-1].Min {
			return nil, fmt.Errorf("band bounds must increase: %q", part)
		}
		bands = append(bands, GradeBand{Label: strings.TrimSpace(label), Min: min})
	}
	return bands, nil
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
