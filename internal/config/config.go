package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters and is immutable for
// the process lifetime.
type Config struct {
	Port string
	Env  string

	DB             DatabaseConfig
	Costs          CostsConfig
	Auth           AuthConfig
	CompanyProfile CompanyProfileConfig
	Features       FeatureConfig
	AllowedOrigins []string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CostsConfig is the certificate cost table, loaded once at startup. All
// values are whole-currency positive integers.
type CostsConfig struct {
	StandardCost     int
	SameDayCost      int
	StandardDiscount int
	SameDayDiscount  int
}

// AuthConfig names the permission roles the authorization engine checks.
type AuthConfig struct {
	OrdersRole    string
	FreeCertsRole string
}

// CompanyProfileConfig contains connection parameters for the company profile
// lookup service.
type CompanyProfileConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FeatureConfig contains feature flags, read-only after process start.
type FeatureConfig struct {
	FreeCertificates bool
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message; the process must refuse
// to serve traffic on error.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Certificate cost table
	var err error
	if cfg.Costs.StandardCost, err = parsePositiveIntEnv("STANDARD_COST", 15); err != nil {
		return nil, fmt.Errorf("invalid STANDARD_COST: %w", err)
	}
	if cfg.Costs.SameDayCost, err = parsePositiveIntEnv("SAME_DAY_COST", 50); err != nil {
		return nil, fmt.Errorf("invalid SAME_DAY_COST: %w", err)
	}
	if cfg.Costs.StandardDiscount, err = parsePositiveIntEnv("STANDARD_DISCOUNT", 5); err != nil {
		return nil, fmt.Errorf("invalid STANDARD_DISCOUNT: %w", err)
	}
	if cfg.Costs.SameDayDiscount, err = parsePositiveIntEnv("SAME_DAY_DISCOUNT", 40); err != nil {
		return nil, fmt.Errorf("invalid SAME_DAY_DISCOUNT: %w", err)
	}

	// Authorization roles
	cfg.Auth = AuthConfig{
		OrdersRole:    getEnv("PERMISSION_ORDERS_ROLE", "orders"),
		FreeCertsRole: getEnv("PERMISSION_FREE_CERTS_ROLE", "free-certs"),
	}

	// Company profile service
	cfg.CompanyProfile = CompanyProfileConfig{
		BaseURL: getEnv("COMPANY_PROFILE_URL", ""),
		APIKey:  getEnv("COMPANY_PROFILE_API_KEY", ""),
	}
	if cfg.CompanyProfile.Timeout, err = parseDurationEnv("COMPANY_PROFILE_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid COMPANY_PROFILE_TIMEOUT: %w", err)
	}

	// Feature flags
	cfg.Features = FeatureConfig{
		FreeCertificates: getEnvBool("FEATURE_FREE_CERTIFICATES", true),
	}

	// CORS allow-list, comma separated hosts
	if raw := getEnv("ALLOWED_ORIGINS", ""); raw != "" {
		for _, h := range strings.Split(raw, ",") {
			if h = strings.TrimSpace(h); h != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, h)
			}
		}
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.CompanyProfile.BaseURL == "" {
		return nil, errors.New("COMPANY_PROFILE_URL must be set for company enrichment")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvBool returns the value of an environment variable as a boolean or a
// default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parsePositiveIntEnv reads an environment variable as a strictly positive
// integer, falling back to the provided default when unset.
func parsePositiveIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be > 0")
	}
	return i, nil
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
