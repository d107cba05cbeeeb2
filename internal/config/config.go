package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	loadDotEnv(".env")
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		// Remove surrounding quotes
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

const (
	defaultPort                   = "4600"
	defaultEnvironment            = "development"
	defaultCatalogPath            = "./data/catalog.json"
	defaultCatalogRefreshInterval = time.Hour
	defaultTeamMaxMembers         = 10
)

// CatalogConfig controls catalog snapshot loading.
type CatalogConfig struct {
	Path            string
	RefreshInterval time.Duration
}

type Config struct {
	Port           string
	DatabaseURL    string
	Environment    string
	Catalog        CatalogConfig
	TeamMaxMembers int
}

func Load() (Config, error) {
	cfg := Config{
		Port:        firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), defaultPort),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Environment: resolveEnvironment(),
		Catalog: CatalogConfig{
			Path: firstNonEmpty(
				strings.TrimSpace(os.Getenv("CATALOG_PATH")),
				defaultCatalogPath,
			),
		},
	}

	refreshInterval, err := parseDuration("CATALOG_REFRESH_INTERVAL", defaultCatalogRefreshInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.Catalog.RefreshInterval = refreshInterval

	teamMaxMembers, err := parseInt("TEAM_MAX_MEMBERS", defaultTeamMaxMembers)
	if err != nil {
		return Config{}, err
	}
	cfg.TeamMaxMembers = teamMaxMembers

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("CATALOG_PATH must not be empty")
	}

	if c.Catalog.RefreshInterval <= 0 {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL must be greater than zero")
	}

	if c.TeamMaxMembers <= 0 {
		return fmt.Errorf("TEAM_MAX_MEMBERS must be greater than zero")
	}

	if isNonDevelopment(c.Environment) && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required in non-development environments")
	}

	return nil
}

func resolveEnvironment() string {
	return strings.ToLower(firstNonEmpty(
		strings.TrimSpace(os.Getenv("APP_ENV")),
		strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		strings.TrimSpace(os.Getenv("GO_ENV")),
		defaultEnvironment,
	))
}

func isNonDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local", "test":
		return false
	default:
		return true
	}
}

func parseDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", name, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", name)
	}

	return parsed, nil
}

func parseInt(name string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
	}
	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
