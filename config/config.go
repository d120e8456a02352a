package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string
	DBPath      string
	RedisURL    string

	ClerkSecretKey         string
	ClerkJWTKey            string
	ClerkJWKSURL           string
	ClerkIssuer            string
	ClerkAuthorizedParties []string
	EnableDevAuth          bool

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	SIGPACBaseURL  string
	SIGPACCacheTTL time.Duration

	AEMETAPIKey        string
	AEMETBaseURL       string
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	WeatherCacheTTL    time.Duration
	WeatherRulesCSV    string
	WeatherRulesXLSX   string
	WeatherRefreshCron string

	OCREndpoint        string
	OCRAPIKey          string
	ProductRegistryURL string
}

// UsesPostgres reports whether a Postgres DSN was configured.
func (c AppConfig) UsesPostgres() bool { return c.DatabaseURL != "" }

func (c AppConfig) IsProduction() bool { return c.Env == "production" }

// Load reads .env (when present) and the process environment.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[cfg] error loading .env: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) AppConfig {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}
	dur := func(k string, def time.Duration) time.Duration {
		if d, err := time.ParseDuration(get(k, "")); err == nil && d > 0 {
			return d
		}
		return def
	}

	rps, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", "10"), 64)
	if err != nil || rps <= 0 {
		rps = 10
	}
	burst, err := strconv.Atoi(get("RATE_LIMIT_BURST", "30"))
	if err != nil || burst <= 0 {
		burst = 30
	}

	return AppConfig{
		Port:     get("PORT", "8080"),
		Env:      get("APP_ENV", "development"),
		LogLevel: get("LOG_LEVEL", "info"),

		DatabaseURL: get("DATABASE_URL", ""),
		DBPath:      get("DB_PATH", "cuaderno.db"),
		RedisURL:    get("REDIS_URL", ""),

		ClerkSecretKey:         get("CLERK_SECRET_KEY", ""),
		ClerkJWTKey:            strings.ReplaceAll(get("CLERK_JWT_KEY", ""), `\n`, "\n"),
		ClerkJWKSURL:           get("CLERK_JWKS_URL", "https://api.clerk.com/v1/jwks"),
		ClerkIssuer:            get("CLERK_ISSUER", ""),
		ClerkAuthorizedParties: splitList(get("CLERK_AUTHORIZED_PARTIES", "")),
		EnableDevAuth:          get("ENABLE_DEV_AUTH", "false") == "true",

		CORSOrigins:    splitList(get("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,

		SIGPACBaseURL:  get("SIGPAC_BASE_URL", "https://sigpac-hubcloud.es/servicioconsultassigpac/query"),
		SIGPACCacheTTL: dur("SIGPAC_CACHE_TTL", 24*time.Hour),

		AEMETAPIKey:        get("AEMET_API_KEY", ""),
		AEMETBaseURL:       get("AEMET_BASE_URL", "https://opendata.aemet.es/opendata/api"),
		OpenWeatherAPIKey:  get("OPENWEATHER_API_KEY", ""),
		OpenWeatherBaseURL: get("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherCacheTTL:    dur("WEATHER_CACHE_TTL", 30*time.Minute),
		WeatherRulesCSV:    get("WEATHER_RULES_CSV", ""),
		WeatherRulesXLSX:   get("WEATHER_RULES_XLSX", ""),
		WeatherRefreshCron: get("WEATHER_REFRESH_CRON", "@every 3h"),

		OCREndpoint:        get("OCR_ENDPOINT", ""),
		OCRAPIKey:          get("OCR_API_KEY", ""),
		ProductRegistryURL: get("PRODUCT_REGISTRY_URL", ""),
	}
}

// Redacted returns a copy safe to print.
func (c AppConfig) Redacted() AppConfig {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.ClerkSecretKey = mask(c.ClerkSecretKey)
	c.ClerkJWTKey = mask(c.ClerkJWTKey)
	c.AEMETAPIKey = mask(c.AEMETAPIKey)
	c.OpenWeatherAPIKey = mask(c.OpenWeatherAPIKey)
	c.OCRAPIKey = mask(c.OCRAPIKey)
	c.DatabaseURL = mask(c.DatabaseURL)
	c.RedisURL = mask(c.RedisURL)
	return c
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
