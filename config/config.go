package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vnkhanh/hostel-server/models"
)

const (
	GatewaySupabase = "supabase"
	GatewayPostgres = "postgres"
	GatewayMemory   = "memory"
)

type Config struct {
	Port        string
	GatewayMode string

	SupabaseURL       string
	SupabaseKey       string
	SupabaseJWTSecret string
	StorageBucket     string
	EmailRedirectTo   string
	GatewayTimeout    time.Duration
	GatewayRetryCount int

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBAutoMigrate bool

	// Admin profile seeded into the in-memory gateway. A nil id means one is
	// generated at startup.
	MemoryAdminID    uuid.UUID
	MemoryAdminEmail string
	MemoryAdminName  string

	LogLevel  string
	LogFormat string

	CORSOrigins      []string
	SignupRatePerMin int
	SignupBurst      int
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GatewayMode: strings.ToLower(getEnv("GATEWAY_MODE", GatewaySupabase)),

		SupabaseURL:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:       getEnv("SUPABASE_KEY", ""),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		StorageBucket:     getEnv("SUPABASE_STORAGE_BUCKET", "exports"),
		EmailRedirectTo:   getEnv("EMAIL_REDIRECT_TO", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "hostel"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MemoryAdminEmail: getEnv("MEMORY_ADMIN_EMAIL", "admin@hostel.local"),
		MemoryAdminName:  getEnv("MEMORY_ADMIN_NAME", "Hostel Admin"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	var err error
	if cfg.GatewayTimeout, err = time.ParseDuration(getEnv("GATEWAY_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("GATEWAY_TIMEOUT: %w", err)
	}
	if cfg.GatewayRetryCount, err = parseInt("GATEWAY_RETRY_COUNT", 0); err != nil {
		return nil, err
	}
	if cfg.SignupRatePerMin, err = parseInt("SIGNUP_RATE_PER_MIN", 10); err != nil {
		return nil, err
	}
	if cfg.SignupBurst, err = parseInt("SIGNUP_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate, err = strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", "false")); err != nil {
		return nil, fmt.Errorf("DB_AUTO_MIGRATE: %w", err)
	}

	if raw := getEnv("MEMORY_ADMIN_ID", ""); raw != "" {
		if cfg.MemoryAdminID, err = uuid.Parse(raw); err != nil {
			return nil, fmt.Errorf("MEMORY_ADMIN_ID: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.GatewayMode {
	case GatewaySupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required in %s mode", GatewaySupabase)
		}
	case GatewayPostgres, GatewayMemory:
	default:
		return fmt.Errorf("unknown GATEWAY_MODE %q", c.GatewayMode)
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// ConnectDB opens the database used by the postgres gateway.
func ConnectDB(cfg *Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.DBAutoMigrate {
		if err := db.AutoMigrate(
			&models.AuthUser{},
			&models.Profile{},
			&models.Room{},
			&models.RoomAllocation{},
			&models.MaintenanceRequest{},
		); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	logger.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.Bool("migrated", cfg.DBAutoMigrate))
	return db, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: expected a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
