package configs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"academy_backend/internals/helpers/logger"
)

const (
	StoreDriverPostgres  = "postgres"
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

// =======================
// APP CONFIG
// =======================

type DBConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	Name             string
	SSLMode          string
	StatementTimeout time.Duration
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type AppConfig struct {
	Port        string
	StoreDriver string
	Timezone    string
	CORSOrigins []string

	// WebhookSecret guards POST /api/hooks/enrollments; empty disables the check.
	WebhookSecret string

	DB        DBConfig
	Firestore FirestoreConfig
	Log       logger.Config

	// Trigger delivery over LISTEN/NOTIFY (postgres only)
	TriggerListenerEnabled bool
	EnrollmentChannel      string

	// Background jobs (robfig/cron spec strings, empty disables)
	ReconcileCron          string
	MaterializeCron        string
	MaterializeHorizonDays int
}

// =======================
// ENV LOADER
// =======================

// LoadEnv loads .env when present; process env always wins.
func LoadEnv() error {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Load reads the whole configuration from the environment.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:          GetEnv("PORT", "3000"),
		StoreDriver:   strings.ToLower(GetEnv("STORE_DRIVER", StoreDriverPostgres)),
		Timezone:      GetEnv("APP_TIMEZONE", "UTC"),
		CORSOrigins:   splitList(GetEnv("CORS_ORIGINS", "http://localhost:5173")),
		WebhookSecret: GetEnv("WEBHOOK_SECRET"),
		DB: DBConfig{
			Host:             GetEnv("DB_HOST", "localhost"),
			Port:             GetEnv("DB_PORT", "5432"),
			User:             GetEnv("DB_USER"),
			Password:         GetEnv("DB_PASSWORD"),
			Name:             GetEnv("DB_NAME"),
			SSLMode:          GetEnv("DB_SSLMODE", "require"),
			StatementTimeout: time.Duration(getEnvInt("DB_STATEMENT_TIMEOUT_MS", 3000)) * time.Millisecond,
		},
		Firestore: FirestoreConfig{
			ProjectID:       GetEnv("FIRESTORE_PROJECT_ID"),
			CredentialsFile: GetEnv("FIREBASE_CREDENTIALS_FILE"),
		},
		Log: logger.Config{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "json"),
			Output: GetEnv("LOG_OUTPUT", "stdout"),
		},
		TriggerListenerEnabled: getEnvBool("TRIGGER_LISTENER_ENABLED", true),
		EnrollmentChannel:      GetEnv("ENROLLMENT_CHANNEL", "enrollment_events"),
		ReconcileCron:          GetEnv("RECONCILE_CRON", "30 3 * * *"),
		MaterializeCron:        GetEnv("MATERIALIZE_CRON", "0 2 * * *"),
		MaterializeHorizonDays: getEnvInt("MATERIALIZE_HORIZON_DAYS", 35),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DB.User == "" || c.DB.Name == "" {
			return errors.New("DB_USER and DB_NAME are required for the postgres store")
		}
	case StoreDriverFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required for the firestore store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	if c.MaterializeHorizonDays < 0 {
		return errors.New("MATERIALIZE_HORIZON_DAYS must not be negative")
	}
	return nil
}

// Location resolves APP_TIMEZONE; Validate guarantees it loads.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN builds the postgres URL with a server-side statement timeout.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=academy&options=-c%%20statement_timeout%%3D%d",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode, d.StatementTimeout.Milliseconds(),
	)
}

// ListenerDSN is the keyword form lib/pq's listener connects with.
func (d DBConfig) ListenerDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
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

// =======================
// GORM LOGGER CUSTOM
// =======================

type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
	Log           *zap.Logger
}

func NewGormLogger(l *zap.Logger) gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
		Log:           l.Named("gorm"),
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.Log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.Log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.Log.Sugar().Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("file", utils.FileWithLineNum()),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && !errors.Is(err, gormLogger.ErrRecordNotFound):
		l.Log.Error("query failed", append(fields, zap.Error(err))...)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		l.Log.Warn("slow query", fields...)
	case l.LogLevel >= gormLogger.Info:
		l.Log.Debug("query", fields...)
	}
}
