// Package store persists tracking records in a relational table through gorm.
//
// Postgres, SQL Server and SQLite are supported. Every write is a single
// statement; nothing spans more than one event.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres  = "postgres"
	DriverSQLServer = "sqlserver"
	DriverSQLite    = "sqlite"
)

const pingTimeout = 5 * time.Second

// Options configures Open.
type Options struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Debug logs every SQL statement.
	Debug bool `yaml:"debug"`
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, errors.New("database dsn is required")
	}

	var dialector gorm.Dialector
	switch strings.ToLower(opts.Driver) {
	case DriverPostgres, "":
		dialector = postgres.Open(opts.DSN)
	case DriverSQLServer:
		dialector = sqlserver.Open(opts.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	logMode := gormlogger.Silent
	if opts.Debug {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve sql db handle: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or alters the tracking table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&recordModel{}); err != nil {
		return fmt.Errorf("migrate %s: %w", recordModel{}.TableName(), err)
	}
	return nil
}

// Repository reads and writes tracking records.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewRepository wraps an open database.
func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"layer", "store",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("record store operation failed", fields...)
	return err
}
