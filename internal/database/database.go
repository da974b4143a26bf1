package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"conecta-ongs/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health(ctx context.Context) map[string]string

	// DB exposes the pool to the repositories.
	DB() *sqlx.DB

	// Close terminates the database connection.
	Close() error
}

type service struct {
	db     *sqlx.DB
	name   string
	logger *slog.Logger
}

func ConnString(cfg config.Database) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode, cfg.Schema,
	)
}

func New(ctx context.Context, cfg config.Database, logger *slog.Logger) (Service, error) {
	return Open(ctx, ConnString(cfg), logger)
}

// Open connects with the pgx driver and applies pending migrations.
func Open(ctx context.Context, connStr string, logger *slog.Logger) (Service, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	var name string
	if err := db.GetContext(ctx, &name, "SELECT current_database()"); err != nil {
		name = "unknown"
	}
	return &service{db: db, name: name, logger: logger}, nil
}

func RunMigrations(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

func (s *service) DB() *sqlx.DB {
	return s.db
}

// Health pings the database and reports pool statistics.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.logger.Error("db down", "error", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

func (s *service) Close() error {
	s.logger.Info("Disconnected from database", "database", s.name)
	return s.db.Close()
}
