// Package store selects the record store backend from configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/store/postgres"
	"github.com/wonny/evlq/internal/store/sqlite"
	"github.com/wonny/evlq/pkg/config"
	"github.com/wonny/evlq/pkg/database"
	"github.com/wonny/evlq/pkg/logger"
)

// ErrUnsupportedDSN is returned when DATABASE_URL is neither empty nor a postgres DSN
var ErrUnsupportedDSN = errors.New("unsupported database url")

// Backend names reported by Open
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Open returns the configured store.
// An empty DATABASE_URL opens the embedded SQLite file; a postgres DSN opens a pgx pool.
// ⭐ SSOT: 저장소 백엔드 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.Store, string, error) {
	if cfg.Database.UsesSQLite() {
		db, err := database.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite store: %w", err)
		}
		log.WithField("path", cfg.Database.SQLitePath).Info("Using embedded SQLite store")
		return sqlite.New(db), BackendSQLite, nil
	}

	if !IsPostgresURL(cfg.Database.URL) {
		return nil, "", fmt.Errorf("%w: expected postgres:// or postgresql://", ErrUnsupportedDSN)
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("open postgres store: %w", err)
	}
	log.Info("Using PostgreSQL store")
	return postgres.New(db.Pool), BackendPostgres, nil
}

// IsPostgresURL reports whether url has a postgres scheme
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
