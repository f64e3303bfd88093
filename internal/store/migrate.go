// Package store holds storage-layer primitives shared across backends:
// the sentinel not-found error and the golang-migrate runner.
package store

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// RunMigrations applies the migrations under migrationsDir/<driver> to
// the database identified by dsn. The driver is taken from the DSN
// scheme (e.g. "postgres"); a "+" suffix such as "postgres+pgx" is
// stripped before the lookup.
func RunMigrations(logger *zap.Logger, dsn, migrationsDir string) error {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return fmt.Errorf("store: empty data source name")
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("store: invalid data source name: %w", err)
	}

	driver := strings.ToLower(strings.Split(u.Scheme, "+")[0])
	migrationsPath := fmt.Sprintf("file://%s/%s", strings.TrimSuffix(migrationsDir, "/"), driver)

	logger.Info("migrate starting", zap.String("driver", driver), zap.String("host", u.Host), zap.String("path", migrationsPath))

	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("migrate: new: %w", err)
	}
	defer func() {
		serr, derr := m.Close()
		if serr != nil || derr != nil {
			logger.Warn("migrate close error", zap.Error(serr), zap.Error(derr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrate: no change", zap.String("driver", driver))
			return nil
		}
		return fmt.Errorf("migrate: up: %w", err)
	}

	logger.Info("migrate applied", zap.String("driver", driver))
	return nil
}
