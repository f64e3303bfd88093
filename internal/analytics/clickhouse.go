// Package analytics mirrors Events into ClickHouse so operational
// questions ("how often does CLASS_FULL fire per box", "what's the
// p99 time-to-book after window open") can run as fast columnar scans
// instead of point queries against the operational Postgres store.
// Entirely optional: when ClickHouseConfig.Enabled is false, Mirror is
// nil everywhere it's wired and callers skip it.
package analytics

import (
	"context"
	"crypto/tls"
	"database/sql"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"wodbooker-go/internal/config"
	"wodbooker-go/internal/domain/event"
)

// Mirror is a connection to the analytics ClickHouse instance.
type Mirror struct {
	conn   *sql.DB
	logger *zap.Logger
}

// Connect opens the ClickHouse connection and ensures the events
// table exists.
func Connect(ctx context.Context, cfg config.ClickHouseConfig, logger *zap.Logger) (*Mirror, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		TLS: &tls.Config{InsecureSkipVerify: true},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 30 * time.Second,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	conn.SetMaxIdleConns(5)
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}

	m := &Mirror{conn: conn, logger: logger}
	if err := m.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the underlying connection.
func (m *Mirror) Close() error {
	return m.conn.Close()
}

func (m *Mirror) migrate(ctx context.Context) error {
	_, err := m.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reservation_events (
			reservation_id String,
			kind           String,
			message        String,
			booking_date   Date,
			created_at     DateTime
		) ENGINE = MergeTree()
		ORDER BY (reservation_id, created_at)
	`)
	return err
}

// RecordEvent inserts one Event row, called fire-and-forget by the
// event log writer after every successful Postgres append - a mirror
// failure is logged and never blocks the operational write path.
func (m *Mirror) RecordEvent(ctx context.Context, e event.Event) {
	_, err := m.conn.ExecContext(ctx, `
		INSERT INTO reservation_events (reservation_id, kind, message, booking_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ReservationID, string(e.Kind), e.Message, e.BookingDate, e.CreatedAt)
	if err != nil {
		m.logger.Warn("analytics: failed to mirror event", zap.Error(err), zap.String("reservation_id", e.ReservationID))
	}
}

// CountByKind returns how many events of each Kind have fired for a
// reservation since `since` - the building block behind a "why does
// this reservation keep failing" dashboard panel.
func (m *Mirror) CountByKind(ctx context.Context, reservationID string, since time.Time) (map[string]int64, error) {
	rows, err := m.conn.QueryContext(ctx, `
		SELECT kind, count() FROM reservation_events
		WHERE reservation_id = ? AND created_at >= ?
		GROUP BY kind
	`, reservationID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}
