// Package journal persists completed transactions and the raw event
// feed to SQLite, so a till restart does not lose the day's history.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/events"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/log"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/persistence/sqlite"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/session"
)

const schemaVersion = 1

// Journal is a SQLite-backed record of transactions and terminal
// events. All methods are safe for concurrent use; writes go through
// the pooled handle opened by Open.
type Journal struct {
	DB *sql.DB

	mu      sync.Mutex
	streams []*events.Stream
	wg      sync.WaitGroup
}

// Open initializes the journal database at dbPath, creating the schema
// when needed.
func Open(dbPath string) (*Journal, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	j := &Journal{DB: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration failed: %w", err)
	}
	return j, nil
}

// Close detaches any event streams, waits for in-flight writers and
// closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	streams := j.streams
	j.streams = nil
	j.mu.Unlock()

	for _, s := range streams {
		s.Close()
	}
	j.wg.Wait()
	return j.DB.Close()
}

func (j *Journal) migrate() error {
	var currentVersion int
	if err := j.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := j.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS transactions (
		invoice TEXT PRIMARY KEY,
		local_id TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount_minor INTEGER NOT NULL,
		refund INTEGER NOT NULL,
		completed_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_completed ON transactions(completed_at_ms);

	CREATE TABLE IF NOT EXISTS terminal_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		status TEXT NOT NULL,
		event_type TEXT NOT NULL,
		message TEXT NOT NULL,
		observed_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_terminal_events_observed ON terminal_events(observed_at_ms);
	`

	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordTransaction upserts one completed payment or refund. The
// invoice is the key: a linked refund shares the original payment's
// local id but always carries its own generated invoice.
func (j *Journal) RecordTransaction(ctx context.Context, rec session.PaymentRecord) error {
	query := `
	INSERT INTO transactions (invoice, local_id, currency, amount_minor, refund, completed_at_ms)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(invoice) DO UPDATE SET
		local_id = excluded.local_id,
		currency = excluded.currency,
		amount_minor = excluded.amount_minor,
		refund = excluded.refund,
		completed_at_ms = excluded.completed_at_ms
	`
	_, err := j.DB.ExecContext(ctx, query,
		rec.Invoice, rec.LocalID, rec.Currency, rec.Amount, boolToInt(rec.Refund), rec.CompletedAt.UnixMilli(),
	)
	return err
}

// Transactions returns the most recent records, newest first. limit <= 0
// means no limit.
func (j *Journal) Transactions(ctx context.Context, limit int) ([]session.PaymentRecord, error) {
	query := "SELECT local_id, invoice, currency, amount_minor, refund, completed_at_ms FROM transactions ORDER BY completed_at_ms DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []session.PaymentRecord
	for rows.Next() {
		var rec session.PaymentRecord
		var refund int
		var completedMs int64
		if err := rows.Scan(&rec.LocalID, &rec.Invoice, &rec.Currency, &rec.Amount, &refund, &completedMs); err != nil {
			return nil, err
		}
		rec.Refund = refund != 0
		rec.CompletedAt = time.UnixMilli(completedMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordEvent appends one normalized terminal event.
func (j *Journal) RecordEvent(ctx context.Context, ev events.Event) error {
	_, err := j.DB.ExecContext(ctx,
		"INSERT INTO terminal_events (category, status, event_type, message, observed_at_ms) VALUES (?, ?, ?, ?, ?)",
		string(ev.Category), ev.Status, string(ev.Type), ev.Message, time.Now().UnixMilli(),
	)
	return err
}

// EventCount reports how many events have been journaled for the
// category; empty category counts everything.
func (j *Journal) EventCount(ctx context.Context, cat events.Category) (int64, error) {
	var n int64
	var err error
	if cat == "" {
		err = j.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM terminal_events").Scan(&n)
	} else {
		err = j.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM terminal_events WHERE category = ?", string(cat)).Scan(&n)
	}
	return n, err
}

// Follow journals every event dispatched for the given categories
// until Close. Writes happen off the dispatch path on one goroutine
// per category; a full stream buffer drops events rather than stalling
// the terminal callback.
func (j *Journal) Follow(d *events.Dispatcher, cats ...events.Category) {
	logger := log.WithComponent("journal")

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, cat := range cats {
		s := d.StreamOf(cat)
		j.streams = append(j.streams, s)
		j.wg.Add(1)
		go func() {
			defer j.wg.Done()
			for ev := range s.C() {
				if err := j.RecordEvent(context.Background(), ev); err != nil {
					logger.Warn().
						Err(err).
						Str(log.FieldCategory, string(ev.Category)).
						Str(log.FieldEventType, string(ev.Type)).
						Msg("event write failed")
				}
			}
		}()
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
