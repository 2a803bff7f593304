package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
)

// Ledger records batches and every per-document state transition.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Summary is the stored view of one batch.
type Summary struct {
	BatchID    string
	Task       string
	Documents  int
	Succeeded  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
	// States counts documents by their latest recorded state.
	States map[constants.DocumentState]int
}

func (l *Ledger) StartBatch(ctx context.Context, id, task string, documents int) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO batches (id, task, documents, started_at) VALUES (?, ?, ?, ?)`,
		id, task, documents, stamp(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite: insert batch %s: %w", id, err)
	}
	return nil
}

func (l *Ledger) RecordState(ctx context.Context, batchID, file string, state constants.DocumentState, detail string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO transitions (batch_id, file, state, detail, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		batchID, file, string(state), detail, stamp(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite: record state %s/%s: %w", batchID, file, err)
	}
	return nil
}

func (l *Ledger) FinishBatch(ctx context.Context, id string, succeeded, failed int) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE batches SET succeeded = ?, failed = ?, finished_at = ? WHERE id = ?`,
		succeeded, failed, stamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("sqlite: finish batch %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("batch %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// History lists the states recorded for one file in order.
func (l *Ledger) History(ctx context.Context, batchID, file string) ([]constants.DocumentState, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT state FROM transitions WHERE batch_id = ? AND file = ? ORDER BY seq`, batchID, file)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history: %w", err)
	}
	defer rows.Close()
	var out []constants.DocumentState
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, constants.DocumentState(s))
	}
	return out, rows.Err()
}

func (l *Ledger) BatchSummary(ctx context.Context, id string) (Summary, error) {
	s := Summary{BatchID: id, States: map[constants.DocumentState]int{}}
	var started string
	var finished sql.NullString
	err := l.db.QueryRowContext(ctx,
		`SELECT task, documents, succeeded, failed, started_at, finished_at FROM batches WHERE id = ?`, id).
		Scan(&s.Task, &s.Documents, &s.Succeeded, &s.Failed, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("batch %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return s, fmt.Errorf("sqlite: batch %s: %w", id, err)
	}
	s.StartedAt = parseStamp(started)
	if finished.Valid {
		s.FinishedAt = parseStamp(finished.String)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT t.state, COUNT(*) FROM transitions t
		WHERE t.batch_id = ? AND t.seq = (
			SELECT MAX(seq) FROM transitions WHERE batch_id = t.batch_id AND file = t.file)
		GROUP BY t.state`, id)
	if err != nil {
		return s, fmt.Errorf("sqlite: state counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return s, err
		}
		s.States[constants.DocumentState(state)] = n
	}
	return s, rows.Err()
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseStamp(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}
