package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/atlas-erp/atlas-erp/internal/jobs"
)

// GLIntegrityJob recomputes per-entry debit and credit totals for
// posted journal entries and reports any drift. Drift here means a bug
// upstream: every entry is balance-checked before it is written.
type GLIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func NewGLIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes one integrity pass.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskGLIntegrity)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	query := `
		SELECT e.id,
			COALESCE(SUM(CASE WHEN l.type = 'DEBIT' THEN l.amount::numeric ELSE 0 END), 0)::text,
			COALESCE(SUM(CASE WHEN l.type = 'CREDIT' THEN l.amount::numeric ELSE 0 END), 0)::text
		FROM journal_entries e
		JOIN journal_lines l ON l.entry_id = e.id
		WHERE e.status = 'POSTED'
		GROUP BY e.id
		ORDER BY e.id DESC`
	args := []any{}
	if payload.Limit > 0 {
		query += " LIMIT $1"
		args = append(args, payload.Limit)
	}

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	var checked, drifted int
	for rows.Next() {
		var entryID int64
		var debitText, creditText string
		if err := rows.Scan(&entryID, &debitText, &creditText); err != nil {
			resultErr = err
			return resultErr
		}
		checked++
		debit, err := decimal.NewFromString(debitText)
		if err != nil {
			resultErr = fmt.Errorf("gl integrity: entry %d debit %q: %w", entryID, debitText, err)
			return resultErr
		}
		credit, err := decimal.NewFromString(creditText)
		if err != nil {
			resultErr = fmt.Errorf("gl integrity: entry %d credit %q: %w", entryID, creditText, err)
			return resultErr
		}
		if !debit.Equal(credit) {
			drifted++
			j.Logger.Error("unbalanced posted entry",
				slog.Int64("entry_id", entryID),
				slog.String("debit", debit.StringFixed(2)),
				slog.String("credit", credit.StringFixed(2)),
			)
		}
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	j.Metrics.AddDrift(drifted)
	j.Logger.Info("gl integrity check finished",
		slog.Int("checked", checked),
		slog.Int("drifted", drifted),
	)
	return nil
}
