package archive

import (
	"context"
	"database/sql"
	"time"

	"go-inspect/internal/config"
	"go-inspect/internal/features/operation"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Archive writes a compact audit row to Postgres whenever an operation
// reaches a terminal state. Configured via POSTGRES_URI; when unset the
// archive is disabled and every call is a no-op.
type Archive struct {
	db     *sql.DB
	logger *zap.Logger
}

const createTableStmt = `
CREATE TABLE IF NOT EXISTS operation_audit (
	id            TEXT PRIMARY KEY,
	type          TEXT NOT NULL,
	data_type     TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_by    TEXT,
	total         INTEGER NOT NULL,
	successful    INTEGER NOT NULL,
	failed        INTEGER NOT NULL,
	error_count   INTEGER NOT NULL,
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ,
	archived_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func NewArchive(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*Archive, error) {
	a := &Archive{logger: logger}

	if cfg.PostgresURI == "" {
		logger.Info("operation archive disabled, POSTGRES_URI not set")
		return a, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, err
	}
	a.db = db

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, createTableStmt)
			return err
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return a, nil
}

// OperationFinished upserts the terminal snapshot. Retried operations reuse
// their id, so a later terminal state overwrites the earlier audit row.
func (a *Archive) OperationFinished(ctx context.Context, op *operation.Operation) {
	if a.db == nil {
		return
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO operation_audit
			(id, type, data_type, status, created_by, total, successful, failed, error_count, started_at, completed_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status       = EXCLUDED.status,
			total        = EXCLUDED.total,
			successful   = EXCLUDED.successful,
			failed       = EXCLUDED.failed,
			error_count  = EXCLUDED.error_count,
			started_at   = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			archived_at  = EXCLUDED.archived_at`,
		op.ID.Hex(),
		string(op.Type),
		string(op.DataType),
		string(op.Status),
		op.CreatedBy,
		op.TotalRecords,
		op.SuccessfulRecords,
		op.FailedRecords,
		len(op.Errors),
		nullableTime(op.StartedAt),
		nullableTime(op.CompletedAt),
		time.Now(),
	)
	if err != nil {
		a.logger.Error("failed to archive operation",
			zap.String("operation_id", op.ID.Hex()),
			zap.Error(err))
	}
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
