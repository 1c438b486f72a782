package persistence

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence/models"
)

const workspaceSchema = `
CREATE TABLE IF NOT EXISTS access_insight_workspaces (
	workspace_id VARCHAR(100) PRIMARY KEY,
	data_json    TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PgSnapshotRepository keeps the whole workspace as one JSON row keyed
// by workspace id.
type PgSnapshotRepository struct {
	pool        *pgxpool.Pool
	workspaceID string
}

func NewPgSnapshotRepository(pool *pgxpool.Pool, workspaceID string) *PgSnapshotRepository {
	return &PgSnapshotRepository{pool: pool, workspaceID: workspaceID}
}

func (r *PgSnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, workspaceSchema); err != nil {
		return errors.Wrap(err, "ensure workspace table")
	}
	return nil
}

func (r *PgSnapshotRepository) Load(ctx context.Context) (snapshot.Snapshot, bool, error) {
	var data string
	err := r.pool.QueryRow(ctx,
		"SELECT data_json FROM access_insight_workspaces WHERE workspace_id = $1",
		r.workspaceID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return snapshot.Empty(), false, nil
	}
	if err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "load workspace")
	}

	var w models.Workspace
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "decode workspace")
	}
	return ToDomain(w), true, nil
}

func (r *PgSnapshotRepository) Save(ctx context.Context, s snapshot.Snapshot) error {
	data, err := json.Marshal(ToModel(s))
	if err != nil {
		return errors.Wrap(err, "encode workspace")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO access_insight_workspaces (workspace_id, data_json, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (workspace_id)
		DO UPDATE SET data_json = EXCLUDED.data_json, updated_at = now()`,
		r.workspaceID, string(data),
	)
	return errors.Wrap(err, "save workspace")
}

func (r *PgSnapshotRepository) Delete(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM access_insight_workspaces WHERE workspace_id = $1",
		r.workspaceID,
	)
	return errors.Wrap(err, "delete workspace")
}
