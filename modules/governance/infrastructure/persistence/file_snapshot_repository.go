package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence/models"
)

// FileSnapshotRepository keeps the workspace in a local JSON file. Used
// standalone by the CLI and as the mirror side of the mirrored store.
type FileSnapshotRepository struct {
	path string
}

func NewFileSnapshotRepository(path string) *FileSnapshotRepository {
	return &FileSnapshotRepository{path: path}
}

func (r *FileSnapshotRepository) Load(ctx context.Context) (snapshot.Snapshot, bool, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return snapshot.Empty(), false, nil
	}
	if err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "read workspace file")
	}

	var w models.Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "decode workspace file")
	}
	return ToDomain(w), true, nil
}

func (r *FileSnapshotRepository) Save(ctx context.Context, s snapshot.Snapshot) error {
	data, err := json.MarshalIndent(ToModel(s), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode workspace")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return errors.Wrap(err, "create workspace dir")
	}

	// write-then-rename so readers never observe a partial file
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "write workspace file")
	}
	return errors.Wrap(os.Rename(tmp, r.path), "replace workspace file")
}

func (r *FileSnapshotRepository) Delete(ctx context.Context) error {
	err := os.Remove(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "remove workspace file")
}
