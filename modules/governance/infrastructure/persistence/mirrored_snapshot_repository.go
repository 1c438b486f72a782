package persistence

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
)

// MirroredSnapshotRepository writes every save to a remote store and a
// local mirror. Loads prefer the remote; when it is unreachable the
// mirror answers instead, so the tool keeps working offline. A failing
// mirror never fails the operation.
type MirroredSnapshotRepository struct {
	remote snapshot.Repository
	mirror snapshot.Repository
	log    *logrus.Logger
}

func NewMirroredSnapshotRepository(remote, mirror snapshot.Repository, log *logrus.Logger) *MirroredSnapshotRepository {
	return &MirroredSnapshotRepository{remote: remote, mirror: mirror, log: log}
}

func (r *MirroredSnapshotRepository) Load(ctx context.Context) (snapshot.Snapshot, bool, error) {
	s, found, err := r.remote.Load(ctx)
	if err == nil {
		if found {
			if mirrorErr := r.mirror.Save(ctx, s); mirrorErr != nil && r.log != nil {
				r.log.WithError(mirrorErr).Warn("failed to refresh workspace mirror")
			}
		}
		return s, found, nil
	}

	if r.log != nil {
		r.log.WithError(err).Warn("remote workspace unreachable, falling back to mirror")
	}
	return r.mirror.Load(ctx)
}

func (r *MirroredSnapshotRepository) Save(ctx context.Context, s snapshot.Snapshot) error {
	if err := r.mirror.Save(ctx, s); err != nil && r.log != nil {
		r.log.WithError(err).Warn("failed to save workspace mirror")
	}
	return r.remote.Save(ctx, s)
}

func (r *MirroredSnapshotRepository) Delete(ctx context.Context) error {
	if err := r.mirror.Delete(ctx); err != nil && r.log != nil {
		r.log.WithError(err).Warn("failed to clear workspace mirror")
	}
	return r.remote.Delete(ctx)
}
