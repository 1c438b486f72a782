package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/domain/reconcile"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/pkg/eventbus"
	"github.com/accessinsight/accessinsight/pkg/metrics"
)

type SaveStatus string

const (
	StatusOK     SaveStatus = "ok"
	StatusSaving SaveStatus = "saving"
	StatusError  SaveStatus = "error"
)

type ImportSummary struct {
	RowsMerged   int
	NewUsers     int
	UsersTotal   int
	SystemsTotal int
}

type UserPatch struct {
	DisplayName *string
	Company     *string
}

type StateServiceOptions struct {
	Repository   snapshot.Repository
	EventBus     eventbus.EventBus
	Logger       *logrus.Logger
	Policy       identity.Policy
	SaveDebounce time.Duration
}

// StateService owns the authoritative in-memory snapshot. All reads and
// mutations go through its mutex; persistence happens asynchronously
// after a quiet period, driven by the events each mutation publishes.
type StateService struct {
	repo     snapshot.Repository
	bus      eventbus.EventBus
	logger   *logrus.Logger
	policy   identity.Policy
	debounce time.Duration

	mu      sync.Mutex
	current snapshot.Snapshot
	status  SaveStatus

	timerMu   sync.Mutex
	saveTimer *time.Timer
}

func NewStateService(opts StateServiceOptions) *StateService {
	s := &StateService{
		repo:     opts.Repository,
		bus:      opts.EventBus,
		logger:   opts.Logger,
		policy:   opts.Policy,
		debounce: opts.SaveDebounce,
		current:  snapshot.Empty(),
		status:   StatusOK,
	}

	// the persister reacts to state-change events rather than being
	// called inline, so every mutation path shares one save pipeline
	s.bus.Subscribe(func(e ImportedEvent) { s.scheduleSave() })
	s.bus.Subscribe(func(e StateReplacedEvent) { s.scheduleSave() })

	return s
}

// Load primes the in-memory state from the repository. An absent
// snapshot leaves the empty default in place.
func (s *StateService) Load(ctx context.Context) error {
	loaded, found, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if found {
		s.current = loaded
	}
	s.mu.Unlock()
	return nil
}

func (s *StateService) Snapshot() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *StateService) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Import merges a normalized batch into the current state and returns
// counts for the caller's summary.
func (s *StateService) Import(ctx context.Context, rows []reconcile.Row, fallbackSystem string) ImportSummary {
	importedAt := time.Now().UTC()

	s.mu.Lock()
	before := len(s.current.Users)
	next := reconcile.Reconcile(s.current, rows, importedAt, fallbackSystem, s.policy)
	s.current = next
	s.mu.Unlock()

	metrics.ImportsTotal.Inc()
	metrics.ImportRowsTotal.Add(float64(len(rows)))

	systems := make([]string, 0, len(next.Systems))
	for _, sys := range next.Systems {
		systems = append(systems, sys.Name())
	}

	summary := ImportSummary{
		RowsMerged:   len(rows),
		NewUsers:     len(next.Users) - before,
		UsersTotal:   len(next.Users),
		SystemsTotal: len(next.Systems),
	}

	s.bus.Publish(ImportedEvent{
		Result:   next.Clone(),
		Rows:     summary.RowsMerged,
		NewUsers: summary.NewUsers,
		Systems:  systems,
	})
	return summary
}

// ReplaceAll swaps the entire snapshot, e.g. a JSON restore.
func (s *StateService) ReplaceAll(ctx context.Context, next snapshot.Snapshot) {
	s.mu.Lock()
	s.current = next.Clone()
	s.mu.Unlock()

	s.bus.Publish(StateReplacedEvent{Result: next.Clone()})
}

// Clear wipes the workspace in memory and in the store immediately,
// bypassing the debounce so a pending save cannot resurrect the data.
func (s *StateService) Clear(ctx context.Context) error {
	s.cancelPendingSave()

	s.mu.Lock()
	s.current = snapshot.Empty()
	s.mu.Unlock()

	err := s.repo.Delete(ctx)

	s.mu.Lock()
	if err != nil {
		s.status = StatusError
	} else {
		s.status = StatusOK
	}
	s.mu.Unlock()

	s.bus.Publish(ClearedEvent{})
	return err
}

// DeleteUser removes one user by identifier and recomputes the
// registry. Returns false when no such user exists.
func (s *StateService) DeleteUser(ctx context.Context, identifier string) bool {
	key := identity.CanonicalKey(identifier)

	s.mu.Lock()
	found := false
	kept := s.current.Users[:0:0]
	for _, u := range s.current.Users {
		if u.CanonicalKey() == key {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	s.current = snapshot.Snapshot{
		Users:   kept,
		Systems: reconcile.RebuildRegistry(kept, s.current.Systems),
	}
	next := s.current.Clone()
	s.mu.Unlock()

	s.bus.Publish(StateReplacedEvent{Result: next})
	return true
}

// UpdateUser applies an explicit edit to display name and/or company.
// Unlike imports, edits may overwrite any established value.
func (s *StateService) UpdateUser(ctx context.Context, identifier string, patch UserPatch) bool {
	key := identity.CanonicalKey(identifier)

	s.mu.Lock()
	found := false
	for i, u := range s.current.Users {
		if u.CanonicalKey() != key {
			continue
		}
		if patch.DisplayName != nil && strings.TrimSpace(*patch.DisplayName) != "" {
			u = u.WithDisplayName(*patch.DisplayName)
		}
		if patch.Company != nil {
			u = u.WithCompany(*patch.Company)
		}
		s.current.Users[i] = u
		found = true
		break
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	next := s.current.Clone()
	s.mu.Unlock()

	s.bus.Publish(StateReplacedEvent{Result: next})
	return true
}

// SaveNow flushes any pending debounced save synchronously.
func (s *StateService) SaveNow(ctx context.Context) error {
	s.cancelPendingSave()
	return s.save(ctx)
}

// StartPolling reloads the stored snapshot on the given interval until
// the context is cancelled. A reload racing a local edit is
// last-write-wins at snapshot granularity.
func (s *StateService) StartPolling(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loaded, found, err := s.repo.Load(ctx)
				if err != nil {
					if s.logger != nil {
						s.logger.WithError(err).Warn("workspace refresh failed")
					}
					continue
				}
				if !found {
					continue
				}
				s.mu.Lock()
				s.current = loaded
				s.mu.Unlock()
			}
		}
	}()
}

func (s *StateService) scheduleSave() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.debounce, func() {
		if err := s.save(context.Background()); err != nil && s.logger != nil {
			s.logger.WithError(err).Error("debounced workspace save failed")
		}
	})
}

func (s *StateService) cancelPendingSave() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}

// save persists the current snapshot. Failures flip the status flag but
// never roll back in-memory state, and are not retried automatically.
func (s *StateService) save(ctx context.Context) error {
	s.mu.Lock()
	s.status = StatusSaving
	current := s.current.Clone()
	s.mu.Unlock()

	err := s.repo.Save(ctx, current)

	s.mu.Lock()
	if err != nil {
		s.status = StatusError
	} else {
		s.status = StatusOK
	}
	s.mu.Unlock()

	if err != nil {
		metrics.SnapshotSavesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.SnapshotSavesTotal.WithLabelValues("ok").Inc()
	return nil
}
