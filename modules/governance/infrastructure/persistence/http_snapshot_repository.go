package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence/models"
)

// HTTPSnapshotRepository is the client-side gateway speaking the
// workspace endpoint protocol: GET returns the blob (404 means absent),
// POST replaces it, DELETE clears it.
type HTTPSnapshotRepository struct {
	client   *http.Client
	endpoint string
}

func NewHTTPSnapshotRepository(endpoint string, client *http.Client) *HTTPSnapshotRepository {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSnapshotRepository{client: client, endpoint: endpoint}
}

func (r *HTTPSnapshotRepository) Load(ctx context.Context) (snapshot.Snapshot, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "build workspace request")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "fetch workspace")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return snapshot.Empty(), false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return snapshot.Empty(), false, errors.Errorf("fetch workspace: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "read workspace body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return snapshot.Empty(), false, nil
	}

	var w models.Workspace
	if err := json.Unmarshal(body, &w); err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "decode workspace body")
	}
	return ToDomain(w), true, nil
}

func (r *HTTPSnapshotRepository) Save(ctx context.Context, s snapshot.Snapshot) error {
	data, err := json.Marshal(ToModel(s))
	if err != nil {
		return errors.Wrap(err, "encode workspace")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "build workspace request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "push workspace")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("push workspace: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (r *HTTPSnapshotRepository) Delete(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build workspace request")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "clear workspace")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("clear workspace: unexpected status %d", resp.StatusCode)
	}
	return nil
}
