package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence/models"
	"github.com/accessinsight/accessinsight/modules/governance/presentation/controllers"
	"github.com/accessinsight/accessinsight/modules/governance/services"
	"github.com/accessinsight/accessinsight/pkg/composables"
	"github.com/accessinsight/accessinsight/pkg/eventbus"
)

type memRepository struct {
	mu     sync.Mutex
	stored *snapshot.Snapshot
}

func (m *memRepository) Load(ctx context.Context) (snapshot.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return snapshot.Empty(), false, nil
	}
	return m.stored.Clone(), true, nil
}

func (m *memRepository) Save(ctx context.Context, s snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := s.Clone()
	m.stored = &clone
	return nil
}

func (m *memRepository) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = nil
	return nil
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	state := services.NewStateService(services.StateServiceOptions{
		Repository:   &memRepository{},
		EventBus:     eventbus.NewEventPublisher(logger),
		Logger:       logger,
		Policy:       identity.DefaultPolicy(),
		SaveDebounce: time.Hour,
	})

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := composables.WithLogger(req.Context(), logrus.NewEntry(logger))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	controllers.NewWorkspaceController(state, services.NewExportService(identity.DefaultPolicy()), 1<<20).Register(r)
	controllers.NewInsightsController(state, services.NewInsightService(services.InsightServiceOptions{})).Register(r)
	controllers.NewHealthController().Register(r)
	return r
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func importCSV(t *testing.T, r *mux.Router, csv, system string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "permissions.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	if system != "" {
		require.NoError(t, mw.WriteField("system", system))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workspace/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWorkspaceController_EmptyDefault(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/workspace", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var w models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Empty(t, w.Users)
	assert.Empty(t, w.Systems)
	assert.Contains(t, rec.Body.String(), `"users":[]`)
	assert.Contains(t, rec.Body.String(), `"systems":[]`)
}

func TestWorkspaceController_ImportFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := importCSV(t, r, "Email,Perfil\njoao@acme.com,Admin\nana@corp.io,Viewer\n", "ERP")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary["rowsMerged"])
	assert.Equal(t, 2, summary["newUsers"])
	assert.Equal(t, 1, summary["systemsTotal"])

	rec = doJSON(t, r, http.MethodGet, "/api/workspace", nil)
	var w models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	require.Len(t, w.Users, 2)
	assert.Equal(t, "joao@acme.com", w.Users[0].Email)
	require.Len(t, w.Systems, 1)
	assert.Equal(t, "ERP", w.Systems[0].Name)
	assert.Equal(t, 2, w.Systems[0].UserCount)
}

func TestWorkspaceController_ImportMissingFile(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("system", "ERP"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workspace/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_FILE")
}

func TestWorkspaceController_ImportUnreadableWorkbook(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "broken.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("definitely not a zip"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workspace/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWorkspaceController_ReplaceAndClear(t *testing.T) {
	r := newTestRouter(t)

	payload := models.Workspace{
		Users: []models.User{{
			Email: "restored@corp.io",
			Name:  "Restored",
			Accesses: []models.Access{
				{SystemName: "CRM", Profile: "Editor", ImportedAt: time.Now().UTC()},
			},
		}},
		Systems: []models.System{{ID: "crm-1", Name: "CRM", UserCount: 1}},
	}

	rec := doJSON(t, r, http.MethodPost, "/api/workspace", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/workspace", nil)
	var w models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	require.Len(t, w.Users, 1)
	assert.Equal(t, "restored@corp.io", w.Users[0].Email)

	rec = doJSON(t, r, http.MethodDelete, "/api/workspace", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/workspace", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Empty(t, w.Users)
}

func TestWorkspaceController_ReplaceRejectsGarbage(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workspace", strings.NewReader("{nope"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_BODY")
}

func TestWorkspaceController_Status(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/workspace/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWorkspaceController_Export(t *testing.T) {
	r := newTestRouter(t)
	importCSV(t, r, "Email,Perfil\njoao@acme.com,Admin\n", "ERP")

	rec := doJSON(t, r, http.MethodGet, "/api/workspace/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"),
	)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	rows, err := f.GetRows("Access Report")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "joao@acme.com", rows[1][1])
}

func TestWorkspaceController_UserOperations(t *testing.T) {
	r := newTestRouter(t)
	importCSV(t, r, "Email,Perfil\njoao@acme.com,Admin\nana@corp.io,Viewer\n", "ERP")

	name := "Joao Prado"
	rec := doJSON(t, r, http.MethodPatch, "/api/workspace/users/joao@acme.com", map[string]any{"name": name})
	require.Equal(t, http.StatusOK, rec.Code)

	var w models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Equal(t, "Joao Prado", w.Users[0].Name)

	rec = doJSON(t, r, http.MethodDelete, "/api/workspace/users/ana@corp.io", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Len(t, w.Users, 1)

	rec = doJSON(t, r, http.MethodDelete, "/api/workspace/users/ghost@corp.io", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsightsController_Local(t *testing.T) {
	r := newTestRouter(t)
	importCSV(t, r, "Email,Perfil\nroot@acme.com,Super Admin\n", "ERP")

	rec := doJSON(t, r, http.MethodGet, "/api/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var insights []services.Insight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insights))
	require.NotEmpty(t, insights)
	assert.Equal(t, "elevated-privileges", insights[0].Rule)
}

func TestInsightsController_AIUnconfigured(t *testing.T) {
	r := newTestRouter(t)
	importCSV(t, r, "Email,Perfil\njoao@acme.com,Admin\n", "ERP")

	rec := doJSON(t, r, http.MethodPost, "/api/insights/ai", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthController(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
