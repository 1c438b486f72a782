package controllers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/accessinsight/accessinsight/modules/governance/domain/reconcile"
	"github.com/accessinsight/accessinsight/modules/governance/importing"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence/models"
	"github.com/accessinsight/accessinsight/modules/governance/presentation/controllers/dtos"
	"github.com/accessinsight/accessinsight/modules/governance/services"
	"github.com/accessinsight/accessinsight/pkg/application"
)

type WorkspaceController struct {
	state         *services.StateService
	export        *services.ExportService
	maxUploadSize int64
}

func NewWorkspaceController(
	state *services.StateService,
	export *services.ExportService,
	maxUploadSize int64,
) application.Controller {
	return &WorkspaceController{
		state:         state,
		export:        export,
		maxUploadSize: maxUploadSize,
	}
}

func (c *WorkspaceController) Key() string {
	return "/api/workspace"
}

func (c *WorkspaceController) Register(r *mux.Router) {
	r.HandleFunc("/api/workspace", c.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/workspace", c.Replace).Methods(http.MethodPost)
	r.HandleFunc("/api/workspace", c.Clear).Methods(http.MethodDelete)
	r.HandleFunc("/api/workspace/status", c.Status).Methods(http.MethodGet)
	r.HandleFunc("/api/workspace/import", c.Import).Methods(http.MethodPost)
	r.HandleFunc("/api/workspace/export", c.Export).Methods(http.MethodGet)
	r.HandleFunc("/api/workspace/users/{identifier}", c.UpdateUser).Methods(http.MethodPatch)
	r.HandleFunc("/api/workspace/users/{identifier}", c.DeleteUser).Methods(http.MethodDelete)
}

func (c *WorkspaceController) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, persistence.ToModel(c.state.Snapshot()))
}

func (c *WorkspaceController) Replace(w http.ResponseWriter, r *http.Request) {
	var payload models.Workspace
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, c.maxUploadSize)).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not a valid workspace")
		return
	}
	c.state.ReplaceAll(r.Context(), persistence.ToDomain(payload))
	writeJSON(w, http.StatusOK, persistence.ToModel(c.state.Snapshot()))
}

func (c *WorkspaceController) Clear(w http.ResponseWriter, r *http.Request) {
	if err := c.state.Clear(r.Context()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "CLEAR_FAILED", "failed to clear workspace")
		return
	}
	writeJSON(w, http.StatusOK, persistence.ToModel(c.state.Snapshot()))
}

func (c *WorkspaceController) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dtos.StatusResponse{Status: string(c.state.Status())})
}

func (c *WorkspaceController) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(c.maxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_UPLOAD", "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	var rows []reconcile.Row
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		rows, err = importing.ParseCSV(file)
	default:
		rows, err = importing.ParseXLSX(file)
	}
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "UNREADABLE_SHEET", "could not read the uploaded spreadsheet", map[string]string{
			"file": header.Filename,
		})
		return
	}

	summary := c.state.Import(r.Context(), rows, r.FormValue("system"))
	writeJSON(w, http.StatusOK, dtos.ImportSummaryResponse{
		RowsMerged:   summary.RowsMerged,
		NewUsers:     summary.NewUsers,
		UsersTotal:   summary.UsersTotal,
		SystemsTotal: summary.SystemsTotal,
	})
}

func (c *WorkspaceController) Export(w http.ResponseWriter, r *http.Request) {
	buf, err := c.export.BuildWorkbook(c.state.Snapshot())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "EXPORT_FAILED", "failed to build report")
		return
	}

	filename := "access-report-" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (c *WorkspaceController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	var patch dtos.UserPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not a valid user patch")
		return
	}

	ok := c.state.UpdateUser(r.Context(), identifier, services.UserPatch{
		DisplayName: patch.Name,
		Company:     patch.Company,
	})
	if !ok {
		writeJSONError(w, http.StatusNotFound, "USER_NOT_FOUND", "no user with that identifier", map[string]string{
			"identifier": identifier,
		})
		return
	}
	writeJSON(w, http.StatusOK, persistence.ToModel(c.state.Snapshot()))
}

func (c *WorkspaceController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	if !c.state.DeleteUser(r.Context(), identifier) {
		writeJSONError(w, http.StatusNotFound, "USER_NOT_FOUND", "no user with that identifier", map[string]string{
			"identifier": identifier,
		})
		return
	}
	writeJSON(w, http.StatusOK, persistence.ToModel(c.state.Snapshot()))
}
