package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/accessinsight/accessinsight/modules/governance/services"
	"github.com/accessinsight/accessinsight/pkg/application"
	"github.com/accessinsight/accessinsight/pkg/composables"
)

type InsightsController struct {
	state    *services.StateService
	insights *services.InsightService
}

func NewInsightsController(state *services.StateService, insights *services.InsightService) application.Controller {
	return &InsightsController{state: state, insights: insights}
}

func (c *InsightsController) Key() string {
	return "/api/insights"
}

func (c *InsightsController) Register(r *mux.Router) {
	r.HandleFunc("/api/insights", c.Local).Methods(http.MethodGet)
	r.HandleFunc("/api/insights/ai", c.AI).Methods(http.MethodPost)
}

func (c *InsightsController) Local(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.insights.Analyze(c.state.Snapshot()))
}

// AI is best-effort: a failed upstream call becomes a 502, never a
// state change.
func (c *InsightsController) AI(w http.ResponseWriter, r *http.Request) {
	report, err := c.insights.AnalyzeWithAI(r.Context(), c.state.Snapshot())
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("AI analysis failed")
		writeJSONError(w, http.StatusBadGateway, "AI_UNAVAILABLE", "AI analysis is unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
