package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/accessinsight/accessinsight/pkg/application"
)

type HealthController struct{}

func NewHealthController() application.Controller {
	return &HealthController{}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}
