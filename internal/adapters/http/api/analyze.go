package api

import (
	"net/http"

	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/pkg/logger"
)

// Query parameters of /analyze.
const (
	paramClientName = "client_name"
	paramFirstName  = "first_name"
	paramMiddleName = "middle_name"
	paramLastName   = "last_name"
	paramSuffix     = "suffix"
)

// AnalyzeHandler scores one respondent per request.
type AnalyzeHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies, l logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, logger: l}
}

// HandleAnalyze handles GET /analyze requests. Either client_name or the
// split first/middle/last/suffix parameters identify the respondent.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	id := model.Identity{
		ClientName: q.Get(paramClientName),
		First:      q.Get(paramFirstName),
		Middle:     q.Get(paramMiddleName),
		Last:       q.Get(paramLastName),
		Suffix:     q.Get(paramSuffix),
	}

	assessment, err := h.deps.Analyze(ctx, id)
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error(ctx, "analyze failed", logger.String("code", code), logger.Error(err))
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}
