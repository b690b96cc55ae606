package api

import (
	"encoding/json"
	"net/http"

	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
	"github.com/spigell/welfare-interviewer/internal/ranking"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

// CatalogueHandler exposes the dataset, the optimizer and the ranking engine
// without a session.
type CatalogueHandler struct {
	catalogue *programs.Catalogue
	optimizer *selection.Optimizer
	engine    *ranking.Engine
}

func NewCatalogueHandler(catalogue *programs.Catalogue, optimizer *selection.Optimizer, engine *ranking.Engine) *CatalogueHandler {
	return &CatalogueHandler{catalogue: catalogue, optimizer: optimizer, engine: engine}
}

type RankRequest struct {
	Profile map[string]any `json:"profile"`
	// Programs defaults to the whole catalogue when omitted.
	Programs []string `json:"programs"`
}

type RankResponse struct {
	Programs []string         `json:"programs"`
	Results  []ranking.Result `json:"results"`
}

type FieldsRequest struct {
	Asked      []string `json:"asked"`
	Eliminated []string `json:"eliminated"`
	Top        int      `json:"top"`
}

type FieldsResponse struct {
	Fields []string               `json:"fields"`
	Scores []selection.FieldScore `json:"scores"`
}

func (h *CatalogueHandler) Programs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalogue.All())
}

func (h *CatalogueHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := profile.FromMap(req.Profile)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	candidates := req.Programs
	if candidates == nil {
		candidates = h.catalogue.Programs()
	}

	results := h.engine.Rank(&p, candidates)
	writeJSON(w, http.StatusOK, RankResponse{
		Programs: ranking.IDs(results),
		Results:  results,
	})
}

func (h *CatalogueHandler) Fields(w http.ResponseWriter, r *http.Request) {
	var req FieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Top < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "top must not be negative"})
		return
	}
	if req.Top == 0 {
		req.Top = 1
	}

	asked := selection.NewSet(req.Asked...)
	eliminated := selection.NewSet(req.Eliminated...)

	scores := h.optimizer.Scores(asked, eliminated)
	if scores == nil {
		scores = []selection.FieldScore{}
	}

	writeJSON(w, http.StatusOK, FieldsResponse{
		Fields: h.optimizer.Select(asked, eliminated, req.Top),
		Scores: scores,
	})
}
