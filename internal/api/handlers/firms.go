package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/advwatch/iapd/backend/internal/contracts"
	"github.com/advwatch/iapd/backend/internal/history"
	"github.com/advwatch/iapd/backend/internal/riskscore"
	"github.com/advwatch/iapd/backend/pkg/logger"
	"github.com/advwatch/iapd/backend/pkg/redis"
)

// FirmHandler serves the per-firm dashboard endpoints
type FirmHandler struct {
	scores  *riskscore.Repository
	filings *history.Repository
	cache   *redis.Cache
	logger  *logger.Logger
}

func NewFirmHandler(scores *riskscore.Repository, filings *history.Repository, cache *redis.Cache, log *logger.Logger) *FirmHandler {
	return &FirmHandler{
		scores:  scores,
		filings: filings,
		cache:   cache,
		logger:  log,
	}
}

// ListFirms returns the paginated firm listing
// GET /api/firms?category=High&region=NYRO&sort=raum&order=asc&limit=50&offset=0
func (h *FirmHandler) ListFirms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := riskscore.ListFilter{
		Category:  q.Get("category"),
		Region:    q.Get("region"),
		SortBy:    q.Get("sort"),
		Ascending: q.Get("order") == "asc",
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	firms, err := h.scores.ListFirms(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list firms")
		respondError(w, http.StatusInternalServerError, "Failed to list firms")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"firms":  firms,
		"count":  len(firms),
		"offset": filter.Offset,
	})
}

// TopFirms returns the highest-risk firms
// GET /api/firms/top?n=20
func (h *FirmHandler) TopFirms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n <= 0 || n > 100 {
		n = 20
	}

	var firms []*riskscore.FirmSummary
	err := h.cache.GetOrSet(ctx, redis.TopFirmsKey(n), &firms, redis.TTLMedium, func() (interface{}, error) {
		f, err := h.scores.TopFirms(ctx, n)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load top firms")
		respondError(w, http.StatusInternalServerError, "Failed to load top firms")
		return
	}

	respondJSON(w, http.StatusOK, firms)
}

// FirmDetail is the full drill-down view of one firm
type FirmDetail struct {
	CRD     int64                        `json:"crd"`
	Scores  []*contracts.RiskScoreRecord `json:"scores"`
	Changes []*contracts.ChangeRecord    `json:"changes"`
}

// GetFirm returns one firm's score and change history
// GET /api/firms/{crd}
func (h *FirmHandler) GetFirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	crd, err := strconv.ParseInt(mux.Vars(r)["crd"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid CRD")
		return
	}

	var detail FirmDetail
	err = h.cache.GetOrSet(ctx, redis.FirmDetailKey(crd), &detail, redis.TTLShort, func() (interface{}, error) {
		scores, err := h.scores.FirmScores(ctx, crd)
		if err != nil {
			return nil, err
		}
		changes, err := h.filings.FirmChanges(ctx, crd)
		if err != nil {
			return nil, err
		}
		return &FirmDetail{CRD: crd, Scores: scores, Changes: changes}, nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load firm detail")
		respondError(w, http.StatusInternalServerError, "Failed to load firm")
		return
	}
	if len(detail.Scores) == 0 {
		respondError(w, http.StatusNotFound, "Firm not found")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}
