package handlers

import (
	"net/http"

	"github.com/advwatch/iapd/backend/internal/contracts"
	"github.com/advwatch/iapd/backend/internal/riskscore"
	"github.com/advwatch/iapd/backend/pkg/logger"
	"github.com/advwatch/iapd/backend/pkg/redis"
)

// StatsHandler serves the dashboard aggregate endpoints. Aggregates are
// cached in Redis when it is enabled; every handler degrades to a direct
// query when it is not.
type StatsHandler struct {
	scores *riskscore.Repository
	cache  *redis.Cache
	logger *logger.Logger
}

func NewStatsHandler(scores *riskscore.Repository, cache *redis.Cache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		scores: scores,
		cache:  cache,
		logger: log,
	}
}

// StatsResponse is the dashboard headline block
type StatsResponse struct {
	TotalFirms int                            `json:"total_firms"`
	Categories map[contracts.RiskCategory]int `json:"categories"`
}

// GetStats returns firm totals and the category distribution
// GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resp StatsResponse
	err := h.cache.GetOrSet(ctx, redis.StatsKey(), &resp, redis.TTLMedium, func() (interface{}, error) {
		counts, err := h.scores.CategoryCounts(ctx)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		return &StatsResponse{TotalFirms: total, Categories: counts}, nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load stats")
		respondError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetCategories returns the category distribution only
// GET /api/stats/categories
func (h *StatsHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.scores.CategoryCounts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load category counts")
		respondError(w, http.StatusInternalServerError, "Failed to load category counts")
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// GetTrends returns the average score per filing period
// GET /api/stats/trends
func (h *StatsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var trends []*riskscore.ScoreTrend
	err := h.cache.GetOrSet(ctx, "trends", &trends, redis.TTLDaily, func() (interface{}, error) {
		t, err := h.scores.Trends(ctx)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load trends")
		respondError(w, http.StatusInternalServerError, "Failed to load trends")
		return
	}

	respondJSON(w, http.StatusOK, trends)
}
