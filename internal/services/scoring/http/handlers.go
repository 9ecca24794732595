// Package http provides http transport for scoring
package http

import (
	stdhttp "net/http"
	"strconv"

	"sigscore/internal/modkit/httpkit"
	"sigscore/internal/services/scoring/domain"
	svc "sigscore/internal/services/scoring/service"
)

// Register mounts scoring endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// current snapshot
	httpkit.Get(r, "/{id}/score", h.get)

	// synchronous recompute
	httpkit.Post(r, "/{id}/score/recompute", h.recompute)

	// top accounts by score
	httpkit.Get(r, "/top", h.top)
}

type handlers struct{ svc svc.Service }

// @Summary Current account score
// @Tags Scoring
// @Produce json
// @Param id path string true "Account id"
// @Success 200 {object} domain.AccountScore "ok"
// @Router /accounts/{id}/score [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.Param(r, "id"))
}

// @Summary Recompute an account score
// @Tags Scoring
// @Produce json
// @Param id path string true "Account id"
// @Success 200 {object} domain.AccountScore "ok"
// @Router /accounts/{id}/score/recompute [post]
func (h *handlers) recompute(r *stdhttp.Request) (any, error) {
	return h.svc.Compute(r.Context(), httpkit.Param(r, "id"))
}

// @Summary Top accounts by score
// @Tags Scoring
// @Produce json
// @Success 200 {array} domain.AccountScore "ok"
// @Router /accounts/top [get]
func (h *handlers) top(r *stdhttp.Request) (any, error) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return h.svc.Top(r.Context(), domain.TopInput{
		Tier:  r.URL.Query().Get("tier"),
		Limit: limit,
	})
}
