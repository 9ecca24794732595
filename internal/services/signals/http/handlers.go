// Package http provides http transport for signals
package http

import (
	stdhttp "net/http"
	"strconv"

	"sigscore/internal/modkit/httpkit"
	"sigscore/internal/services/signals/domain"
	svc "sigscore/internal/services/signals/service"
)

// Register mounts signal endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// single signal through the dedup gate
	httpkit.PostJSON[domain.IngestInput](r, "/", h.ingest)

	// up to 1000 signals, independent outcomes
	httpkit.PostJSON[domain.BatchInput](r, "/batch", h.ingestBatch)

	// recent signals, filterable
	httpkit.Get(r, "/", h.list)

	// day buckets from the analytics mirror
	httpkit.Get(r, "/stats/daily", h.dailyStats)
}

type handlers struct{ svc svc.Service }

// @Summary Ingest a signal
// @Tags Signals
// @Accept json
// @Produce json
// @Param payload body domain.IngestInput true "Signal"
// @Success 200 {object} domain.IngestResult "ok"
// @Router /signals [post]
func (h *handlers) ingest(r *stdhttp.Request, in domain.IngestInput) (any, error) {
	return h.svc.Ingest(r.Context(), in)
}

// @Summary Ingest a batch of signals
// @Tags Signals
// @Accept json
// @Produce json
// @Param payload body domain.BatchInput true "Batch"
// @Success 200 {object} domain.BatchSummary "ok"
// @Router /signals/batch [post]
func (h *handlers) ingestBatch(r *stdhttp.Request, in domain.BatchInput) (any, error) {
	return h.svc.IngestBatch(r.Context(), in)
}

// @Summary List signals
// @Tags Signals
// @Produce json
// @Success 200 {array} domain.Signal "ok"
// @Router /signals [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return h.svc.List(r.Context(), domain.ListInput{
		AccountID: q.Get("account_id"),
		Source:    q.Get("source"),
		Type:      q.Get("type"),
		Limit:     limit,
		Offset:    offset,
	})
}

// @Summary Daily signal counts
// @Tags Signals
// @Produce json
// @Success 200 {array} domain.DailyStatRow "ok"
// @Router /signals/stats/daily [get]
func (h *handlers) dailyStats(r *stdhttp.Request) (any, error) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	return h.svc.DailyStats(r.Context(), days)
}
