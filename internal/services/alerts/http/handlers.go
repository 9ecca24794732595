// Package http provides http transport for alerting
package http

import (
	stdhttp "net/http"
	"strconv"

	"sigscore/internal/modkit/httpkit"
	"sigscore/internal/services/alerts/domain"
	svc "sigscore/internal/services/alerts/service"
)

// Register mounts alerting endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// rule configuration
	httpkit.PostJSON[domain.RuleInput](r, "/rules", h.create)
	httpkit.Get(r, "/rules", h.list)
	httpkit.Get(r, "/rules/{id}", h.get)
	httpkit.PutJSON[domain.RuleInput](r, "/rules/{id}", h.update)
	httpkit.Delete(r, "/rules/{id}", h.remove)

	// manual fire, bypasses enabled flag and suppression once
	httpkit.PostJSON[domain.TestInput](r, "/rules/{id}/test", h.test)

	// paginated firing history
	httpkit.Get(r, "/events", h.events)
}

type handlers struct{ svc svc.Service }

// @Summary Create an alert rule
// @Tags Alerts
// @Accept json
// @Produce json
// @Param payload body domain.RuleInput true "Rule"
// @Success 200 {object} domain.Rule "ok"
// @Router /alerts/rules [post]
func (h *handlers) create(r *stdhttp.Request, in domain.RuleInput) (any, error) {
	return h.svc.CreateRule(r.Context(), in)
}

// @Summary List alert rules
// @Tags Alerts
// @Produce json
// @Success 200 {array} domain.Rule "ok"
// @Router /alerts/rules [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	in := domain.ListRulesInput{Offset: queryInt(r, "offset"), Limit: queryInt(r, "limit")}
	if v := r.URL.Query().Get("enabled"); v != "" {
		enabled := v == "true"
		in.Enabled = &enabled
	}
	return h.svc.ListRules(r.Context(), in)
}

// @Summary Get an alert rule
// @Tags Alerts
// @Produce json
// @Param id path string true "Rule id"
// @Success 200 {object} domain.Rule "ok"
// @Router /alerts/rules/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.GetRule(r.Context(), httpkit.Param(r, "id"))
}

// @Summary Update an alert rule
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body domain.RuleInput true "Rule"
// @Success 200 {object} domain.Rule "ok"
// @Router /alerts/rules/{id} [put]
func (h *handlers) update(r *stdhttp.Request, in domain.RuleInput) (any, error) {
	return h.svc.UpdateRule(r.Context(), httpkit.Param(r, "id"), in)
}

// @Summary Delete an alert rule
// @Tags Alerts
// @Produce json
// @Param id path string true "Rule id"
// @Success 204 {string} string "no content"
// @Router /alerts/rules/{id} [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	if err := h.svc.DeleteRule(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary Test fire an alert rule
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body domain.TestInput true "Target account"
// @Success 200 {object} domain.Event "ok"
// @Router /alerts/rules/{id}/test [post]
func (h *handlers) test(r *stdhttp.Request, in domain.TestInput) (any, error) {
	return h.svc.TestFire(r.Context(), httpkit.Param(r, "id"), in)
}

// @Summary Alert firing history
// @Tags Alerts
// @Produce json
// @Success 200 {object} domain.EventPage "ok"
// @Router /alerts/events [get]
func (h *handlers) events(r *stdhttp.Request) (any, error) {
	return h.svc.Events(r.Context(), domain.ListEventsInput{
		RuleID:    r.URL.Query().Get("ruleId"),
		AccountID: r.URL.Query().Get("accountId"),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	})
}

func queryInt(r *stdhttp.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
