// Package http provides http transport for identity resolution
package http

import (
	stdhttp "net/http"

	"sigscore/internal/modkit/httpkit"
	"sigscore/internal/services/identity/domain"
	svc "sigscore/internal/services/identity/service"
)

// Register mounts identity endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// identity graph for one contact
	httpkit.Get(r, "/{id}/identities", h.identities)

	// duplicate clusters across the org
	httpkit.Get(r, "/duplicates", h.duplicates)

	// irreversible merge into a primary
	httpkit.PostJSON[domain.MergeInput](r, "/merge", h.merge)

	// mine signal history for new identities
	httpkit.Post(r, "/{id}/enrich", h.enrich)
}

type handlers struct{ svc svc.Service }

// @Summary Identity graph for a contact
// @Tags Identity
// @Produce json
// @Param id path string true "Contact id"
// @Success 200 {array} domain.Identity "ok"
// @Router /contacts/{id}/identities [get]
func (h *handlers) identities(r *stdhttp.Request) (any, error) {
	return h.svc.Identities(r.Context(), httpkit.Param(r, "id"))
}

// @Summary Duplicate contact groups
// @Tags Identity
// @Produce json
// @Success 200 {array} domain.DuplicateGroup "ok"
// @Router /contacts/duplicates [get]
func (h *handlers) duplicates(r *stdhttp.Request) (any, error) {
	return h.svc.FindDuplicates(r.Context())
}

// @Summary Merge duplicate contacts
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body domain.MergeInput true "Merge"
// @Success 204 {string} string "no content"
// @Router /contacts/merge [post]
func (h *handlers) merge(r *stdhttp.Request, in domain.MergeInput) (any, error) {
	if err := h.svc.Merge(r.Context(), in); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary Enrich a contact from signal history
// @Tags Identity
// @Produce json
// @Param id path string true "Contact id"
// @Success 200 {object} domain.EnrichResult "ok"
// @Router /contacts/{id}/enrich [post]
func (h *handlers) enrich(r *stdhttp.Request) (any, error) {
	return h.svc.Enrich(r.Context(), httpkit.Param(r, "id"))
}
