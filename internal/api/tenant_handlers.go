package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/api/helpers"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
)

// ListTenants returns every tenant.
func (s *Server) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.Store.ListTenants(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, tenants)
}

type createTenantRequest struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// CreateTenant inserts a new tenant, minting a fresh UUID if the caller
// didn't supply one.
func (s *Server) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	t := &store.Tenant{ID: req.ID, Slug: req.Slug}
	if err := s.Tenants.Create(r.Context(), t); err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, t)
}

type updateTenantRequest struct {
	Slug *string `json:"slug"`
}

// UpdateTenant patches a tenant's slug.
func (s *Server) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateTenantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.Tenants.ByID(r.Context(), id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "Tenant not found")
		return
	}
	if req.Slug != nil {
		t.Slug = *req.Slug
	}

	if err := s.Store.UpdateTenantSlug(r.Context(), t.ID, t.Slug); err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, t)
}

// DeleteTenant removes a tenant.
func (s *Server) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Tenants.Delete(r.Context(), id); err != nil {
		helpers.RespondJSON(w, http.StatusOK, statusResponse{
			Message: "Failed to delete tenant", Success: false,
		})
		return
	}
	helpers.RespondJSON(w, http.StatusOK, statusResponse{Message: "Deleted tenant", Success: true})
}
