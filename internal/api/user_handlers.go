package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/api/helpers"
	apimiddleware "github.com/prefeitura-rio/prefect-auth-proxy/internal/api/middleware"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
)

type userOut struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	IsActive    bool       `json:"is_active"`
	IsAdmin     bool       `json:"is_admin"`
	TokenExpiry *time.Time `json:"token_expiry,omitempty"`
	Scopes      *string    `json:"scopes,omitempty"`
}

func toUserOut(u *store.User) userOut {
	return userOut{
		ID:          u.ID,
		Username:    u.Username,
		IsActive:    u.IsActive,
		IsAdmin:     u.IsAdmin,
		TokenExpiry: u.TokenExpiry,
		Scopes:      u.Scopes,
	}
}

type statusResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// resolveUserID maps a path "{id}" of "me" or a numeric user ID to the
// target user ID, enforcing the same admin-bypass rule as
// original_source/app/routers/user.py: any caller may act on themselves,
// only an admin may act on someone else.
func resolveUserID(r *http.Request, callerID int64, isAdmin bool) (int64, error) {
	raw := chi.URLParam(r, "id")
	if raw == "me" {
		return callerID, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if !isAdmin && id != callerID {
		return 0, errForbidden
	}
	return id, nil
}

var errForbidden = &forbiddenError{}

type forbiddenError struct{}

func (*forbiddenError) Error() string { return "forbidden" }

// newToken mints a fresh opaque bearer token, matching
// original_source/app/routers/user.py's create_user, which assigns a new
// uuid4() token. Login never rotates it; only user creation does.
func newToken() string {
	return uuid.NewString()
}

// ListUsers is admin-only.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !apimiddleware.GetIsAdmin(r.Context()) {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	users, err := s.Store.ListUsers(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]userOut, len(users))
	for i, u := range users {
		out[i] = toUserOut(u)
	}
	helpers.RespondJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Username    string     `json:"username"`
	Password    string     `json:"password"`
	IsActive    bool       `json:"is_active"`
	TokenExpiry *time.Time `json:"token_expiry"`
	Scopes      *string    `json:"scopes"`
}

// CreateUser is admin-only.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !apimiddleware.GetIsAdmin(r.Context()) {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var req createUserRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := s.Hasher.Hash(req.Password)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := s.Store.CreateUser(r.Context(), &store.User{
		Username:    req.Username,
		Password:    hashed,
		IsActive:    req.IsActive,
		Token:       newToken(),
		TokenExpiry: req.TokenExpiry,
		Scopes:      req.Scopes,
	})
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	_ = s.Identity.InvalidateTenants(r.Context(), created.ID)
	helpers.RespondJSON(w, http.StatusCreated, toUserOut(created))
}

// GetUser returns a single user, subject to the self-or-admin rule.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	callerID := apimiddleware.MustGetUserID(r.Context())
	isAdmin := apimiddleware.GetIsAdmin(r.Context())

	id, err := resolveUserID(r, callerID, isAdmin)
	if err != nil {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	user, err := s.Store.UserByID(r.Context(), id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, toUserOut(user))
}

type updateUserRequest struct {
	Username    *string    `json:"username"`
	Password    *string    `json:"password"`
	IsActive    *bool      `json:"is_active"`
	TokenExpiry *time.Time `json:"token_expiry"`
	Scopes      *string    `json:"scopes"`
}

// UpdateUser patches mutable fields, subject to the self-or-admin rule.
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	callerID := apimiddleware.MustGetUserID(r.Context())
	isAdmin := apimiddleware.GetIsAdmin(r.Context())

	id, err := resolveUserID(r, callerID, isAdmin)
	if err != nil {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var req updateUserRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.Store.UserByID(r.Context(), id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "User not found")
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Password != nil {
		hashed, err := s.Hasher.Hash(*req.Password)
		if err != nil {
			helpers.RespondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		user.Password = hashed
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.TokenExpiry != nil {
		user.TokenExpiry = req.TokenExpiry
	}
	if req.Scopes != nil {
		user.Scopes = req.Scopes
	}

	if err := s.Store.UpdateUser(r.Context(), user); err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = s.Identity.InvalidateTenants(r.Context(), user.ID)
	helpers.RespondJSON(w, http.StatusOK, toUserOut(user))
}

// DeleteUser is admin-only.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !apimiddleware.GetIsAdmin(r.Context()) {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	id, err := resolveUserID(r, apimiddleware.MustGetUserID(r.Context()), true)
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.Store.DeleteUser(r.Context(), id); err != nil {
		helpers.RespondJSON(w, http.StatusOK, statusResponse{
			Message: "Failed to delete user", Success: false,
		})
		return
	}
	_ = s.Identity.InvalidateTenants(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, statusResponse{Message: "Deleted user", Success: true})
}

// GetUserTenants lists the tenants a user belongs to, subject to the
// self-or-admin rule.
func (s *Server) GetUserTenants(w http.ResponseWriter, r *http.Request) {
	callerID := apimiddleware.MustGetUserID(r.Context())
	isAdmin := apimiddleware.GetIsAdmin(r.Context())

	id, err := resolveUserID(r, callerID, isAdmin)
	if err != nil {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	ids, err := s.Store.UserTenantIDs(r.Context(), id)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	tenants := make([]*store.Tenant, 0, len(ids))
	for _, tid := range ids {
		t, err := s.Tenants.ByID(r.Context(), tid)
		if err == nil {
			tenants = append(tenants, t)
		}
	}
	helpers.RespondJSON(w, http.StatusOK, tenants)
}

// AddUserTenant links a tenant to a user, subject to the self-or-admin rule.
func (s *Server) AddUserTenant(w http.ResponseWriter, r *http.Request) {
	callerID := apimiddleware.MustGetUserID(r.Context())
	isAdmin := apimiddleware.GetIsAdmin(r.Context())

	id, err := resolveUserID(r, callerID, isAdmin)
	if err != nil {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	tenantID := chi.URLParam(r, "tenantID")

	if _, err := s.Tenants.ByID(r.Context(), tenantID); err != nil {
		helpers.RespondError(w, http.StatusNotFound, "Tenant not found")
		return
	}
	if err := s.Store.AddUserTenant(r.Context(), id, tenantID); err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = s.Identity.InvalidateTenants(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, statusResponse{
		Message: "Added tenant " + tenantID + " to user", Success: true,
	})
}

// RemoveUserTenant unlinks a tenant from a user. Admin-only, mirroring
// original_source/app/routers/user.py's remove_user_tenant dependency.
func (s *Server) RemoveUserTenant(w http.ResponseWriter, r *http.Request) {
	if !apimiddleware.GetIsAdmin(r.Context()) {
		helpers.RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	id, err := resolveUserID(r, apimiddleware.MustGetUserID(r.Context()), true)
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tenantID := chi.URLParam(r, "tenantID")

	if err := s.Store.RemoveUserTenant(r.Context(), id, tenantID); err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = s.Identity.InvalidateTenants(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, statusResponse{
		Message: "Removed tenant " + tenantID + " from user", Success: true,
	})
}
