package api

import (
	"net/http"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/api/helpers"
	apimiddleware "github.com/prefeitura-rio/prefect-auth-proxy/internal/api/middleware"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
}

// Login verifies username/password and returns the user's existing opaque
// token. It never mints a new token; only CreateUser does.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondJSON(w, http.StatusOK, loginResponse{Success: false})
		return
	}

	user, err := s.Store.UserByUsername(r.Context(), req.Username)
	if err != nil {
		helpers.RespondJSON(w, http.StatusOK, loginResponse{Success: false})
		return
	}

	if !s.Hasher.Compare(user.Password, req.Password) {
		helpers.RespondJSON(w, http.StatusOK, loginResponse{Success: false})
		return
	}

	helpers.RespondJSON(w, http.StatusOK, loginResponse{Token: user.Token, Success: true})
}

// ValidateToken echoes the bearer token back once RequireToken has resolved
// it, mirroring GET /auth/validate's contract of "still valid".
func (s *Server) ValidateToken(w http.ResponseWriter, r *http.Request) {
	userID := apimiddleware.MustGetUserID(r.Context())
	user, err := s.Store.UserByID(r.Context(), userID)
	if err != nil {
		if err == store.ErrNotFound {
			helpers.RespondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		helpers.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, loginResponse{Token: user.Token, Success: true})
}
