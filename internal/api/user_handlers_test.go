package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func requestWithIDParam(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/user/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestResolveUserID_Me(t *testing.T) {
	req := requestWithIDParam("me")
	id, err := resolveUserID(req, 42, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected 42, got %d", id)
	}
}

func TestResolveUserID_SelfByNumericID(t *testing.T) {
	req := requestWithIDParam("7")
	id, err := resolveUserID(req, 7, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("expected 7, got %d", id)
	}
}

func TestResolveUserID_OtherUserForbiddenWhenNotAdmin(t *testing.T) {
	req := requestWithIDParam("9")
	_, err := resolveUserID(req, 7, false)
	if err != errForbidden {
		t.Fatalf("expected errForbidden, got %v", err)
	}
}

func TestResolveUserID_OtherUserAllowedForAdmin(t *testing.T) {
	req := requestWithIDParam("9")
	id, err := resolveUserID(req, 7, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 9 {
		t.Errorf("expected 9, got %d", id)
	}
}

func TestResolveUserID_NonNumericRejected(t *testing.T) {
	req := requestWithIDParam("not-an-id")
	if _, err := resolveUserID(req, 7, true); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestNewTokenProducesDistinctValues(t *testing.T) {
	a := newToken()
	b := newToken()
	if a == b {
		t.Error("newToken should not repeat across calls")
	}
	if a == "" {
		t.Error("newToken should not be empty")
	}
}
