// Package proxy implements the Proxy Pipeline (component H): the
// authenticated GraphQL endpoint that ties every other component together
// -- tenant header validation, membership check, AST rewriting, upstream
// forwarding, and response filtering.
package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	apimiddleware "github.com/prefeitura-rio/prefect-auth-proxy/internal/api/middleware"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/gqlrewrite"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/identity"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/responsefilter"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/tenantstore"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/upstream"
)

const tenantHeader = "x-prefect-tenant-id"

// Handler wires together every component the proxy pipeline touches.
type Handler struct {
	Identity *identity.Store
	Tenants  *tenantstore.Store
	Oracle   *gqlrewrite.Oracle
	Upstream *upstream.Client
}

// New constructs a Handler.
func New(identityStore *identity.Store, tenants *tenantstore.Store, oracle *gqlrewrite.Oracle, up *upstream.Client) *Handler {
	return &Handler{Identity: identityStore, Tenants: tenants, Oracle: oracle, Upstream: up}
}

// wireOperation is a single GraphQL operation as it arrives on the wire.
type wireOperation struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// ServeHTTP implements spec.md §4.6 steps 1-9.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondPlainText(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ops, err := decodeOperations(raw)
	if err != nil {
		respondPlainText(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" || tenantID == "null" {
		respondError(w, http.StatusBadRequest, "Please provide tenant ID")
		return
	}

	apimiddleware.SetSentryTenant(ctx, tenantID, "header")

	exists, err := h.Tenants.Exists(ctx, tenantID)
	if err != nil {
		slog.Error("tenant existence check failed", "error", err)
		respondError(w, http.StatusBadGateway, "Access denied")
		return
	}
	if !exists {
		respondError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	userID := apimiddleware.MustGetUserID(ctx)
	apimiddleware.SetSentryUser(ctx, strconv.FormatInt(userID, 10), "", r.RemoteAddr)

	isMember, err := h.Identity.IsMember(ctx, userID, tenantID)
	if err != nil {
		slog.Error("membership check failed", "error", err)
		respondError(w, http.StatusBadGateway, "Access denied")
		return
	}
	if !isMember {
		respondError(w, http.StatusForbidden, "Access denied")
		return
	}

	rewritten, err := gqlrewrite.Rewrite(ctx, ops, tenantID, h.Oracle)
	if err != nil {
		slog.Error("rewrite failed", "error", err)
		respondError(w, http.StatusBadGateway, "Access denied")
		return
	}
	if !rewritten.Allowed {
		respondError(w, http.StatusForbidden, "Access denied")
		return
	}

	reqs := make([]upstream.Request, len(rewritten.Operations))
	for i, op := range rewritten.Operations {
		reqs[i] = upstream.Request{Query: op.Query, Variables: op.Variables}
	}

	resp, err := h.Upstream.DoBatch(ctx, reqs)
	if err != nil {
		slog.Error("upstream request failed", "error", err)
		respondError(w, http.StatusBadGateway, "Upstream request failed")
		return
	}

	body := resp.Body
	if anyTrue(rewritten.TenantQuery) {
		memberTenants, err := h.Identity.TenantsOf(ctx, userID)
		if err != nil {
			slog.Error("tenant membership lookup failed", "error", err)
		} else if filtered, err := responsefilter.FilterBatch(body, rewritten.TenantQuery, memberTenants); err == nil {
			body = filtered
		} else {
			slog.Error("response filtering failed", "error", err)
		}
	}

	writeUpstreamResponse(w, resp.StatusCode, resp.Header, body)
}

// ServeOptions answers a CORS preflight, unauthenticated, by sending a bare
// OPTIONS request to the upstream URL and relaying its response. The
// client's request headers are not forwarded.
func (h *Handler) ServeOptions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Upstream.Options(r.Context())
	if err != nil {
		slog.Error("upstream OPTIONS forwarding failed", "error", err)
		respondError(w, http.StatusBadGateway, "Upstream request failed")
		return
	}
	writeUpstreamResponse(w, resp.StatusCode, resp.Header, resp.Body)
}

// decodeOperations normalizes the request body to an operation list: a JSON
// array decodes directly, a single object is wrapped.
func decodeOperations(raw []byte) ([]gqlrewrite.Operation, error) {
	var batch []wireOperation
	if err := json.Unmarshal(raw, &batch); err == nil {
		return toOperations(batch), nil
	}

	var single wireOperation
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, errors.New("invalid operation body")
	}
	return toOperations([]wireOperation{single}), nil
}

func toOperations(wire []wireOperation) []gqlrewrite.Operation {
	ops := make([]gqlrewrite.Operation, len(wire))
	for i, w := range wire {
		ops[i] = gqlrewrite.Operation{Query: w.Query, Variables: w.Variables}
	}
	return ops
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

func writeUpstreamResponse(w http.ResponseWriter, status int, header http.Header, body []byte) {
	dst := w.Header()
	for k, vs := range header {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	dst.Del("Content-Length")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + reason + `"}`))
}

// respondPlainText mirrors original_source/app/routers/proxy.py's malformed
// body path, which returns the bare reason string with no JSON envelope,
// unlike the tenant-header/existence/access-denied cases below it.
func respondPlainText(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reason))
}
