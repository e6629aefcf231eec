package api

import (
	"log/slog"

	customMiddleware "github.com/prefeitura-rio/prefect-auth-proxy/internal/api/middleware"
	authmw "github.com/prefeitura-rio/prefect-auth-proxy/internal/auth"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/gqlrewrite"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/identity"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/passwordhash"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/proxy"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/tenantstore"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/upstream"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Server holds every dependency the HTTP surface needs: the proxy pipeline
// (the core, component H) plus the conventional identity/tenant CRUD named
// in spec.md §6 as an external collaborator.
type Server struct {
	Router *chi.Mux
	Pool   *pgxpool.Pool
	Store  *store.Store

	Identity *identity.Store
	Tenants  *tenantstore.Store
	Hasher   *passwordhash.Hasher

	Logger *slog.Logger
}

// NewServer wires every component into a chi router: core middleware first,
// then the authenticated /proxy endpoint, then the non-core CRUD surface.
func NewServer(
	pool *pgxpool.Pool,
	st *store.Store,
	identityStore *identity.Store,
	tenants *tenantstore.Store,
	oracle *gqlrewrite.Oracle,
	up *upstream.Client,
	hasher *passwordhash.Hasher,
) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	r.Use(sentryHandler.Handle)

	r.Use(customMiddleware.RequestLogger)
	r.Use(customMiddleware.PanicRecovery)

	server := &Server{
		Router:   r,
		Pool:     pool,
		Store:    st,
		Identity: identityStore,
		Tenants:  tenants,
		Hasher:   hasher,
		Logger:   slog.Default(),
	}

	requireAuth := authmw.RequireToken(identityStore)

	r.Get("/health", server.HealthHandler())

	proxyHandler := proxy.New(identityStore, tenants, oracle, up)
	proxyLimiter := customMiddleware.NewIPRateLimiter(10, 20)
	proxyAuthenticated := r.With(proxyLimiter.Middleware, requireAuth)

	// chi treats "/proxy" and "/proxy/" as distinct patterns; mount both, per
	// spec.md §6 ("POST /proxy and POST /proxy/"). OPTIONS is unauthenticated
	// on both, forwarding straight to upstream for CORS preflights.
	r.Options("/proxy", proxyHandler.ServeOptions)
	r.Options("/proxy/", proxyHandler.ServeOptions)
	proxyAuthenticated.Post("/proxy", proxyHandler.ServeHTTP)
	proxyAuthenticated.Post("/proxy/", proxyHandler.ServeHTTP)

	r.Post("/auth/login", server.Login)
	r.With(requireAuth).Get("/auth/validate", server.ValidateToken)

	r.Route("/user", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", server.ListUsers)
		r.Post("/", server.CreateUser)
		r.Get("/{id}", server.GetUser)
		r.Patch("/{id}", server.UpdateUser)
		r.Delete("/{id}", server.DeleteUser)
		r.Get("/{id}/tenant", server.GetUserTenants)
		r.Get("/{id}/tenant/", server.GetUserTenants)
		r.Post("/{id}/tenant/{tenantID}", server.AddUserTenant)
		r.Delete("/{id}/tenant/{tenantID}", server.RemoveUserTenant)
	})

	r.Route("/tenant", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", server.ListTenants)
		r.Post("/", server.CreateTenant)
		r.Patch("/{id}", server.UpdateTenant)
		r.Delete("/{id}", server.DeleteTenant)
	})

	return server
}
