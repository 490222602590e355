package server

import (
	"github.com/jrsteele09/go-session-auth/internal/metrics"
	"github.com/jrsteele09/go-session-auth/users"
)

func (s *Server) initRoutes() {
	// SESSION
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.PublicAPIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.PublicAPIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.PublicAPIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))

	// PROTECTED
	s.RegisterRouteFunc("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAdminOnly,
		ChainMiddleware(s.RoleAccessHandler(users.RoleAdmin), s.APIMiddleware(s.RequireAuth(users.RoleAdmin))...))
	s.RegisterRouteFunc("GET "+RouteOrganizationOnly,
		ChainMiddleware(s.RoleAccessHandler(users.RoleOrganization), s.APIMiddleware(s.RequireAuth(users.RoleOrganization))...))
	s.RegisterRouteFunc("GET "+RouteStandardOnly,
		ChainMiddleware(s.RoleAccessHandler(users.RoleStandard), s.APIMiddleware(s.RequireAuth(users.RoleStandard))...))

	// CORS preflight for the API
	s.RegisterRouteFunc("OPTIONS /api/auth/", ChainMiddleware(s.NoContentHandler(), s.APIMiddleware()...))

	// OPERATIONAL
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))
}
