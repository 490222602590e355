package server

const (
	// Session Routes
	RouteRegister = "/api/auth/register"
	RouteLogin    = "/api/auth/login"
	RouteRefresh  = "/api/auth/refresh"
	RouteLogout   = "/api/auth/logout"

	// Protected Routes
	RouteProfile          = "/api/auth/profile"
	RouteAdminOnly        = "/api/auth/admin-only"
	RouteOrganizationOnly = "/api/auth/organization-only"
	RouteStandardOnly     = "/api/auth/standard-only"

	// Operational Routes
	RouteHealth        = "/healthz"
	RouteMetrics       = "/metrics"
	RouteWellKnownJWKS = "/.well-known/jwks.json"
)
