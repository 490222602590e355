package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/rs/zerolog/log"
)

// Deps are the services the HTTP surface delegates to.
type Deps struct {
	Auth     *auth.AuthenticationService
	Sessions *auth.SessionRefresher
	Gate     *auth.AccessGate
	Issuer   *token.Issuer
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	deps     Deps
	validate *validator.Validate
	limiter  *ipLimiter // nil when rate limiting is disabled
	clients  clientResolver
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Sessions == nil || deps.Gate == nil || deps.Issuer == nil {
		return nil, errors.New("[Server New] auth service, session refresher, access gate and issuer are required")
	}
	validate, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to build request validator: %w", err)
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		deps:     deps,
		validate: validate,
		clients:  clientResolver{trusted: cfg.GetTrustedProxies()},
	}
	if cfg.GetEnableRateLimiting() {
		s.limiter = newIPLimiter(cfg.GetRateLimitPerSecond(), cfg.GetRateLimitBurst())
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
