// Package server exposes the protocol core over HTTP. It wires the
// authorization and token endpoints onto a mux, authenticates clients from
// either the form body or an Authorization header, and asks the host for
// the resource owner's consent decision through an ApprovalFunc.
package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-oauth2-core/authorize"
	"github.com/jrsteele09/go-oauth2-core/grantor"
	"github.com/jrsteele09/go-oauth2-core/internal/config"
)

// Grantors bundles the host's grant capabilities. Leave a field nil to
// disable the corresponding flow.
type Grantors struct {
	Code              grantor.AuthorizationCodeGrantor
	Implicit          grantor.ImplicitGrantor
	OwnerCredentials  grantor.OwnerCredentialsGrantor
	ClientCredentials grantor.ClientCredentialsGrantor
	RefreshToken      grantor.RefreshTokenGrantor
}

// ApprovalFunc reports the resource owner's consent for an authorization
// request. The broken-down request carries everything needed to render and
// resolve a consent page.
type ApprovalFunc func(r *http.Request, breaker *authorize.RequestBreaker) bool

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	grantors Grantors
	approver ApprovalFunc
}

// Option configures a Server.
type Option func(*Server)

// WithApprovalFunc sets the consent callback. Without one every
// authorization request is treated as approved, which is only suitable for
// development setups where the current resource owner is fixed.
func WithApprovalFunc(approver ApprovalFunc) Option {
	return func(s *Server) { s.approver = approver }
}

func New(cfg config.Config, grantors Grantors, opts ...Option) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		grantors: grantors,
		env:      cfg.GetEnv(),
		approver: func(*http.Request, *authorize.RequestBreaker) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s
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

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteOAuth2Authorize, ChainMiddleware(s.Authorize(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Info().Str("path", parts[0]).Msg("route registered")
		}
	}
}
