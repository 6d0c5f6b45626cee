package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-oauth2-core/authorize"
	"github.com/jrsteele09/go-oauth2-core/oauth2"
	"github.com/jrsteele09/go-oauth2-core/token"
)

// Authorize handles the authorization endpoint. The request is broken down
// for inspection, validated, put to the host's approval callback, and then
// handed to the authorization processor. Failures travel back to the
// client on the redirect channel whenever a redirect target is known.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		breaker := authorize.NewRequestBreaker(r.URL.Query(), s.grantors.Code, s.grantors.Implicit)
		h := breaker.Handler()

		if err := breaker.Validate(); err != nil {
			s.logDegradation(r, err)
			h.Catch(err).Write(w)
			return
		}

		approved := s.approver(r, breaker)
		resp, err := h.Handle(approved)
		if err != nil {
			s.logDegradation(r, err)
			resp = h.Catch(err)
		}
		resp.Write(w)
	}
}

// Token handles the token endpoint. Client credentials presented through
// HTTP Basic auth take precedence over body parameters.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := token.NewHandler()
		if s.grantors.Code != nil {
			h.SetCodeGrantor(s.grantors.Code)
		}
		if s.grantors.OwnerCredentials != nil {
			h.SetOwnerCredentialsGrantor(s.grantors.OwnerCredentials)
		}
		if s.grantors.ClientCredentials != nil {
			h.SetClientCredentialsGrantor(s.grantors.ClientCredentials)
		}
		if s.grantors.RefreshToken != nil {
			h.SetRefreshTokenGrantor(s.grantors.RefreshToken)
		}

		if err := r.ParseForm(); err != nil {
			badRequest := h.Catch(oauth2.NewError(oauth2.ErrInvalidRequest, "Malformed request body."))
			_ = badRequest.Write(w)
			return
		}
		h.InitFromForm(r.PostForm)
		if username, password, ok := r.BasicAuth(); ok {
			h.SetClientID(username)
			h.SetClientSecret(password)
		}

		resp, err := h.Handle()
		if err != nil {
			s.logDegradation(r, err)
			resp = h.Catch(err)
		} else {
			log.Info().Str("grant_type", r.PostForm.Get("grant_type")).Msg("token issued")
		}
		_ = resp.Write(w)
	}
}

// logDegradation records the original failure before it is collapsed into
// a protocol error. Host failures would otherwise leave no trace, since
// the response degrades them to a bare server_error.
func (s *Server) logDegradation(r *http.Request, err error) {
	var oauthErr *oauth2.Error
	if errors.As(err, &oauthErr) && oauthErr.Code != oauth2.ErrServerError {
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
}
