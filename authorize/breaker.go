package authorize

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-core/clients"
	"github.com/jrsteele09/go-oauth2-core/grantor"
	"github.com/jrsteele09/go-oauth2-core/oauth2"
)

// authorizeParamNames are the authorization endpoint parameters the
// breaker retains. Anything else in the inbound query is host-specific
// and dropped.
var authorizeParamNames = []string{
	"response_type",
	"client_id",
	"redirect_uri",
	"scope",
	"state",
	"code_challenge",
	"code_challenge_method",
}

// RequestBreaker decomposes a raw authorization request so the host can
// inspect it, resolve the client, and render a consent page before any
// grant decision is made. Validate catches the failures that can be
// detected without the resource owner's answer.
type RequestBreaker struct {
	params url.Values

	clientID            string
	responseType        oauth2.ResponseType
	redirectURI         string
	scope               string
	state               string
	codeChallenge       string
	codeChallengeMethod oauth2.CodeMethodType

	codeGrantor     grantor.AuthorizationCodeGrantor
	implicitGrantor grantor.ImplicitGrantor
}

// NewRequestBreaker builds a breaker from the authorization request query.
// Either grantor may be nil, which disables the corresponding flow.
func NewRequestBreaker(query url.Values, codeGrantor grantor.AuthorizationCodeGrantor, implicitGrantor grantor.ImplicitGrantor) *RequestBreaker {
	params := url.Values{}
	for _, name := range authorizeParamNames {
		if query.Has(name) {
			params.Set(name, query.Get(name))
		}
	}
	return &RequestBreaker{
		params:              params,
		clientID:            query.Get("client_id"),
		responseType:        oauth2.ResponseType(query.Get("response_type")),
		redirectURI:         query.Get("redirect_uri"),
		scope:               query.Get("scope"),
		state:               query.Get("state"),
		codeChallenge:       query.Get("code_challenge"),
		codeChallengeMethod: oauth2.CoerceCodeMethod(query.Get("code_challenge_method")),
		codeGrantor:         codeGrantor,
		implicitGrantor:     implicitGrantor,
	}
}

// Params returns the recognized authorization parameters, ready to be
// replayed through a consent form round-trip.
func (b *RequestBreaker) Params() url.Values { return b.params }

// ClientID returns the requesting client's identifier.
func (b *RequestBreaker) ClientID() string { return b.clientID }

// ResponseType returns the requested response type.
func (b *RequestBreaker) ResponseType() oauth2.ResponseType { return b.responseType }

// RedirectURI returns the redirect URI presented in the request, which may
// be empty.
func (b *RequestBreaker) RedirectURI() string { return b.redirectURI }

// Scope returns the raw requested scope string.
func (b *RequestBreaker) Scope() string { return b.scope }

// State returns the client's opaque state value.
func (b *RequestBreaker) State() string { return b.state }

// FetchClient resolves the requesting client through whichever grantor is
// configured. A nil client with a nil error means the client is unknown.
func (b *RequestBreaker) FetchClient() (*clients.Client, error) {
	var finder grantor.ClientFinder
	switch {
	case b.codeGrantor != nil:
		finder = b.codeGrantor
	case b.implicitGrantor != nil:
		finder = b.implicitGrantor
	default:
		return nil, nil
	}
	client, err := finder.FindClient(b.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[RequestBreaker.FetchClient] FindClient")
	}
	return client, nil
}

// FetchRedirectURI resolves the effective redirect target: the URI
// presented in the request when there is one, otherwise the client's
// registered URI.
func (b *RequestBreaker) FetchRedirectURI() (string, error) {
	if b.redirectURI != "" {
		return b.redirectURI, nil
	}
	client, err := b.FetchClient()
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", nil
	}
	return client.RedirectURI, nil
}

// Validate checks the request before the consent step. It reports the
// failures a consent page should never be shown for: missing required
// attributes, an unknown client, a flow no grantor supports, or an
// implicit request whose redirect URI does not match the registration.
func (b *RequestBreaker) Validate() error {
	if b.responseType == "" {
		return oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingResponseType)
	}
	if b.clientID == "" {
		return oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingClientID)
	}

	client, err := b.FetchClient()
	if err != nil {
		return err
	}
	if client == nil {
		return oauth2.NewError(oauth2.ErrInvalidRequest, msgInvalidClientID)
	}

	switch b.responseType {
	case oauth2.CodeResponseType:
		if b.codeGrantor == nil {
			return errUnsupportedResponseType(b.responseType)
		}
	case oauth2.TokenResponseType:
		if b.implicitGrantor == nil {
			return errUnsupportedResponseType(b.responseType)
		}
		if b.redirectURI == "" {
			return oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingRedirectURI)
		}
		if client.RedirectURI != "" && client.RedirectURI != b.redirectURI {
			return oauth2.NewError(oauth2.ErrInvalidRequest, msgMismatchRedirectURI)
		}
	default:
		return errUnsupportedResponseType(b.responseType)
	}
	return nil
}

// Handler builds the request handler for the broken-down request, carrying
// over every parameter and the configured grantors.
func (b *RequestBreaker) Handler() *Handler {
	h := NewHandler()
	h.SetClientID(b.clientID)
	h.SetResponseType(b.responseType)
	h.SetRedirectURI(b.redirectURI)
	h.SetScope(b.scope)
	h.SetState(b.state)
	h.SetCodeChallenge(b.codeChallenge, string(b.codeChallengeMethod))
	if b.codeGrantor != nil {
		h.SetCodeGrantor(b.codeGrantor)
	}
	if b.implicitGrantor != nil {
		h.SetImplicitGrantor(b.implicitGrantor)
	}
	return h
}
