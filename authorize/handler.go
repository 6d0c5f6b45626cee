// Package authorize implements the authorization endpoint of the OAuth2
// protocol core: it validates an authorization request, dispatches to the
// code or implicit sub-flow of the configured grantors, and renders the
// outcome as a redirect - or, when the client cannot be safely redirected,
// as a direct 400 response.
package authorize

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-core/grantor"
	"github.com/jrsteele09/go-oauth2-core/oauth2"
)

// Shared failure descriptions. The request breaker and the handler raise
// the same conditions; keeping one set of texts keeps the two paths from
// diverging.
const (
	msgMissingClientID     = "Missing required 'client_id' attribute."
	msgMissingResponseType = "Missing required 'response_type' attribute."
	msgMissingRedirectURI  = "Missing required 'redirect_uri' attribute."
	msgMismatchRedirectURI = "Mismatch 'redirect_uri'."
	msgInvalidClientID     = "Invalid client_id."
	msgAccessDenied        = "Resource owner explicitly denied authorization."
	msgNoCurrentOwner      = "Failed retrieving resource owner profile."
)

func errUnsupportedResponseType(responseType oauth2.ResponseType) *oauth2.Error {
	return oauth2.NewError(oauth2.ErrUnsupportedResponseType,
		"Unsupported response_type '"+string(responseType)+"'.")
}

// Handler processes a single authorization request. It is request-scoped:
// build one, feed it the request fields, call Handle once, and render any
// failure through Catch.
type Handler struct {
	clientID            string
	responseType        oauth2.ResponseType
	redirectURI         *url.URL
	scope               string
	state               string
	codeChallenge       string
	codeChallengeMethod oauth2.CodeMethodType

	codeGrantor     grantor.AuthorizationCodeGrantor
	implicitGrantor grantor.ImplicitGrantor
}

// NewHandler creates an empty authorization request handler. Configure at
// least one grantor before calling Handle.
func NewHandler() *Handler {
	return &Handler{}
}

// SetCodeGrantor enables the authorization code flow.
func (h *Handler) SetCodeGrantor(g grantor.AuthorizationCodeGrantor) {
	h.codeGrantor = g
}

// SetImplicitGrantor enables the implicit flow.
func (h *Handler) SetImplicitGrantor(g grantor.ImplicitGrantor) {
	h.implicitGrantor = g
}

// InitFromQuery populates the handler from authorization request query
// parameters.
func (h *Handler) InitFromQuery(query url.Values) {
	h.SetClientID(query.Get("client_id"))
	h.SetResponseType(oauth2.ResponseType(query.Get("response_type")))
	h.SetRedirectURI(query.Get("redirect_uri"))
	h.SetScope(query.Get("scope"))
	h.SetState(query.Get("state"))
	h.SetCodeChallenge(query.Get("code_challenge"), query.Get("code_challenge_method"))
}

// SetClientID sets the requesting client's identifier.
func (h *Handler) SetClientID(clientID string) { h.clientID = clientID }

// SetResponseType sets the requested response type.
func (h *Handler) SetResponseType(responseType oauth2.ResponseType) { h.responseType = responseType }

// SetRedirectURI parses and sets the redirect target. An unparsable URI is
// treated as absent, so failures fall back to the direct-body channel
// rather than redirecting to an unverified location.
func (h *Handler) SetRedirectURI(redirectURI string) {
	if redirectURI == "" {
		return
	}
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return
	}
	h.redirectURI = parsed
}

// SetScope sets the requested scope, normalized to its set form.
func (h *Handler) SetScope(scope string) { h.scope = oauth2.ParseScope(scope).String() }

// SetState sets the client's opaque state value, echoed back on redirects.
func (h *Handler) SetState(state string) { h.state = state }

// SetCodeChallenge attaches the PKCE challenge. An absent method with a
// present challenge defaults to "plain".
func (h *Handler) SetCodeChallenge(challenge, method string) {
	h.codeChallenge = challenge
	h.codeChallengeMethod = oauth2.CoerceCodeMethod(method)
}

// Handle runs the authorization decision. approved carries the resource
// owner's consent, obtained out-of-band by the host. On failure the error
// is either an *oauth2.Error or a wrapped grantor failure; render it with
// Catch.
func (h *Handler) Handle(approved bool) (*Response, error) {
	if h.clientID == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingClientID)
	}
	if h.responseType == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingResponseType)
	}
	if !approved {
		return nil, oauth2.NewError(oauth2.ErrAccessDenied, msgAccessDenied)
	}

	switch h.responseType {
	case oauth2.CodeResponseType:
		if h.codeGrantor == nil {
			return nil, errUnsupportedResponseType(h.responseType)
		}
		return h.handleCodeRequest()
	case oauth2.TokenResponseType:
		if h.implicitGrantor == nil {
			return nil, errUnsupportedResponseType(h.responseType)
		}
		return h.handleImplicitRequest()
	default:
		return nil, errUnsupportedResponseType(h.responseType)
	}
}

func (h *Handler) handleCodeRequest() (*Response, error) {
	client, err := h.codeGrantor.FindClient(h.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleCodeRequest] FindClient")
	}
	if client == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgInvalidClientID)
	}
	if h.redirectURI == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingRedirectURI)
	}

	owner, err := h.codeGrantor.GetCurrentResourceOwner()
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleCodeRequest] GetCurrentResourceOwner")
	}
	if owner == nil {
		return nil, oauth2.NewError(oauth2.ErrServerError, msgNoCurrentOwner)
	}

	authCode, err := h.codeGrantor.IssueAuthorizationCode(
		client, owner, h.scope, h.redirectURI.String(), h.codeChallenge, h.codeChallengeMethod)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleCodeRequest] IssueAuthorizationCode")
	}

	params := url.Values{}
	params.Set("code", authCode.Code)
	if h.state != "" {
		params.Set("state", h.state)
	}
	return redirectResponse(withQueryParams(h.redirectURI, params)), nil
}

func (h *Handler) handleImplicitRequest() (*Response, error) {
	client, err := h.implicitGrantor.FindClient(h.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleImplicitRequest] FindClient")
	}
	if client == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgInvalidClientID)
	}
	if h.redirectURI == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingRedirectURI)
	}

	owner, err := h.implicitGrantor.GetCurrentResourceOwner()
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleImplicitRequest] GetCurrentResourceOwner")
	}
	if owner == nil {
		return nil, oauth2.NewError(oauth2.ErrServerError, msgNoCurrentOwner)
	}

	accessToken, err := h.implicitGrantor.IssueAccessToken(client, owner, h.scope)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleImplicitRequest] IssueAccessToken")
	}

	params := url.Values{}
	params.Set("access_token", accessToken.AccessToken)
	params.Set("token_type", accessToken.TokenType)
	params.Set("expires_in", strconv.Itoa(accessToken.ExpiresIn))
	params.Set("scope", h.scope)
	if h.state != "" {
		params.Set("state", h.state)
	}
	return redirectResponse(withFragmentParams(h.redirectURI, params)), nil
}

// Catch renders a Handle failure on the endpoint's error channel. When the
// redirect URI is unknown or the response type is unrecognized, the client
// cannot be safely redirected and a direct 400 body is produced instead;
// otherwise the mapped protocol error travels back to the client in the
// redirect query (code flow) or fragment (implicit flow), with state
// attached when present.
func (h *Handler) Catch(err error) *Response {
	if h.redirectURI == nil {
		missing := oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingRedirectURI)
		return &Response{Status: http.StatusBadRequest, Body: missing.Description}
	}

	switch h.responseType {
	case oauth2.CodeResponseType:
		return redirectResponse(withQueryParams(h.redirectURI, h.errorValues(err)))
	case oauth2.TokenResponseType:
		return redirectResponse(withFragmentParams(h.redirectURI, h.errorValues(err)))
	default:
		unknown := oauth2.NewError(oauth2.ErrInvalidRequest,
			"Unknown response_type '"+string(h.responseType)+"'.")
		return &Response{Status: http.StatusBadRequest, Body: unknown.Description}
	}
}

func (h *Handler) errorValues(err error) url.Values {
	values := oauth2.ErrorFrom(err).Values()
	if h.state != "" {
		values.Set("state", h.state)
	}
	return values
}

func redirectResponse(location string) *Response {
	return &Response{Status: http.StatusFound, Location: location}
}

// withQueryParams returns u with params merged into its query component.
func withQueryParams(u *url.URL, params url.Values) string {
	merged := *u
	query := merged.Query()
	for name, values := range params {
		for _, value := range values {
			query.Set(name, value)
		}
	}
	merged.RawQuery = query.Encode()
	merged.Fragment = ""
	return merged.String()
}

// withFragmentParams returns u with params carried in its fragment
// component, form-encoded so clients can parse it like a query string.
func withFragmentParams(u *url.URL, params url.Values) string {
	base := *u
	base.Fragment = ""
	return base.String() + "#" + params.Encode()
}
