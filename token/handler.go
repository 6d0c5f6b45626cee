package token

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-core/clients"
	"github.com/jrsteele09/go-oauth2-core/grantor"
	"github.com/jrsteele09/go-oauth2-core/oauth2"
	"github.com/jrsteele09/go-oauth2-core/owners"
	"github.com/jrsteele09/go-oauth2-core/tokens"
)

// NowTimeFunc returns the current time. Override in tests to control code
// redemption timestamps.
var NowTimeFunc = time.Now

const (
	msgMissingGrantType    = "Missing grant_type attribute."
	msgMissingCode         = "Missing required 'code' attribute."
	msgMissingRefreshToken = "Missing required 'refresh_token' attribute."
	msgMissingClientID     = "Missing required 'client_id' attribute."
	msgInvalidClient       = "Client authentication failed."
	msgInvalidCode         = "Invalid authorization code."
	msgCodeUsed            = "Authorization code has already been redeemed."
	msgCodeExpired         = "Authorization code has expired."
	msgMismatchRedirectURI = "Mismatch 'redirect_uri'."
	msgCodeVerifierFailed  = "Code verifier does not match the challenge."
	msgInvalidOwner        = "Invalid resource owner credentials."
	msgInvalidRefreshToken = "Invalid refresh token."
)

func errUnsupportedGrantType(grantType oauth2.GrantType) *oauth2.Error {
	return oauth2.NewError(oauth2.ErrUnsupportedGrantType,
		"Unsupported grant_type '"+string(grantType)+"'.")
}

// Handler processes a single token request. It is request-scoped: build
// one, feed it the request fields, call Handle once, and render any
// failure through Catch.
type Handler struct {
	grantType    oauth2.GrantType
	clientID     string
	clientSecret string
	code         string
	redirectURI  string
	username     string
	password     string
	scope        string
	refreshToken string
	codeVerifier string

	codeGrantor        grantor.AuthorizationCodeGrantor
	ownerGrantor       grantor.OwnerCredentialsGrantor
	clientCredsGrantor grantor.ClientCredentialsGrantor
	refreshGrantor     grantor.RefreshTokenGrantor
}

// NewHandler creates an empty token request handler. Configure at least
// one grantor before calling Handle.
func NewHandler() *Handler {
	return &Handler{}
}

// SetCodeGrantor enables the authorization code grant.
func (h *Handler) SetCodeGrantor(g grantor.AuthorizationCodeGrantor) { h.codeGrantor = g }

// SetOwnerCredentialsGrantor enables the resource owner password grant.
func (h *Handler) SetOwnerCredentialsGrantor(g grantor.OwnerCredentialsGrantor) { h.ownerGrantor = g }

// SetClientCredentialsGrantor enables the client credentials grant.
func (h *Handler) SetClientCredentialsGrantor(g grantor.ClientCredentialsGrantor) {
	h.clientCredsGrantor = g
}

// SetRefreshTokenGrantor enables the refresh token grant.
func (h *Handler) SetRefreshTokenGrantor(g grantor.RefreshTokenGrantor) { h.refreshGrantor = g }

// InitFromForm populates the handler from token request body parameters.
// Credentials carried in an Authorization header take precedence and
// should be set afterwards through SetClientID and SetClientSecret.
func (h *Handler) InitFromForm(form url.Values) {
	h.SetGrantType(oauth2.GrantType(form.Get("grant_type")))
	h.SetClientID(form.Get("client_id"))
	h.SetClientSecret(form.Get("client_secret"))
	h.SetCode(form.Get("code"))
	h.SetRedirectURI(form.Get("redirect_uri"))
	h.SetUsername(form.Get("username"))
	h.SetPassword(form.Get("password"))
	h.SetScope(form.Get("scope"))
	h.SetRefreshToken(form.Get("refresh_token"))
	h.SetCodeVerifier(form.Get("code_verifier"))
}

// SetGrantType sets the requested grant type.
func (h *Handler) SetGrantType(grantType oauth2.GrantType) { h.grantType = grantType }

// SetClientID sets the authenticating client's identifier.
func (h *Handler) SetClientID(clientID string) { h.clientID = clientID }

// SetClientSecret sets the client secret used for confidential clients.
func (h *Handler) SetClientSecret(secret string) { h.clientSecret = secret }

// SetCode sets the authorization code being redeemed.
func (h *Handler) SetCode(code string) { h.code = code }

// SetRedirectURI sets the redirect URI echoed from the authorization step.
func (h *Handler) SetRedirectURI(redirectURI string) { h.redirectURI = redirectURI }

// SetUsername sets the resource owner username for the password grant.
func (h *Handler) SetUsername(username string) { h.username = username }

// SetPassword sets the resource owner password for the password grant.
func (h *Handler) SetPassword(password string) { h.password = password }

// SetScope sets the requested scope, normalized to its set form.
func (h *Handler) SetScope(scope string) { h.scope = oauth2.ParseScope(scope).String() }

// SetRefreshToken sets the refresh token being exchanged.
func (h *Handler) SetRefreshToken(refreshToken string) { h.refreshToken = refreshToken }

// SetCodeVerifier sets the PKCE verifier presented with the code grant.
func (h *Handler) SetCodeVerifier(verifier string) { h.codeVerifier = verifier }

// Handle runs the token request. On failure the error is either an
// *oauth2.Error or a wrapped grantor failure; render it with Catch.
func (h *Handler) Handle() (*Response, error) {
	if h.grantType == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingGrantType)
	}

	switch h.grantType {
	case oauth2.AuthorizationCodeGrant:
		if h.codeGrantor == nil {
			return nil, errUnsupportedGrantType(h.grantType)
		}
		return h.handleCodeGrant()
	case oauth2.PasswordGrant:
		if h.ownerGrantor == nil {
			return nil, errUnsupportedGrantType(h.grantType)
		}
		return h.handlePasswordGrant()
	case oauth2.ClientCredentialsGrant:
		if h.clientCredsGrantor == nil {
			return nil, errUnsupportedGrantType(h.grantType)
		}
		return h.handleClientCredentialsGrant()
	case oauth2.RefreshTokenGrant:
		if h.refreshGrantor == nil {
			return nil, errUnsupportedGrantType(h.grantType)
		}
		return h.handleRefreshGrant()
	default:
		return nil, errUnsupportedGrantType(h.grantType)
	}
}

// fetchClient resolves and authenticates the requesting client. Public
// clients authenticate by identifier alone; confidential clients must
// present their exact registered secret.
func (h *Handler) fetchClient(finder grantor.ClientFinder) (*clients.Client, error) {
	if h.clientID == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingClientID)
	}
	client, err := finder.FindClient(h.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.fetchClient] FindClient")
	}
	if client == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidClient, msgInvalidClient)
	}
	if client.IsConfidential() {
		if h.clientSecret == "" {
			return nil, oauth2.NewError(oauth2.ErrInvalidClient, msgInvalidClient)
		}
		if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(h.clientSecret)) != 1 {
			return nil, oauth2.NewError(oauth2.ErrInvalidClient, msgInvalidClient)
		}
	}
	return client, nil
}

func (h *Handler) handleCodeGrant() (*Response, error) {
	client, err := h.fetchClient(h.codeGrantor)
	if err != nil {
		return nil, err
	}
	if h.code == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingCode)
	}

	authCode, err := h.codeGrantor.FindAuthorizationCode(h.code)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleCodeGrant] FindAuthorizationCode")
	}
	if authCode == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidCode)
	}
	if authCode.ClientID != client.ID {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidCode)
	}
	if authCode.RedirectURI != "" && authCode.RedirectURI != h.redirectURI {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgMismatchRedirectURI)
	}
	if authCode.IsUsed() {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgCodeUsed)
	}
	if authCode.IsExpired() {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgCodeExpired)
	}
	if !oauth2.VerifyCodeChallenge(authCode.CodeChallenge, authCode.CodeChallengeMethod, h.codeVerifier) {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgCodeVerifierFailed)
	}

	owner, err := h.codeGrantor.FindResourceOwner(authCode.OwnerID)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleCodeGrant] FindResourceOwner")
	}
	if owner == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidCode)
	}

	authCode.Redeem(NowTimeFunc())
	if err := h.codeGrantor.SaveAuthorizationCodeRedeemTime(authCode); err != nil {
		return nil, errors.Wrap(err, "[Handler.handleCodeGrant] SaveAuthorizationCodeRedeemTime")
	}

	accessToken, err := h.codeGrantor.IssueAccessToken(client, owner, authCode.Scope)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleCodeGrant] IssueAccessToken")
	}
	if err := h.attachRefreshToken(h.codeGrantor, accessToken, client, owner, authCode.Scope); err != nil {
		return nil, err
	}
	return successResponse(accessToken)
}

func (h *Handler) handlePasswordGrant() (*Response, error) {
	client, err := h.fetchClient(h.ownerGrantor)
	if err != nil {
		return nil, err
	}

	owner, err := h.ownerGrantor.AcquireResourceOwner(h.username)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handlePasswordGrant] AcquireResourceOwner")
	}
	if owner == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidOwner)
	}
	verified, err := h.ownerGrantor.VerifyResourceOwnerPassword(owner, h.password)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handlePasswordGrant] VerifyResourceOwnerPassword")
	}
	if !verified {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidOwner)
	}

	accessToken, err := h.ownerGrantor.IssueAccessToken(client, owner, h.scope)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handlePasswordGrant] IssueAccessToken")
	}
	if err := h.attachRefreshToken(h.ownerGrantor, accessToken, client, owner, h.scope); err != nil {
		return nil, err
	}
	return successResponse(accessToken)
}

func (h *Handler) handleClientCredentialsGrant() (*Response, error) {
	client, err := h.fetchClient(h.clientCredsGrantor)
	if err != nil {
		return nil, err
	}

	accessToken, err := h.clientCredsGrantor.IssueClientAccessToken(client, h.scope)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleClientCredentialsGrant] IssueClientAccessToken")
	}
	return successResponse(accessToken)
}

func (h *Handler) handleRefreshGrant() (*Response, error) {
	client, err := h.fetchClient(h.refreshGrantor)
	if err != nil {
		return nil, err
	}
	if h.refreshToken == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, msgMissingRefreshToken)
	}

	refreshToken, err := h.refreshGrantor.FindRefreshToken(h.refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleRefreshGrant] FindRefreshToken")
	}
	if refreshToken == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidRefreshToken)
	}
	if refreshToken.ClientID != client.ID {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidRefreshToken)
	}

	owner, err := h.refreshGrantor.FindResourceOwner(refreshToken.OwnerID)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleRefreshGrant] FindResourceOwner")
	}
	if owner == nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, msgInvalidRefreshToken)
	}

	accessToken, err := h.refreshGrantor.IssueAccessToken(client, owner, refreshToken.Scope)
	if err != nil {
		return nil, errors.Wrap(err, "[Handler.handleRefreshGrant] IssueAccessToken")
	}
	accessToken.RefreshToken = refreshToken.Token
	accessToken.Scope = refreshToken.Scope
	return successResponse(accessToken)
}

// attachRefreshToken adds a refresh token to the response when the grantor
// supports issuing them. An owner that already holds a refresh token for
// the client keeps it, widening its scope when the new grant covers more.
func (h *Handler) attachRefreshToken(g any, accessToken *oauth2.AccessToken, client *clients.Client, owner *owners.ResourceOwner, scope string) error {
	issuer, ok := g.(grantor.RefreshTokenIssuer)
	if !ok {
		return nil
	}

	existing, err := issuer.AcquireRefreshToken(client, owner)
	if err != nil {
		return errors.Wrap(err, "[Handler.attachRefreshToken] AcquireRefreshToken")
	}

	var refreshToken *tokens.RefreshToken
	if existing == nil {
		refreshToken, err = issuer.IssueRefreshToken(client, owner, scope)
		if err != nil {
			return errors.Wrap(err, "[Handler.attachRefreshToken] IssueRefreshToken")
		}
	} else {
		refreshToken = existing
		merged := oauth2.ParseScope(existing.Scope).Merge(oauth2.ParseScope(scope))
		if merged.String() != existing.Scope {
			refreshToken.Scope = merged.String()
			if err := issuer.SaveRefreshToken(refreshToken); err != nil {
				return errors.Wrap(err, "[Handler.attachRefreshToken] SaveRefreshToken")
			}
		}
	}
	if refreshToken != nil {
		accessToken.RefreshToken = refreshToken.Token
	}
	return nil
}

// Catch renders a Handle failure as a JSON error response. Client
// authentication failures answer 401 with a WWW-Authenticate challenge,
// degraded internal failures answer 500, everything else answers 400.
func (h *Handler) Catch(err error) *Response {
	oauthErr := oauth2.ErrorFrom(err)

	status := http.StatusBadRequest
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	switch oauthErr.Code {
	case oauth2.ErrInvalidClient:
		status = http.StatusUnauthorized
		header.Set("WWW-Authenticate", "Basic")
	case oauth2.ErrServerError:
		status = http.StatusInternalServerError
	}

	body, marshalErr := json.Marshal(oauthErr)
	if marshalErr != nil {
		body = []byte(`{"error":"server_error"}`)
		status = http.StatusInternalServerError
	}
	return &Response{Status: status, Header: header, Body: body}
}

func successResponse(accessToken *oauth2.AccessToken) (*Response, error) {
	body, err := json.Marshal(accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[successResponse] Marshal")
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Cache-Control", "no-store")
	header.Set("Pragma", "no-cache")
	return &Response{Status: http.StatusOK, Header: header, Body: body}, nil
}
