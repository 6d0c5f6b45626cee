package authorize_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-oauth2-core/authorize"
	"github.com/jrsteele09/go-oauth2-core/oauth2"
	"github.com/stretchr/testify/require"
)

func TestRequestBreaker_ParamsFiltersUnknownAttributes(t *testing.T) {
	g := setupGrantor(t)
	query := codeRequestQuery()
	query.Set("utm_source", "newsletter")
	query.Set("code_challenge", "challenge-value")

	b := authorize.NewRequestBreaker(query, g, nil)

	params := b.Params()
	require.Equal(t, testClientID, params.Get("client_id"))
	require.Equal(t, "code", params.Get("response_type"))
	require.Equal(t, "challenge-value", params.Get("code_challenge"))
	require.False(t, params.Has("utm_source"))
}

func TestRequestBreaker_FetchClient(t *testing.T) {
	g := setupGrantor(t)
	b := authorize.NewRequestBreaker(codeRequestQuery(), g, nil)

	client, err := b.FetchClient()
	require.NoError(t, err)
	require.Equal(t, testClientID, client.ID)

	query := codeRequestQuery()
	query.Set("client_id", "unknown")
	b = authorize.NewRequestBreaker(query, g, nil)
	client, err = b.FetchClient()
	require.NoError(t, err)
	require.Nil(t, client)
}

// The presented redirect URI wins; the client registration is the fallback.
func TestRequestBreaker_FetchRedirectURI(t *testing.T) {
	g := setupGrantor(t)

	b := authorize.NewRequestBreaker(codeRequestQuery(), g, nil)
	uri, err := b.FetchRedirectURI()
	require.NoError(t, err)
	require.Equal(t, testRedirectURI, uri)

	query := codeRequestQuery()
	query.Del("redirect_uri")
	b = authorize.NewRequestBreaker(query, g, nil)
	uri, err = b.FetchRedirectURI()
	require.NoError(t, err)
	require.Equal(t, testRedirectURI, uri)
}

func TestRequestBreaker_ValidateAcceptsCodeRequest(t *testing.T) {
	g := setupGrantor(t)
	b := authorize.NewRequestBreaker(codeRequestQuery(), g, nil)
	require.NoError(t, b.Validate())
}

func TestRequestBreaker_ValidateMissingAttributes(t *testing.T) {
	g := setupGrantor(t)

	query := codeRequestQuery()
	query.Del("response_type")
	err := authorize.NewRequestBreaker(query, g, nil).Validate()
	require.ErrorContains(t, err, "Missing required 'response_type' attribute.")

	query = codeRequestQuery()
	query.Del("client_id")
	err = authorize.NewRequestBreaker(query, g, nil).Validate()
	require.ErrorContains(t, err, "Missing required 'client_id' attribute.")
}

func TestRequestBreaker_ValidateUnknownClient(t *testing.T) {
	g := setupGrantor(t)
	query := codeRequestQuery()
	query.Set("client_id", "unknown")

	err := authorize.NewRequestBreaker(query, g, nil).Validate()

	var protoErr *oauth2.Error
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, oauth2.ErrInvalidRequest, protoErr.Code)
	require.Equal(t, "Invalid client_id.", protoErr.Description)
}

func TestRequestBreaker_ValidateUnsupportedFlow(t *testing.T) {
	g := setupGrantor(t)

	// Code request against an implicit-only deployment.
	err := authorize.NewRequestBreaker(codeRequestQuery(), nil, g).Validate()
	var protoErr *oauth2.Error
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, oauth2.ErrUnsupportedResponseType, protoErr.Code)

	// Implicit request against a code-only deployment.
	query := codeRequestQuery()
	query.Set("response_type", "token")
	err = authorize.NewRequestBreaker(query, g, nil).Validate()
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, oauth2.ErrUnsupportedResponseType, protoErr.Code)
}

// Implicit requests must present a redirect URI matching the registration.
func TestRequestBreaker_ValidateImplicitRedirectURI(t *testing.T) {
	g := setupGrantor(t)

	query := codeRequestQuery()
	query.Set("response_type", "token")
	query.Del("redirect_uri")
	err := authorize.NewRequestBreaker(query, nil, g).Validate()
	require.ErrorContains(t, err, "Missing required 'redirect_uri' attribute.")

	query.Set("redirect_uri", "https://attacker.example.com/callback")
	err = authorize.NewRequestBreaker(query, nil, g).Validate()
	require.ErrorContains(t, err, "Mismatch 'redirect_uri'.")
}

// The handler built by the breaker carries the full request through.
func TestRequestBreaker_HandlerRoundTrip(t *testing.T) {
	g := setupGrantor(t)
	b := authorize.NewRequestBreaker(codeRequestQuery(), g, nil)
	require.NoError(t, b.Validate())

	resp, err := b.Handler().Handle(true)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.Status)

	u, err := url.Parse(resp.Location)
	require.NoError(t, err)
	require.NotEmpty(t, u.Query().Get("code"))
	require.Equal(t, testState, u.Query().Get("state"))
}
