package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	xoauth2 "golang.org/x/oauth2"

	"github.com/jrsteele09/go-oauth2-core/authorize"
	"github.com/jrsteele09/go-oauth2-core/clients"
	"github.com/jrsteele09/go-oauth2-core/grantor/memgrantor"
	"github.com/jrsteele09/go-oauth2-core/internal/config"
	"github.com/jrsteele09/go-oauth2-core/server"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "0123456789abcdef"
	testClientSecret = "test-secret-1"
	testOwnerID      = "owner-1"
	testUsername     = "john.doe@example.com"
	testPassword     = "password123"
	testRedirectURI  = "https://example.com/oauth2/callback"
	testState        = "9kl3fjhk"
)

type testFixture struct {
	grantor *memgrantor.Grantor
	ts      *httptest.Server
}

func setupTestFixture(t *testing.T, opts ...server.Option) *testFixture {
	t.Helper()

	g := memgrantor.New(memgrantor.WithSigningSecret([]byte("test-signing-secret")))
	g.RegisterClient(&clients.Client{
		ID:          testClientID,
		Type:        clients.ClientTypeConfidential,
		Secret:      testClientSecret,
		RedirectURI: testRedirectURI,
	})
	require.NoError(t, g.RegisterOwner(testOwnerID, testUsername, testPassword))
	g.SetCurrentOwner(testOwnerID)

	grantors := server.Grantors{
		Code:              g,
		Implicit:          g,
		OwnerCredentials:  g,
		ClientCredentials: g,
		RefreshToken:      g,
	}
	ts := httptest.NewServer(server.New(config.New(), grantors, opts...))
	t.Cleanup(ts.Close)

	return &testFixture{grantor: g, ts: ts}
}

// noRedirectClient stops at the first redirect so the Location header can
// be inspected.
func (f *testFixture) noRedirectClient() *http.Client {
	client := f.ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func (f *testFixture) oauthConfig() *xoauth2.Config {
	return &xoauth2.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		RedirectURL:  testRedirectURI,
		Scopes:       []string{"read", "write"},
		Endpoint: xoauth2.Endpoint{
			AuthURL:   f.ts.URL + server.RouteOAuth2Authorize,
			TokenURL:  f.ts.URL + server.RouteOAuth2Token,
			AuthStyle: xoauth2.AuthStyleInParams,
		},
	}
}

// authorizeRequest runs the authorization endpoint and returns the
// redirect response.
func (f *testFixture) authorizeRequest(t *testing.T, authURL string) *http.Response {
	t.Helper()
	resp, err := f.noRedirectClient().Get(authURL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthorizeAndExchange_FullCodeFlow(t *testing.T) {
	f := setupTestFixture(t)
	conf := f.oauthConfig()

	resp := f.authorizeRequest(t, conf.AuthCodeURL(testState))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(location.String(), testRedirectURI))
	require.Equal(t, testState, location.Query().Get("state"))

	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	ctx := context.WithValue(context.Background(), xoauth2.HTTPClient, f.ts.Client())
	tok, err := conf.Exchange(ctx, code)
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.NotEmpty(t, tok.RefreshToken)
}

func TestAuthorize_DeniedReportsOnRedirect(t *testing.T) {
	denyAll := func(*http.Request, *authorize.RequestBreaker) bool { return false }
	f := setupTestFixture(t, server.WithApprovalFunc(denyAll))
	conf := f.oauthConfig()

	resp := f.authorizeRequest(t, conf.AuthCodeURL(testState))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "access_denied", location.Query().Get("error"))
	require.Equal(t, testState, location.Query().Get("state"))
}

func TestAuthorize_MissingRedirectURIIsDirect400(t *testing.T) {
	f := setupTestFixture(t)

	authURL := f.ts.URL + server.RouteOAuth2Authorize +
		"?response_type=code&client_id=" + testClientID
	resp := f.authorizeRequest(t, authURL)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToken_InvalidClientAnswers401(t *testing.T) {
	f := setupTestFixture(t)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {testClientID},
		"client_secret": {"wrong"},
	}
	resp, err := f.ts.Client().PostForm(f.ts.URL+server.RouteOAuth2Token, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Basic", resp.Header.Get("WWW-Authenticate"))

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "invalid_client", body.Error)
}

// Credentials in the Authorization header take precedence over body
// parameters.
func TestToken_BasicAuthOverridesBody(t *testing.T) {
	f := setupTestFixture(t)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {testClientID},
		"client_secret": {"wrong-in-body"},
	}
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+server.RouteOAuth2Token,
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(testClientID, testClientSecret)

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// An implicit request against a deployment with no implicit grantor
// reports on the fragment channel.
func TestAuthorize_ImplicitUnsupportedReportsOnFragment(t *testing.T) {
	g := memgrantor.New(memgrantor.WithSigningSecret([]byte("test-signing-secret")))
	g.RegisterClient(&clients.Client{
		ID:          testClientID,
		Type:        clients.ClientTypeConfidential,
		Secret:      testClientSecret,
		RedirectURI: testRedirectURI,
	})
	require.NoError(t, g.RegisterOwner(testOwnerID, testUsername, testPassword))
	g.SetCurrentOwner(testOwnerID)

	ts := httptest.NewServer(server.New(config.New(), server.Grantors{Code: g}))
	t.Cleanup(ts.Close)

	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	authURL := ts.URL + server.RouteOAuth2Authorize +
		"?response_type=token&client_id=" + testClientID +
		"&redirect_uri=" + url.QueryEscape(testRedirectURI) +
		"&state=" + testState
	resp, err := client.Get(authURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, fragment, found := strings.Cut(resp.Header.Get("Location"), "#")
	require.True(t, found)
	params, err := url.ParseQuery(fragment)
	require.NoError(t, err)
	require.Equal(t, "unsupported_response_type", params.Get("error"))
	require.Equal(t, testState, params.Get("state"))
}

func TestToken_SecondRedemptionFails(t *testing.T) {
	f := setupTestFixture(t)
	conf := f.oauthConfig()

	resp := f.authorizeRequest(t, conf.AuthCodeURL(testState))
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {testClientID},
		"client_secret": {testClientSecret},
		"code":          {code},
		"redirect_uri":  {testRedirectURI},
	}
	first, err := f.ts.Client().PostForm(f.ts.URL+server.RouteOAuth2Token, form)
	require.NoError(t, err)
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second, err := f.ts.Client().PostForm(f.ts.URL+server.RouteOAuth2Token, form)
	require.NoError(t, err)
	defer second.Body.Close()
	require.Equal(t, http.StatusBadRequest, second.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(second.Body).Decode(&body))
	require.Equal(t, "invalid_grant", body.Error)
}

func TestToken_PasswordGrantOverHTTP(t *testing.T) {
	f := setupTestFixture(t)
	conf := f.oauthConfig()

	ctx := context.WithValue(context.Background(), xoauth2.HTTPClient, f.ts.Client())
	tok, err := conf.PasswordCredentialsToken(ctx, testUsername, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)
}
