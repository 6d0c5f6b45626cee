// Package memgrantor provides an in-memory implementation of every grantor
// capability. It backs the development server and the end-to-end tests;
// production hosts implement the grantor interfaces against their own
// storage instead.
package memgrantor

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-oauth2-core/clients"
	"github.com/jrsteele09/go-oauth2-core/codes"
	"github.com/jrsteele09/go-oauth2-core/grantor"
	"github.com/jrsteele09/go-oauth2-core/oauth2"
	"github.com/jrsteele09/go-oauth2-core/owners"
	"github.com/jrsteele09/go-oauth2-core/tokens"
)

const codeGenerationLength = 32

// Compile-time capability checks.
var (
	_ grantor.AuthorizationCodeGrantor = (*Grantor)(nil)
	_ grantor.ImplicitGrantor          = (*Grantor)(nil)
	_ grantor.OwnerCredentialsGrantor  = (*Grantor)(nil)
	_ grantor.ClientCredentialsGrantor = (*Grantor)(nil)
	_ grantor.RefreshTokenGrantor      = (*Grantor)(nil)
	_ grantor.RefreshTokenIssuer       = (*Grantor)(nil)
)

type ownerRecord struct {
	owner        *owners.ResourceOwner
	username     string
	passwordHash []byte
}

// Grantor is an in-memory host implementation of all grantor capabilities,
// including the optional refresh token issuer extension. Access tokens are
// HS256 JWTs; codes and refresh tokens are opaque random strings.
type Grantor struct {
	mu sync.RWMutex

	clients        map[string]*clients.Client
	owners         map[string]*ownerRecord // keyed by owner ID
	usernames      map[string]string       // username -> owner ID
	codes          map[string]*codes.AuthorizationCode
	refreshTokens  map[string]*tokens.RefreshToken
	refreshByGrant map[string]string // clientID+"\x00"+ownerID -> token

	currentOwnerID    string
	issuer            string
	signingSecret     []byte
	codeLifetime      time.Duration
	accessTokenExpiry time.Duration
	nowTime           func() time.Time
}

// Option configures the Grantor.
type Option func(*Grantor)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Grantor) { g.nowTime = nowFunc }
}

// WithSigningSecret sets the HS256 secret used for access tokens.
func WithSigningSecret(secret []byte) Option {
	return func(g *Grantor) { g.signingSecret = secret }
}

// WithCodeLifetime overrides the authorization code redemption window.
func WithCodeLifetime(lifetime time.Duration) Option {
	return func(g *Grantor) { g.codeLifetime = lifetime }
}

// WithAccessTokenExpiry overrides the access token lifetime.
func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(g *Grantor) { g.accessTokenExpiry = expiry }
}

// WithIssuer sets the iss claim of minted access tokens.
func WithIssuer(issuer string) Option {
	return func(g *Grantor) { g.issuer = issuer }
}

// New creates an empty in-memory grantor.
func New(opts ...Option) *Grantor {
	g := &Grantor{
		clients:           make(map[string]*clients.Client),
		owners:            make(map[string]*ownerRecord),
		usernames:         make(map[string]string),
		codes:             make(map[string]*codes.AuthorizationCode),
		refreshTokens:     make(map[string]*tokens.RefreshToken),
		refreshByGrant:    make(map[string]string),
		issuer:            "go-oauth2-core",
		signingSecret:     []byte("dev-signing-secret"),
		codeLifetime:      codes.DefaultLifetime,
		accessTokenExpiry: time.Hour,
		nowTime:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RegisterClient adds or replaces a client registration.
func (g *Grantor) RegisterClient(client *clients.Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[client.ID] = client
}

// RegisterOwner adds a resource owner with login credentials.
func (g *Grantor) RegisterOwner(ownerID, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "[RegisterOwner] hashing password")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owners[ownerID] = &ownerRecord{
		owner:        owners.New(ownerID),
		username:     username,
		passwordHash: hash,
	}
	g.usernames[username] = ownerID
	return nil
}

// SetCurrentOwner binds the session identity returned by
// GetCurrentResourceOwner. The development server authenticates exactly
// one user at a time; a real host resolves this from its login session.
func (g *Grantor) SetCurrentOwner(ownerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentOwnerID = ownerID
}

func (g *Grantor) FindClient(clientID string) (*clients.Client, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clients[clientID], nil
}

func (g *Grantor) FindResourceOwner(ownerID string) (*owners.ResourceOwner, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	record, ok := g.owners[ownerID]
	if !ok {
		return nil, nil
	}
	return record.owner, nil
}

func (g *Grantor) GetCurrentResourceOwner() (*owners.ResourceOwner, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.currentOwnerID == "" {
		return nil, nil
	}
	record, ok := g.owners[g.currentOwnerID]
	if !ok {
		return nil, nil
	}
	return record.owner, nil
}

func (g *Grantor) AcquireResourceOwner(username string) (*owners.ResourceOwner, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ownerID, ok := g.usernames[username]
	if !ok {
		return nil, nil
	}
	return g.owners[ownerID].owner, nil
}

func (g *Grantor) VerifyResourceOwnerPassword(owner *owners.ResourceOwner, password string) (bool, error) {
	g.mu.RLock()
	record, ok := g.owners[owner.ID]
	g.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword(record.passwordHash, []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

func (g *Grantor) IssueAuthorizationCode(
	client *clients.Client,
	owner *owners.ResourceOwner,
	scope string,
	redirectURI string,
	codeChallenge string,
	codeChallengeMethod oauth2.CodeMethodType,
) (*codes.AuthorizationCode, error) {
	code, err := randomToken()
	if err != nil {
		return nil, errors.Wrap(err, "[IssueAuthorizationCode] generating code")
	}

	opts := []codes.Option{
		codes.WithScope(scope),
		codes.WithRedirectURI(redirectURI),
		codes.WithLifetime(g.codeLifetime),
		codes.WithCreateTime(g.nowTime()),
	}
	if codeChallenge != "" {
		opts = append(opts, codes.WithCodeChallenge(codeChallenge, codeChallengeMethod))
	}
	authCode := codes.New(code, client.ID, owner.ID, opts...)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.codes[code] = authCode
	return authCode, nil
}

func (g *Grantor) FindAuthorizationCode(code string) (*codes.AuthorizationCode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.codes[code], nil
}

func (g *Grantor) SaveAuthorizationCodeRedeemTime(authCode *codes.AuthorizationCode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored, ok := g.codes[authCode.Code]
	if !ok {
		return errors.New("[SaveAuthorizationCodeRedeemTime] unknown authorization code")
	}
	if stored.IsUsed() && stored != authCode {
		return errors.New("[SaveAuthorizationCodeRedeemTime] authorization code already redeemed")
	}
	stored.RedeemTime = authCode.RedeemTime
	return nil
}

func (g *Grantor) IssueAccessToken(client *clients.Client, owner *owners.ResourceOwner, scope string) (*oauth2.AccessToken, error) {
	return g.mintAccessToken(client, owner.ID, "user", scope)
}

func (g *Grantor) IssueClientAccessToken(client *clients.Client, scope string) (*oauth2.AccessToken, error) {
	return g.mintAccessToken(client, client.ID, "client", scope)
}

func (g *Grantor) mintAccessToken(client *clients.Client, subject, tokenType, scope string) (*oauth2.AccessToken, error) {
	now := g.nowTime()
	claims := jwtlib.MapClaims{
		"iss":        g.issuer,
		"sub":        subject,
		"client_id":  client.ID,
		"scope":      scope,
		"token_type": tokenType,
		"iat":        now.Unix(),
		"exp":        now.Add(g.accessTokenExpiry).Unix(),
		"jti":        uuid.New().String(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(g.signingSecret)
	if err != nil {
		return nil, errors.Wrap(err, "[mintAccessToken] signing JWT")
	}
	return oauth2.NewAccessToken(signed, int(g.accessTokenExpiry.Seconds()), scope), nil
}

func (g *Grantor) FindRefreshToken(token string) (*tokens.RefreshToken, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.refreshTokens[token], nil
}

func (g *Grantor) AcquireRefreshToken(client *clients.Client, owner *owners.ResourceOwner) (*tokens.RefreshToken, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	token, ok := g.refreshByGrant[grantKey(client.ID, owner.ID)]
	if !ok {
		return nil, nil
	}
	return g.refreshTokens[token], nil
}

func (g *Grantor) IssueRefreshToken(client *clients.Client, owner *owners.ResourceOwner, scope string) (*tokens.RefreshToken, error) {
	refreshToken := tokens.NewRefreshToken(uuid.New().String(), client.ID, owner.ID, scope)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshTokens[refreshToken.Token] = refreshToken
	g.refreshByGrant[grantKey(client.ID, owner.ID)] = refreshToken.Token
	return refreshToken, nil
}

func (g *Grantor) SaveRefreshToken(refreshToken *tokens.RefreshToken) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.refreshTokens[refreshToken.Token]; !ok {
		return errors.New("[SaveRefreshToken] unknown refresh token")
	}
	g.refreshTokens[refreshToken.Token] = refreshToken
	return nil
}

func grantKey(clientID, ownerID string) string {
	return clientID + "\x00" + ownerID
}

func randomToken() (string, error) {
	bytes := make([]byte, codeGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
