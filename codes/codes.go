package codes

import (
	"time"

	"github.com/jrsteele09/go-oauth2-core/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	// DefaultLifetime is how long a freshly issued code stays redeemable.
	DefaultLifetime = 600 * time.Second

	// DefaultExpiryLookback absorbs clock skew between the node that issued
	// a code and the node redeeming it in clustered deployments.
	DefaultExpiryLookback = 5 * time.Second
)

// AuthorizationCode is a single-use credential binding a client, a
// resource owner and a granted scope. It is created at authorization time,
// redeemed exactly once at the token endpoint, and never deleted by the
// core (retention is a host concern).
type AuthorizationCode struct {
	Code                string
	ClientID            string
	OwnerID             string
	Scope               string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod oauth2.CodeMethodType
	Lifetime            time.Duration
	CreateTime          time.Time
	RedeemTime          *time.Time

	params map[string]any
}

// Option configures an AuthorizationCode at construction time.
type Option func(*AuthorizationCode)

// WithScope sets the granted scope.
func WithScope(scope string) Option {
	return func(ac *AuthorizationCode) { ac.Scope = scope }
}

// WithRedirectURI binds the code to the redirect URI it was issued for.
// The token endpoint rejects redemption with a different redirect_uri.
func WithRedirectURI(redirectURI string) Option {
	return func(ac *AuthorizationCode) { ac.RedirectURI = redirectURI }
}

// WithCodeChallenge attaches a PKCE challenge. An empty method is coerced
// to "plain" per RFC 7636.
func WithCodeChallenge(challenge string, method oauth2.CodeMethodType) Option {
	return func(ac *AuthorizationCode) {
		ac.CodeChallenge = challenge
		if method == "" {
			method = oauth2.CodeMethodTypePlain
		}
		ac.CodeChallengeMethod = method
	}
}

// WithLifetime overrides the default redemption window.
func WithLifetime(lifetime time.Duration) Option {
	return func(ac *AuthorizationCode) { ac.Lifetime = lifetime }
}

// WithCreateTime overrides the issuance timestamp (primarily for rehydrating
// a stored code).
func WithCreateTime(t time.Time) Option {
	return func(ac *AuthorizationCode) { ac.CreateTime = t }
}

// WithRedeemTime marks the code as already redeemed (for rehydration).
func WithRedeemTime(t time.Time) Option {
	return func(ac *AuthorizationCode) { ac.RedeemTime = &t }
}

// New creates an authorization code owned by the given client and resource
// owner, created now with the default lifetime unless overridden.
func New(code, clientID, ownerID string, opts ...Option) *AuthorizationCode {
	ac := &AuthorizationCode{
		Code:                code,
		ClientID:            clientID,
		OwnerID:             ownerID,
		CodeChallengeMethod: oauth2.CodeMethodTypePlain,
		Lifetime:            DefaultLifetime,
		CreateTime:          NowTimeFunc(),
	}
	for _, opt := range opts {
		opt(ac)
	}
	return ac
}

// ExpireTime is the instant after which the code can no longer be redeemed.
func (ac *AuthorizationCode) ExpireTime() time.Time {
	return ac.CreateTime.Add(ac.Lifetime)
}

// IsUsed reports whether the code has already been redeemed.
func (ac *AuthorizationCode) IsUsed() bool {
	return ac.RedeemTime != nil
}

// IsExpiredAt reports whether the code is expired at the given instant.
// The boundary is exact: a code with lifetime L created at T is still
// valid at T+L and expired one second later.
func (ac *AuthorizationCode) IsExpiredAt(t time.Time) bool {
	return ac.ExpireTime().Before(t)
}

// IsExpired reports whether the code is expired now, allowing the default
// lookback tolerance for clock skew between issuing and redeeming nodes.
func (ac *AuthorizationCode) IsExpired() bool {
	return ac.IsExpiredWithin(DefaultExpiryLookback)
}

// IsExpiredWithin is IsExpired with an explicit lookback tolerance.
func (ac *AuthorizationCode) IsExpiredWithin(lookback time.Duration) bool {
	return ac.IsExpiredAt(NowTimeFunc().Add(-lookback))
}

// Redeem stamps the redemption time. The code's host storage must persist
// the stamp atomically so concurrent redemptions cannot both succeed.
func (ac *AuthorizationCode) Redeem(t time.Time) {
	ac.RedeemTime = &t
}

// SetParam stores an extension parameter on the code.
func (ac *AuthorizationCode) SetParam(name string, value any) {
	if ac.params == nil {
		ac.params = make(map[string]any)
	}
	ac.params[name] = value
}

// Param returns a previously stored extension parameter, or nil.
func (ac *AuthorizationCode) Param(name string) any {
	return ac.params[name]
}

func (ac *AuthorizationCode) String() string {
	return ac.Code
}
