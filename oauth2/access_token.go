package oauth2

// AccessToken represents a successful token endpoint response.
// This is the standard OAuth2 token response format defined in RFC 6749
// section 5.1, returned for all grant types. It is produced fresh on every
// successful grant and never persisted by the protocol core.
type AccessToken struct {
	// AccessToken is the token used to access protected resources.
	// Usage: Include in the Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token (always "Bearer" here).
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Clients should refresh or re-authorize before this elapses.
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Only present when the configured grantor supports refresh token issuing.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope is the space-delimited set of granted permissions.
	// May be narrower than requested if some scopes were denied.
	Scope string `json:"scope,omitempty"`
}

// NewAccessToken builds a Bearer access token response.
func NewAccessToken(token string, expiresIn int, scope string) *AccessToken {
	return &AccessToken{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   expiresIn,
		Scope:       scope,
	}
}
