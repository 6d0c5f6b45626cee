package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what the authorization endpoint returns to the client.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oauth2/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"

	// TokenResponseType indicates the implicit flow.
	// Returns an access token directly in the redirect URI fragment,
	// without an intermediate authorization code.
	// Security: Weaker than the code flow - the token transits through the user agent.
	TokenResponseType ResponseType = "token"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client_id, client_secret, redirect_uri, code_verifier (if PKCE)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// PasswordGrant exchanges resource owner credentials for tokens.
	// Token request includes: username, password, client_id, scope
	// This flow is discouraged by later OAuth guidance but remains supported.
	PasswordGrant GrantType = "password"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	// Token request includes: client_id, client_secret, scope
	// Returns: access_token only (no resource owner context)
	ClientCredentialsGrant GrantType = "client_credentials"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token, client_id, client_secret
	RefreshTokenGrant GrantType = "refresh_token"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
// Used to bind an authorization code to the client that requested it.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Server validates: BASE64URL(SHA256(provided code_verifier)) == stored code_challenge
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypePlain means no hashing, the code_verifier is compared directly.
	// Client sends: code_challenge = code_verifier
	// Security: Only protects against passive interception, prefer S256.
	CodeMethodTypePlain CodeMethodType = "plain"
)

// CoerceCodeMethod normalizes a wire-level challenge method value.
// An absent method defaults to "plain" per RFC 7636 section 4.3.
func CoerceCodeMethod(method string) CodeMethodType {
	if method == "" {
		return CodeMethodTypePlain
	}
	return CodeMethodType(method)
}

// TokenTypeBearer is the token type issued by this server.
const TokenTypeBearer = "Bearer"
