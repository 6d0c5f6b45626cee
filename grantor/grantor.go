// Package grantor defines the capability contracts a host application
// implements against its own storage and identity systems to support the
// OAuth2 flows. Each flow requires a specific composition of the narrow
// primitives below; a host implements only the composites for the flows it
// wants to serve.
//
// Finder methods return (nil, nil) when the subject does not exist; a
// non-nil error means the host itself failed (storage down, inconsistent
// data) and is surfaced to the client as server_error.
package grantor

import (
	"github.com/jrsteele09/go-oauth2-core/clients"
	"github.com/jrsteele09/go-oauth2-core/codes"
	"github.com/jrsteele09/go-oauth2-core/oauth2"
	"github.com/jrsteele09/go-oauth2-core/owners"
	"github.com/jrsteele09/go-oauth2-core/tokens"
)

// ClientFinder resolves registered clients by their client_id.
type ClientFinder interface {
	FindClient(clientID string) (*clients.Client, error)
}

// ResourceOwnerFinder resolves resource owners by their opaque identifier.
type ResourceOwnerFinder interface {
	FindResourceOwner(ownerID string) (*owners.ResourceOwner, error)
}

// CurrentOwnerProvider exposes the session-bound identity of the user
// currently interacting with the authorization endpoint.
type CurrentOwnerProvider interface {
	GetCurrentResourceOwner() (*owners.ResourceOwner, error)
}

// AccessTokenIssuer mints owner-delegated access tokens.
type AccessTokenIssuer interface {
	IssueAccessToken(client *clients.Client, owner *owners.ResourceOwner, scope string) (*oauth2.AccessToken, error)
}

// AuthorizationCodeGrantor is the capability set required to serve the
// authorization code flow on both endpoints.
type AuthorizationCodeGrantor interface {
	CurrentOwnerProvider
	ClientFinder
	ResourceOwnerFinder
	AccessTokenIssuer

	// IssueAuthorizationCode mints and persists a new single-use code bound
	// to the client, owner, scope, redirect URI and PKCE challenge.
	IssueAuthorizationCode(
		client *clients.Client,
		owner *owners.ResourceOwner,
		scope string,
		redirectURI string,
		codeChallenge string,
		codeChallengeMethod oauth2.CodeMethodType,
	) (*codes.AuthorizationCode, error)

	// FindAuthorizationCode resolves a previously issued code.
	FindAuthorizationCode(code string) (*codes.AuthorizationCode, error)

	// SaveAuthorizationCodeRedeemTime persists the code's redeem timestamp.
	// The host must make the update atomic: two concurrent redemptions of
	// the same code must not both succeed.
	SaveAuthorizationCodeRedeemTime(authCode *codes.AuthorizationCode) error
}

// ImplicitGrantor is the capability set required to serve the implicit
// flow at the authorization endpoint.
type ImplicitGrantor interface {
	CurrentOwnerProvider
	ClientFinder
	AccessTokenIssuer
}

// OwnerCredentialsGrantor is the capability set required to serve the
// resource owner password credentials grant.
type OwnerCredentialsGrantor interface {
	ClientFinder
	AccessTokenIssuer

	// AcquireResourceOwner resolves an owner by login username.
	AcquireResourceOwner(username string) (*owners.ResourceOwner, error)

	// VerifyResourceOwnerPassword checks the owner's password. A false
	// return with nil error means the credentials simply did not match.
	VerifyResourceOwnerPassword(owner *owners.ResourceOwner, password string) (bool, error)
}

// ClientCredentialsGrantor is the capability set required to serve the
// client credentials grant (machine-to-machine, no resource owner).
type ClientCredentialsGrantor interface {
	ClientFinder

	IssueClientAccessToken(client *clients.Client, scope string) (*oauth2.AccessToken, error)
}

// RefreshTokenGrantor is the capability set required to serve the
// refresh_token grant.
type RefreshTokenGrantor interface {
	ClientFinder
	ResourceOwnerFinder
	AccessTokenIssuer

	FindRefreshToken(token string) (*tokens.RefreshToken, error)
}

// RefreshTokenIssuer is an optional extension. When a host's
// AuthorizationCodeGrantor or OwnerCredentialsGrantor also satisfies it,
// every successful authorization_code or password grant mints or extends a
// refresh token and attaches it to the access token response. The token
// endpoint detects the capability with a type assertion; hosts that do not
// implement it simply issue access tokens without refresh tokens.
type RefreshTokenIssuer interface {
	// AcquireRefreshToken returns the existing refresh token for the
	// (client, owner) pair, or (nil, nil) when none exists yet.
	AcquireRefreshToken(client *clients.Client, owner *owners.ResourceOwner) (*tokens.RefreshToken, error)

	// IssueRefreshToken mints and persists a new refresh token.
	IssueRefreshToken(client *clients.Client, owner *owners.ResourceOwner, scope string) (*tokens.RefreshToken, error)

	// SaveRefreshToken persists a scope widening of an existing token.
	SaveRefreshToken(refreshToken *tokens.RefreshToken) error
}
