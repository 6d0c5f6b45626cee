package tokens

// RefreshToken is a long-lived credential bound to a (client, owner) pair.
// Its scope may only grow through the token endpoint's explicit merge on
// re-issuance; it is never silently narrowed.
type RefreshToken struct {
	Token    string `json:"token"`
	ClientID string `json:"clientId"`
	OwnerID  string `json:"ownerId"`
	Scope    string `json:"scope,omitempty"`
}

// NewRefreshToken creates a refresh token for the given client and owner.
func NewRefreshToken(token, clientID, ownerID, scope string) *RefreshToken {
	return &RefreshToken{
		Token:    token,
		ClientID: clientID,
		OwnerID:  ownerID,
		Scope:    scope,
	}
}

func (rt *RefreshToken) String() string {
	return rt.Token
}
