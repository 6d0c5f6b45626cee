package clients

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (SPAs, mobile apps)
)

// Client is a registered OAuth2 client application. A confidential client
// always carries a non-empty secret; a public client's secret is never
// checked by the token endpoint.
type Client struct {
	ID          string     `json:"id"`
	Type        ClientType `json:"type"` // public or confidential
	Secret      string     `json:"secret,omitempty"`
	RedirectURI string     `json:"redirectURI,omitempty"` // Registered redirect URI, if any

	params map[string]any
}

// IsPublic returns true if the client is a public client
func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// IsConfidential returns true if the client can hold a secret
func (c *Client) IsConfidential() bool {
	return c.Type == ClientTypeConfidential
}

// SetParam stores an extension parameter on the client.
func (c *Client) SetParam(name string, value any) {
	if c.params == nil {
		c.params = make(map[string]any)
	}
	c.params[name] = value
}

// Param returns a previously stored extension parameter, or nil.
func (c *Client) Param(name string) any {
	return c.params[name]
}
