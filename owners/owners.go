package owners

// ResourceOwner identifies the end user granting access. The model is
// intentionally minimal - identity resolution (accounts, profiles,
// credentials) is delegated entirely to the host application.
type ResourceOwner struct {
	ID string `json:"id"`
}

// New creates a resource owner with the given opaque identifier.
func New(id string) *ResourceOwner {
	return &ResourceOwner{ID: id}
}
