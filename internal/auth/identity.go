package auth

// Identity is the authenticated caller attached to a request after its
// bearer token has been verified.
type Identity struct {
	UserID string
}
