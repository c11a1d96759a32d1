package actor

// Ref is the opaque identity of a running actor. It is comparable and valid
// as a map key; the zero Ref addresses nothing.
type Ref struct {
	path string
}

// String returns the hierarchical path of the identity, e.g.
// "/runner/transfer-1/DebitAttempt".
func (r Ref) String() string {
	return r.path
}

// IsZero reports whether the Ref addresses nothing.
func (r Ref) IsZero() bool {
	return r.path == ""
}
