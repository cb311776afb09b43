package domain

import "strings"

// Identity is the trusted caller produced by the authenticator.
type Identity struct {
	Subject string
}

// CanonicalSubject is the form subjects are stored and compared in.
func CanonicalSubject(s string) string {
	return strings.TrimSpace(s)
}

// Owns reports whether the identity created e.
func (i Identity) Owns(e *Event) bool {
	return e != nil && CanonicalSubject(e.CreatedBy) == CanonicalSubject(i.Subject)
}
