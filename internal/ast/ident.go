package ast

import "strings"

// Ident is a non-empty dotted path of name segments (§3.1), e.g. "a.b.c".
// The last segment is the simple name. Equality and hashing are structural,
// so Ident is safe to use as a map key directly.
type Ident []string

// NewIdent splits a dotted path string into an Ident.
func NewIdent(path string) Ident {
	if path == "" {
		return nil
	}
	return Ident(strings.Split(path, "."))
}

// String renders the Ident back to its dotted form.
func (id Ident) String() string {
	return strings.Join(id, ".")
}

// Name is the last path segment, the simple name this ident binds to.
func (id Ident) Name() string {
	if len(id) == 0 {
		return ""
	}
	return id[len(id)-1]
}

// Path is every segment but the last, i.e. the containing module path.
func (id Ident) Path() Ident {
	if len(id) <= 1 {
		return nil
	}
	return append(Ident{}, id[:len(id)-1]...)
}

// Prepend returns a new Ident with the given path segments prefixed.
func (id Ident) Prepend(prefix Ident) Ident {
	out := make(Ident, 0, len(prefix)+len(id))
	out = append(out, prefix...)
	out = append(out, id...)
	return out
}

// Append returns a new Ident with name segments appended.
func (id Ident) Append(names ...string) Ident {
	out := make(Ident, 0, len(id)+len(names))
	out = append(out, id...)
	out = append(out, names...)
	return out
}

// Equal reports structural equality.
func (id Ident) Equal(other Ident) bool {
	if len(id) != len(other) {
		return false
	}
	for i := range id {
		if id[i] != other[i] {
			return false
		}
	}
	return true
}
