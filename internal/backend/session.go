// Package backend is the IR seam of the compiler. It wraps llir/llvm
// modules in namespaces owned by a Session; compiler modules refer to their
// namespace through a NamespaceID handle.
package backend

import (
	"fmt"

	"fortio.org/safecast"
)

// NamespaceID is a handle to a namespace inside its Session.
type NamespaceID uint32

// Session owns every namespace created during one compilation.
type Session struct {
	spaces []*Namespace
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{spaces: make([]*Namespace, 0, 8)}
}

// NewNamespace creates a namespace named name with the printf intrinsic declared.
func (s *Session) NewNamespace(name string) (NamespaceID, error) {
	id, err := safecast.Conv[uint32](len(s.spaces))
	if err != nil {
		return 0, fmt.Errorf("backend: too many namespaces: %w", err)
	}
	ns := newNamespace(name)
	s.spaces = append(s.spaces, ns)
	return NamespaceID(id), nil
}

// Namespace resolves a handle. It panics on a handle from another session.
func (s *Session) Namespace(id NamespaceID) *Namespace {
	if int(id) >= len(s.spaces) {
		panic(fmt.Sprintf("backend: namespace %d out of range (%d)", id, len(s.spaces)))
	}
	return s.spaces[id]
}

// Len returns the number of namespaces created so far.
func (s *Session) Len() int { return len(s.spaces) }
