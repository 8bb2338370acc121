// internal/resolver/errors.go
package resolver

import (
	"errors"
	"fmt"
)

// Kind identifies why a resolution failed.
type Kind string

const (
	KindInvalidName          Kind = "InvalidName"
	KindNetworkTimeout       Kind = "NetworkTimeout"
	KindMalformedResponse    Kind = "MalformedResponse"
	KindNoDelegationPath     Kind = "NoDelegationPath"
	KindUnresolvableNSNoGlue Kind = "UnresolvableNsWithoutGlue"
	KindDepthExceeded        Kind = "DepthExceeded"
	KindIterationLimit       Kind = "IterationLimitReached"
)

// Error is a resolution failure. Failures are ordinary outcomes here: the
// server surfaces every one of them to the client as SERVFAIL and keeps
// running.
type Error struct {
	Kind   Kind
	Domain string
	Server string
	Err    error
}

func (e *Error) Error() string {
	if e.Server != "" {
		return fmt.Sprintf("resolve %s: %s (server %s)", e.Domain, e.Kind, e.Server)
	}
	return fmt.Sprintf("resolve %s: %s", e.Domain, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a resolution failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == kind
}
