package container

import (
	"fmt"
	"strings"
)

// ComponentNotRegisteredError is raised when Resolve finds no implementation
// for a service that has no applicable registration source either.
type ComponentNotRegisteredError struct {
	Service ServiceKey
}

func (e *ComponentNotRegisteredError) Error() string {
	return fmt.Sprintf("container: no registration for service %s", e.Service.String())
}

// DependencyResolutionError wraps a failure raised by an activator,
// parameter, middleware, or decorator, carrying the chain of services that
// were being resolved when it happened.
type DependencyResolutionError struct {
	Chain []ServiceKey
	Cause error
}

func (e *DependencyResolutionError) Error() string {
	names := make([]string, len(e.Chain))
	for i, s := range e.Chain {
		names[i] = s.String()
	}
	return fmt.Sprintf("container: resolving %s: %v", strings.Join(names, " -> "), e.Cause)
}

func (e *DependencyResolutionError) Unwrap() error { return e.Cause }

// CircularDependencyError is raised when an operation's in-flight set
// already contains the (scope, registration) pair being entered.
type CircularDependencyError struct {
	Chain []ServiceKey
}

func (e *CircularDependencyError) Error() string {
	names := make([]string, len(e.Chain))
	for i, s := range e.Chain {
		names[i] = s.String()
	}
	return fmt.Sprintf("container: circular dependency: %s", strings.Join(names, " -> "))
}

// NoMatchingScopeError is raised when a matching-scope(tag) registration
// finds no ancestor scope carrying that tag.
type NoMatchingScopeError struct {
	Tag     any
	Service ServiceKey
}

func (e *NoMatchingScopeError) Error() string {
	return fmt.Sprintf("container: no ancestor scope tagged %v for service %s", e.Tag, e.Service.String())
}

// ObjectDisposedError is raised when resolution is attempted on a scope
// whose disposal has already begun.
type ObjectDisposedError struct {
	ScopeTag any
}

func (e *ObjectDisposedError) Error() string {
	return fmt.Sprintf("container: lifetime scope %v has been disposed", e.ScopeTag)
}

// InvalidRegistrationStateError is raised when the registry is mutated
// after its owning scope has been built, other than through a sub-scope's
// own local registrations.
type InvalidRegistrationStateError struct {
	Reason string
}

func (e *InvalidRegistrationStateError) Error() string {
	return "container: invalid registration state: " + e.Reason
}

// PipelinePhaseViolationError is raised when middleware is added to a
// pipeline that does not accept its declared phase.
type PipelinePhaseViolationError struct {
	Phase Phase
	Kind  PipelineKind
}

func (e *PipelinePhaseViolationError) Error() string {
	return fmt.Sprintf("container: phase %s is not valid for a %s pipeline", e.Phase, e.Kind)
}
