package container

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"
)

// AsyncCloser is implemented by instances that need to run teardown work
// asynchronously. io.Closer covers everything else; a type implementing
// both is disposed via AsyncCloser by CloseAsync and via io.Closer by Close.
type AsyncCloser interface {
	CloseAsync(ctx context.Context) error
}

type instanceCacheKey struct {
	regID RegistrationID
}

// LifetimeScope is one node of the scope tree. The root is created by
// RegistryBuilder.Build; every other scope is created by BeginScope on an
// existing one. Each scope owns its own shared-instance cache and
// disposer list; resolution against it only ever reads registrations
// belonging to it or an ancestor.
type LifetimeScope struct {
	parent      *LifetimeScope
	tag         any
	registry    *Registry
	diagnostics DiagnosticListener

	sharedActivation singleflight.Group

	cacheMu   sync.Mutex
	instances map[instanceCacheKey]any

	disposeMu   sync.Mutex
	disposables []any
	disposed    bool

	onChildBeginning   eventHub[ChildScopeBeginningEvent]
	onEnding           eventHub[ScopeEndingEvent]
	onResolveBeginning eventHub[ResolveOperationBeginningEvent]
}

// rootScopeTag is the sentinel tag a root scope carries when the builder
// wasn't given a more specific one via RegistryBuilder.WithRootTag, so a
// matching-scope(tag) registration can target "the root" by name without
// the caller hardcoding a magic value themselves.
const rootScopeTag = "root"

func newRootScope(registry *Registry, diagnostics DiagnosticListener, tag any) *LifetimeScope {
	if diagnostics == nil {
		diagnostics = NoopListener{}
	}
	if tag == nil {
		tag = rootScopeTag
	}
	return &LifetimeScope{registry: registry, diagnostics: diagnostics, tag: tag, instances: make(map[instanceCacheKey]any)}
}

func (s *LifetimeScope) root() *LifetimeScope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Tag returns the tag this scope was created with: the "root" sentinel
// (or whatever RegistryBuilder.WithRootTag set) for the root scope, nil
// for an untagged sub-scope, or whatever BeginScope was given otherwise.
func (s *LifetimeScope) Tag() any { return s.tag }

// Parent returns the scope this one was begun from, or nil for the root.
func (s *LifetimeScope) Parent() *LifetimeScope { return s.parent }

// IsRegistered reports whether service has any registration visible from
// this scope, local or inherited.
func (s *LifetimeScope) IsRegistered(service ServiceKey) bool {
	return s.registry.isRegistered(service)
}

// BeginScope creates a child lifetime scope, optionally tagged. configure,
// if non-nil, receives a RegistryBuilder scoped to the child: registrations
// and sources added there apply only within the child's own sub-tree and
// are sealed once configure returns.
func (s *LifetimeScope) BeginScope(tag any, configure func(*RegistryBuilder)) (*LifetimeScope, error) {
	s.disposeMu.Lock()
	disposed := s.disposed
	s.disposeMu.Unlock()
	if disposed {
		return nil, &ObjectDisposedError{ScopeTag: s.tag}
	}

	child := &LifetimeScope{
		parent:      s,
		tag:         tag,
		registry:    newRegistry(s.registry),
		diagnostics: s.diagnostics,
		instances:   make(map[instanceCacheKey]any),
	}
	child.registry.strict = s.registry.strict

	s.onChildBeginning.fire(ChildScopeBeginningEvent{Parent: s, Child: child})

	if configure != nil {
		configure(&RegistryBuilder{registry: child.registry})
	}
	child.registry.Seal()

	if err := activateAutoActivated(child); err != nil {
		return nil, err
	}
	return child, nil
}

// Resolve activates or fetches service, starting a new ResolveOperation
// rooted at this scope.
func (s *LifetimeScope) Resolve(service ServiceKey, params ...Parameter) (any, error) {
	s.onResolveBeginning.fire(ResolveOperationBeginningEvent{Scope: s, Service: service})

	op := newResolveOperation(s, s.diagnostics, service)
	if op.diagnostics.IsEnabled() {
		op.diagnostics.Write(EventOperationStart, OperationEvent{Service: service})
	}

	instance, err := s.resolveWithOperation(op, service, params)
	op.runCompleting()

	if op.diagnostics.IsEnabled() {
		if err != nil {
			op.diagnostics.Write(EventOperationFailure, OperationEvent{Service: service, Err: err})
		} else {
			op.diagnostics.Write(EventOperationSuccess, OperationEvent{Service: service})
		}
	}
	return instance, err
}

// TryResolve reports ok=false rather than returning ComponentNotRegisteredError
// when nothing is registered for service.
func (s *LifetimeScope) TryResolve(service ServiceKey, params ...Parameter) (instance any, ok bool, err error) {
	instance, err = s.Resolve(service, params...)
	if notRegistered, isNotRegistered := err.(*ComponentNotRegisteredError); isNotRegistered && ServiceEqual(notRegistered.Service, service) {
		return nil, false, nil
	}
	return instance, true, err
}

// resolveWithOperation is the shared entry point for both the top-level
// Resolve call and ResolveRequestContext.ResolveNested, threading the same
// ResolveOperation through for cycle detection.
func (s *LifetimeScope) resolveWithOperation(op *ResolveOperation, service ServiceKey, params []Parameter) (any, error) {
	s.disposeMu.Lock()
	disposed := s.disposed
	s.disposeMu.Unlock()
	if disposed {
		return nil, &ObjectDisposedError{ScopeTag: s.tag}
	}

	if s.tag != nil {
		isolated := IsolatedService{Service: service, ScopeTag: s.tag}
		if reg, found, err := s.registry.resolveDefault(isolated); err == nil && found {
			return s.resolveRegistration(op, reg, service, params)
		}
	}

	reg, found, err := s.registry.resolveDefault(service)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &ComponentNotRegisteredError{Service: service}
	}
	return s.resolveRegistration(op, reg, service, params)
}

func (s *LifetimeScope) resolveRegistration(op *ResolveOperation, reg *Registration, service ServiceKey, params []Parameter) (any, error) {
	ctx := &ResolveRequestContext{
		Operation:    op,
		Scope:        s,
		Registration: reg,
		Service:      service,
		Parameters:   params,
	}
	s.registry.servicePipeline().Invoke(ctx)
	if ctx.Err != nil {
		return nil, ctx.Err
	}
	return ctx.Instance, nil
}

// resolveRegistrationDirect activates reg without going through default
// selection, used by auto-activation where the registration rather than
// the service is the starting point.
func (s *LifetimeScope) resolveRegistrationDirect(reg *Registration) (any, error) {
	svc := ServiceKey(AutoActivate)
	for _, sv := range reg.services {
		if _, sentinel := sv.(autoActivateService); !sentinel {
			svc = sv
			break
		}
	}
	op := newResolveOperation(s, s.diagnostics, svc)
	instance, err := s.resolveRegistration(op, reg, svc, nil)
	op.runCompleting()
	return instance, err
}

// activateAutoActivated resolves every registration carrying the
// AutoActivate sentinel service, in the order the registry enumerates
// them, once a scope finishes being built.
func activateAutoActivated(scope *LifetimeScope) error {
	found, info, err := scope.registry.tryGetServiceRegistration(AutoActivate)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	for _, reg := range info.enumerate() {
		if _, err := scope.resolveRegistrationDirect(reg); err != nil {
			return err
		}
	}
	return nil
}

func (s *LifetimeScope) lookupInstance(key instanceCacheKey) (any, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	v, ok := s.instances[key]
	return v, ok
}

func (s *LifetimeScope) storeInstance(key instanceCacheKey, v any) {
	s.cacheMu.Lock()
	s.instances[key] = v
	s.cacheMu.Unlock()
}

// trackForDisposal records instance for teardown when this scope closes,
// if it implements io.Closer or AsyncCloser. Safe to call on anything;
// instances that implement neither are silently ignored.
func (s *LifetimeScope) trackForDisposal(instance any) {
	switch instance.(type) {
	case io.Closer, AsyncCloser:
	default:
		return
	}
	s.disposeMu.Lock()
	if !s.disposed {
		s.disposables = append(s.disposables, instance)
	}
	s.disposeMu.Unlock()
}

// takeDisposables marks the scope disposed — so any resolve racing with
// this call fails fast with ObjectDisposedError rather than activating
// against a half-torn-down scope — fires ScopeEndingEvent, and hands the
// tracked disposables to the caller. ok is false if the scope was already
// disposed, in which case Close/CloseAsync are a no-op.
func (s *LifetimeScope) takeDisposables() (disposables []any, ok bool) {
	s.disposeMu.Lock()
	if s.disposed {
		s.disposeMu.Unlock()
		return nil, false
	}
	s.disposed = true
	disposables = s.disposables
	s.disposables = nil
	s.disposeMu.Unlock()

	s.onEnding.fire(ScopeEndingEvent{Scope: s})
	return disposables, true
}

// Close disposes every tracked io.Closer in reverse activation order,
// synchronously. Disposables that implement only AsyncCloser are skipped —
// there is no context to run their teardown against — so an async-only
// instance outlives a sync Close of its scope; use CloseAsync to reach it.
func (s *LifetimeScope) Close() error {
	disposables, ok := s.takeDisposables()
	if !ok {
		return nil
	}

	var firstErr error
	for i := len(disposables) - 1; i >= 0; i-- {
		closer, ok := disposables[i].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CloseAsync disposes tracked instances in reverse activation order,
// awaiting AsyncCloser instances with ctx and running io.Closer instances
// synchronously alongside them.
func (s *LifetimeScope) CloseAsync(ctx context.Context) error {
	disposables, ok := s.takeDisposables()
	if !ok {
		return nil
	}

	var firstErr error
	for i := len(disposables) - 1; i >= 0; i-- {
		switch d := disposables[i].(type) {
		case AsyncCloser:
			if err := d.CloseAsync(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		case io.Closer:
			if err := d.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
