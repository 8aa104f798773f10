package container

import "sync"

// eventHub is a minimal synchronous pub-sub list: every subscriber is
// invoked on the producing goroutine, in subscription order, with no
// buffering or delivery guarantees beyond that.
type eventHub[T any] struct {
	mu   sync.Mutex
	subs []func(T)
}

func (h *eventHub[T]) subscribe(fn func(T)) {
	h.mu.Lock()
	h.subs = append(h.subs, fn)
	h.mu.Unlock()
}

func (h *eventHub[T]) fire(v T) {
	h.mu.Lock()
	subs := append([]func(T){}, h.subs...)
	h.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

// ChildScopeBeginningEvent fires just before a new sub-scope's local
// registrations are applied.
type ChildScopeBeginningEvent struct {
	Parent *LifetimeScope
	Child  *LifetimeScope
}

// ScopeEndingEvent fires at the start of Close/CloseAsync, before any
// tracked disposable runs.
type ScopeEndingEvent struct {
	Scope *LifetimeScope
}

// ResolveOperationBeginningEvent fires once per user-facing Resolve call,
// before the operation's pipeline walk starts.
type ResolveOperationBeginningEvent struct {
	Scope   *LifetimeScope
	Service ServiceKey
}

// OnChildLifetimeScopeBeginning subscribes to this scope's child-beginning
// event.
func (s *LifetimeScope) OnChildLifetimeScopeBeginning(fn func(ChildScopeBeginningEvent)) {
	s.onChildBeginning.subscribe(fn)
}

// OnCurrentScopeEnding subscribes to this scope's ending event.
func (s *LifetimeScope) OnCurrentScopeEnding(fn func(ScopeEndingEvent)) {
	s.onEnding.subscribe(fn)
}

// OnResolveOperationBeginning subscribes to this scope's resolve-operation
// event.
func (s *LifetimeScope) OnResolveOperationBeginning(fn func(ResolveOperationBeginningEvent)) {
	s.onResolveBeginning.subscribe(fn)
}
