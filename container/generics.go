package container

import "sync"

// Resolve activates or fetches the instance of T registered against
// scope, the generic front door to Scope.Resolve(TypedOf[T]()).
func Resolve[T any](scope *LifetimeScope, params ...Parameter) (T, error) {
	v, err := scope.Resolve(TypedOf[T](), params...)
	return castOrZero[T](v, err)
}

// ResolveKeyed is Resolve for a KeyedService(T, key).
func ResolveKeyed[T any](scope *LifetimeScope, key any, params ...Parameter) (T, error) {
	v, err := scope.Resolve(KeyedOf[T](key), params...)
	return castOrZero[T](v, err)
}

// ResolveAll activates every non-excluded registration providing T,
// through the []T collection adapter (CollectionSource).
func ResolveAll[T any](scope *LifetimeScope, params ...Parameter) ([]T, error) {
	svc := TypedOf[[]T]()
	v, err := scope.Resolve(svc, params...)
	if err != nil {
		return nil, err
	}
	out, ok := v.([]T)
	if !ok {
		return nil, &InvalidRegistrationStateError{Reason: "collection element type mismatch for " + svc.String()}
	}
	return out, nil
}

func castOrZero[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &InvalidRegistrationStateError{Reason: "resolved value does not match the requested type"}
	}
	return typed, nil
}

// Lazy defers activation of T until Value is first called, then caches
// the result (or the error) for the lifetime of the Lazy itself.
type Lazy[T any] struct {
	once    sync.Once
	value   T
	err     error
	resolve func() (T, error)
}

// Value activates T on first call and returns the cached result on every
// later call.
func (l *Lazy[T]) Value() (T, error) {
	l.once.Do(func() {
		l.value, l.err = l.resolve()
	})
	return l.value, l.err
}

// ResolveLazy returns a Lazy[T] bound to scope; nothing is activated
// until Value is called.
func ResolveLazy[T any](scope *LifetimeScope, params ...Parameter) *Lazy[T] {
	return &Lazy[T]{resolve: func() (T, error) { return Resolve[T](scope, params...) }}
}

// Owned pairs an activated instance with the private sub-scope it was
// activated in. Close tears that sub-scope down, disposing Value along
// with anything else the sub-scope's activation pulled in.
type Owned[T any] struct {
	Value T
	scope *LifetimeScope
}

// Close disposes the private scope Value was activated in.
func (o Owned[T]) Close() error {
	if o.scope == nil {
		return nil
	}
	return o.scope.Close()
}

// ResolveOwned activates T in a fresh, unnamed sub-scope of scope, giving
// the caller sole responsibility for disposing it via Owned.Close.
func ResolveOwned[T any](scope *LifetimeScope, params ...Parameter) (Owned[T], error) {
	child, err := scope.BeginScope(nil, nil)
	if err != nil {
		var zero T
		return Owned[T]{Value: zero}, err
	}
	v, err := Resolve[T](child, params...)
	if err != nil {
		_ = child.Close()
		var zero T
		return Owned[T]{Value: zero}, err
	}
	return Owned[T]{Value: v, scope: child}, nil
}

// Meta pairs an activated instance with the metadata its winning
// registration carried.
type Meta[T any] struct {
	Value    T
	Metadata map[string]any
}

// ResolveMeta is Resolve plus the winning registration's metadata.
func ResolveMeta[T any](scope *LifetimeScope, params ...Parameter) (Meta[T], error) {
	svc := TypedOf[T]()
	reg, found, err := scope.registry.resolveDefault(svc)
	if err != nil {
		var zero T
		return Meta[T]{Value: zero}, err
	}
	if !found {
		var zero T
		return Meta[T]{Value: zero}, &ComponentNotRegisteredError{Service: svc}
	}

	op := newResolveOperation(scope, scope.diagnostics, svc)
	instance, err := scope.resolveRegistration(op, reg, svc, paramSlice(params))
	op.runCompleting()
	if err != nil {
		var zero T
		return Meta[T]{Value: zero}, err
	}
	typed, ok := instance.(T)
	if !ok {
		var zero T
		return Meta[T]{Value: zero}, &InvalidRegistrationStateError{Reason: "meta type mismatch for " + svc.String()}
	}

	md := make(map[string]any, len(reg.metadata))
	for k, v := range reg.metadata {
		md[k] = v
	}
	return Meta[T]{Value: typed, Metadata: md}, nil
}

// Factory returns a plain func wrapper around Resolve[T], letting an
// activator depend on "a way to make more of T" without depending on the
// container type directly.
func Factory[T any](scope *LifetimeScope) func(...Parameter) (T, error) {
	return func(params ...Parameter) (T, error) {
		return Resolve[T](scope, params...)
	}
}

func paramSlice(params []Parameter) []Parameter {
	if len(params) == 0 {
		return nil
	}
	return params
}
