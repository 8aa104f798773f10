package container

// DecoratorFunc receives the already-activated instance of T plus the
// request context — so a decorator can pull in further dependencies via
// ctx.ResolveNested — and returns the replacement instance.
type DecoratorFunc[T any] func(instance T, ctx *ResolveRequestContext) (T, error)

// AddDecorator registers a decorator for T against b. Decorators for a
// service apply in registration order once downstream activation has
// fully completed; the most recently registered one wraps outermost.
func AddDecorator[T any](b *RegistryBuilder, fn DecoratorFunc[T]) {
	svc := TypedOf[T]()
	b.registry.addDecorator(svc, func(instance any, ctx *ResolveRequestContext) (any, error) {
		typed, ok := instance.(T)
		if !ok {
			return nil, &InvalidRegistrationStateError{Reason: "decorator type mismatch for " + svc.String()}
		}
		return fn(typed, ctx)
	})
}

// AddKeyedDecorator is AddDecorator for a KeyedService target rather than
// a plain typed one.
func AddKeyedDecorator[T any](b *RegistryBuilder, key any, fn DecoratorFunc[T]) {
	svc := KeyedOf[T](key)
	b.registry.addDecorator(svc, func(instance any, ctx *ResolveRequestContext) (any, error) {
		typed, ok := instance.(T)
		if !ok {
			return nil, &InvalidRegistrationStateError{Reason: "decorator type mismatch for " + svc.String()}
		}
		return fn(typed, ctx)
	})
}
