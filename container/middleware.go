package container

import "reflect"

// defaultServiceMiddleware returns the built-in service-pipeline steps, in
// phase order: request bookkeeping, scope selection, decoration, and
// shared-instance lookup. The final step, chaining into the chosen
// registration's own pipeline, is the service pipeline's terminal handler
// rather than a named middleware (see Registry.servicePipeline).
func defaultServiceMiddleware() []NamedMiddleware {
	return []NamedMiddleware{
		requestStartMiddleware(),
		scopeSelectionMiddleware(),
		decorationMiddleware(),
		sharingLookupMiddleware(),
	}
}

// defaultRegistrationMiddleware returns the built-in registration-pipeline
// steps, in phase order: start bookkeeping, circular-dependency detection,
// parameter selection, disposer tracking, and the activator call itself.
func defaultRegistrationMiddleware() []NamedMiddleware {
	return []NamedMiddleware{
		registrationStartMiddleware(),
		circularDependencyMiddleware(),
		parameterSelectionMiddleware(),
		disposerTrackingMiddleware(),
		activatorCallMiddleware(),
	}
}

func requestStartMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseResolveRequestStart, Name: "request-start", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			diag := ctx.diagnosticListener()
			enabled := diag.IsEnabled()
			if enabled {
				diag.Write(EventRequestStart, RequestEvent{Service: ctx.Service, Registration: ctx.Registration})
			}
			ctx.PhaseReached = PhaseResolveRequestStart
			next(ctx)
			if !enabled {
				return
			}
			if ctx.Err != nil {
				diag.Write(EventRequestFailure, RequestEvent{Service: ctx.Service, Registration: ctx.Registration, Err: ctx.Err})
			} else {
				diag.Write(EventRequestSuccess, RequestEvent{Service: ctx.Service, Registration: ctx.Registration})
			}
		}
	}}
}

// scopeSelectionMiddleware retargets ctx.Scope according to the chosen
// registration's Lifetime before anything downstream can cache or activate
// against it.
func scopeSelectionMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseScopeSelection, Name: "scope-selection", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			reg := ctx.Registration
			target := ctx.Scope
			switch reg.lifetime {
			case LifetimeRootScope:
				target = ctx.Scope.root()
			case LifetimeMatchingScope:
				s := ctx.Scope
				target = nil
				for s != nil {
					if s.tag != nil && s.tag == reg.matchTag {
						target = s
						break
					}
					s = s.parent
				}
				if target == nil {
					ctx.Err = &NoMatchingScopeError{Tag: reg.matchTag, Service: ctx.Service}
					return
				}
			}
			if err := ctx.ChangeScope(target); err != nil {
				ctx.Err = err
				return
			}
			next(ctx)
		}
	}}
}

// decorationMiddleware lets the downstream pipeline fully activate the
// instance first, then applies decorators outermost-last, so the most
// recently registered decorator is what callers see first.
func decorationMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseDecoration, Name: "decoration", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			next(ctx)
			if ctx.Err != nil {
				return
			}
			for _, d := range ctx.Scope.registry.decoratorsFor(ctx.Service) {
				ctx.DecoratorTarget = DecoratorService{Type: reflect.TypeOf(ctx.Instance), Role: decoratorTargetRole}
				wrapped, err := d.apply(ctx.Instance, ctx)
				if err != nil {
					ctx.Err = err
					return
				}
				ctx.Instance = wrapped
			}
			ctx.DecoratorTarget = nil
		}
	}}
}

// sharingLookupMiddleware serves a cached shared instance if one already
// exists, otherwise single-flights concurrent activations of the same
// registration in the same caching scope. If this operation is already
// mid-activation of the same (scope, registration) pair — a self-cycle —
// it skips the singleflight lock entirely and calls through directly,
// letting circularDependencyMiddleware raise the real error instead of
// deadlocking on a lock this same call already holds.
func sharingLookupMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseSharingPreparation, Name: "sharing-lookup", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			reg := ctx.Registration
			if reg.sharing != SharingShared {
				next(ctx)
				return
			}
			cacheScope := ctx.Scope
			key := instanceCacheKey{regID: reg.id}
			if inst, ok := cacheScope.lookupInstance(key); ok {
				ctx.Instance = inst
				ctx.NewInstanceActivated = false
				return
			}
			if ctx.Operation.hasFrame(cacheScope, reg.id) {
				next(ctx)
				return
			}
			v, err, _ := cacheScope.sharedActivation.Do(string(reg.id), func() (any, error) {
				next(ctx)
				if ctx.Err != nil {
					return nil, ctx.Err
				}
				cacheScope.storeInstance(key, ctx.Instance)
				return ctx.Instance, nil
			})
			if err != nil {
				ctx.Err = err
				return
			}
			ctx.Instance = v
		}
	}}
}

func registrationStartMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseRegistrationPipelineStart, Name: "registration-start", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			ctx.scopeLocked = true
			ctx.PhaseReached = PhaseRegistrationPipelineStart
			next(ctx)
		}
	}}
}

func circularDependencyMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseRegistrationPipelineStart, Name: "circular-dependency-check", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			if err := ctx.Operation.enter(ctx.Scope, ctx.Registration.id, ctx.Service); err != nil {
				ctx.Err = err
				return
			}
			defer ctx.Operation.leave()
			next(ctx)
		}
	}}
}

func parameterSelectionMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseParameterSelection, Name: "parameter-selection", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			ctx.PhaseReached = PhaseParameterSelection
			next(ctx)
		}
	}}
}

// disposerTrackingMiddleware registers the activated instance with its
// scope's disposer list, unless the registration is externally owned.
func disposerTrackingMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseActivation, Name: "disposer-tracking", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			next(ctx)
			if ctx.Err != nil || ctx.Instance == nil {
				return
			}
			if ctx.Registration.ownership == ExternallyOwned {
				return
			}
			ctx.Scope.trackForDisposal(ctx.Instance)
		}
	}}
}

func activatorCallMiddleware() NamedMiddleware {
	return NamedMiddleware{Phase: PhaseActivation, Name: "activator-call", Middleware: func(next Handler) Handler {
		return func(ctx *ResolveRequestContext) {
			ctx.PhaseReached = PhaseActivation
			instance, err := ctx.Registration.activator(ctx, ctx.Parameters)
			if err != nil {
				ctx.Err = &DependencyResolutionError{Chain: []ServiceKey{ctx.Service}, Cause: err}
				return
			}
			ctx.Instance = instance
			ctx.NewInstanceActivated = true
			next(ctx)
		}
	}}
}
