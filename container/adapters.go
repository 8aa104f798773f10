package container

import "reflect"

// CollectionSource synthesizes the []ElemType registration the first time
// that slice type is resolved: one registration whose activator walks
// every non-excluded registration providing ElemType and activates each
// through this same registry's own view (so a sub-scope's collection
// includes both its own and its ancestors' registrations; see
// Registry.servicesFor). Building the slice only needs reflect.SliceOf
// and reflect.Append, not generic instantiation, since ElemType is
// already a concrete reflect.Type by the time a service is looked up.
type CollectionSource struct{}

func (CollectionSource) IsAdapterForIndividualComponents() bool { return false }

func (CollectionSource) RegistrationsFor(service ServiceKey, accessor RegistrationAccessor) []*Registration {
	typed, ok := service.(TypedService)
	if !ok || typed.Type.Kind() != reflect.Slice {
		return nil
	}
	elem := typed.Type.Elem()
	elemService := TypedService{Type: elem}
	regs, found := accessor(elemService)
	if !found {
		return nil
	}

	reg, err := NewRegistration(RegistrationConfig{
		Services: []ServiceKey{service},
		Sharing:  SharingNone,
		Activator: func(ctx *ResolveRequestContext, _ []Parameter) (any, error) {
			out := reflect.MakeSlice(typed.Type, 0, len(regs))
			for _, r := range regs {
				if r.options.has(OptExcludeFromCollections) {
					continue
				}
				instance, err := ctx.Scope.resolveRegistration(ctx.Operation, r, elemService, nil)
				if err != nil {
					return nil, err
				}
				out = reflect.Append(out, reflect.ValueOf(instance))
			}
			return out.Interface(), nil
		},
	})
	if err != nil {
		return nil
	}
	return []*Registration{reg}
}

// KeyedFallbackSource lets a keyed lookup fall through to that type's
// ordinary default registration when nothing was registered for that
// specific key. It is a per-component adapter: one synthesized
// registration per distinct keyed request, wrapping whatever the plain
// type's own default resolves to. Not installed by default; opt in with
// RegistryBuilder.AddRegistrationSource(KeyedFallbackSource{}).
type KeyedFallbackSource struct{}

func (KeyedFallbackSource) IsAdapterForIndividualComponents() bool { return true }

func (KeyedFallbackSource) RegistrationsFor(service ServiceKey, accessor RegistrationAccessor) []*Registration {
	keyed, ok := service.(KeyedService)
	if !ok {
		return nil
	}
	typed := TypedService{Type: keyed.Type}
	if _, found := accessor(typed); !found {
		return nil
	}

	reg, err := NewRegistration(RegistrationConfig{
		Services: []ServiceKey{keyed},
		Sharing:  SharingNone,
		Activator: func(ctx *ResolveRequestContext, _ []Parameter) (any, error) {
			return ctx.ResolveNested(typed)
		},
	})
	if err != nil {
		return nil
	}
	return []*Registration{reg}
}
