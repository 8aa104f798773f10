package container

// RegistrationAccessor lets a RegistrationSource look up what is already
// registered for another service, enabling recursive adapter construction
// (Lazy<Func<Owned<IFoo>>> and friends). It re-enters the registry.
type RegistrationAccessor func(service ServiceKey) ([]*Registration, bool)

// RegistrationSource synthesizes registrations for a service family on
// demand, the first time that family is asked for. IsAdapterForIndividualComponents
// describes whether the source adapts individual components (true — e.g.
// KeyedFallbackSource) or produces at most one registration for the
// service as a whole (false — e.g. CollectionSource for []T). The registry
// does not read this flag; it registers whatever RegistrationsFor returns.
type RegistrationSource interface {
	RegistrationsFor(service ServiceKey, accessor RegistrationAccessor) []*Registration
	IsAdapterForIndividualComponents() bool
}

// RegistrationSourceFunc adapts a plain function to RegistrationSource for
// sources that don't need to distinguish per-component behavior at the
// interface level.
type RegistrationSourceFunc struct {
	Func               func(service ServiceKey, accessor RegistrationAccessor) []*Registration
	PerComponentAdapter bool
}

func (f RegistrationSourceFunc) RegistrationsFor(service ServiceKey, accessor RegistrationAccessor) []*Registration {
	return f.Func(service, accessor)
}

func (f RegistrationSourceFunc) IsAdapterForIndividualComponents() bool {
	return f.PerComponentAdapter
}
