package container

// RegistryBuilder accumulates registrations, registration sources, and
// service-pipeline middleware before being sealed into a LifetimeScope.
// There is no fluent chaining here on purpose: callers build a
// RegistrationConfig and hand it to Register.
type RegistryBuilder struct {
	registry    *Registry
	diagnostics DiagnosticListener
	rootTag     any
}

// NewRegistryBuilder creates a builder for a root scope's registry.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{registry: newRegistry(nil)}
}

// Register constructs and adds a registration as a default for its
// services, per the normal last-registered-wins selection order.
func (b *RegistryBuilder) Register(cfg RegistrationConfig) (*Registration, error) {
	reg, err := NewRegistration(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.registry.Register(reg, false); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterPreservingDefaults is Register but the new registration never
// displaces an existing default for any of its services.
func (b *RegistryBuilder) RegisterPreservingDefaults(cfg RegistrationConfig) (*Registration, error) {
	reg, err := NewRegistration(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.registry.Register(reg, true); err != nil {
		return nil, err
	}
	return reg, nil
}

// AddRegistrationSource appends src, to be consulted the first time a
// service it may apply to is looked up.
func (b *RegistryBuilder) AddRegistrationSource(src RegistrationSource) {
	b.registry.AddRegistrationSource(src)
}

// UseServiceMiddleware adds middleware to the service pipeline shared by
// every service this registry resolves; sub-scopes begun from the built
// root inherit it too, the same way they inherit decorators.
func (b *RegistryBuilder) UseServiceMiddleware(mw NamedMiddleware, mode InsertMode) error {
	return b.registry.UseServiceMiddleware(mw, mode)
}

// UseStrictSources controls whether a registration source panic is caught
// and converted to a DependencyResolutionError (the default) or left to
// propagate and crash the process.
func (b *RegistryBuilder) UseStrictSources(strict bool) {
	b.registry.strict = strict
}

// WithRootTag overrides the tag the built root scope carries, so a
// matching-scope(tag) registration can target the root by that name. A
// zero-value tag (nil, or the empty string) leaves the default "root"
// sentinel in place.
func (b *RegistryBuilder) WithRootTag(tag any) {
	if tag == nil || tag == "" {
		return
	}
	b.rootTag = tag
}

// UseDiagnostics sets the listener the built scope (and every sub-scope
// begun from it) reports pipeline events to. Only meaningful on the
// builder used for a root scope; sub-scopes inherit their parent's
// listener.
func (b *RegistryBuilder) UseDiagnostics(listener DiagnosticListener) {
	b.diagnostics = listener
}

// OnRegistered subscribes to this registry's registered event.
func (b *RegistryBuilder) OnRegistered(fn func(RegisteredEvent)) {
	b.registry.OnRegistered(fn)
}

// OnRegistrationSourceAdded subscribes to this registry's
// registrationSourceAdded event.
func (b *RegistryBuilder) OnRegistrationSourceAdded(fn func(RegistrationSourceAddedEvent)) {
	b.registry.OnRegistrationSourceAdded(fn)
}

// Build seals the registry against further explicit registration, creates
// the root lifetime scope, and resolves every AutoActivate-flagged
// registration before returning.
func (b *RegistryBuilder) Build() (*LifetimeScope, error) {
	b.registry.Seal()
	root := newRootScope(b.registry, b.diagnostics, b.rootTag)
	if err := activateAutoActivated(root); err != nil {
		return nil, err
	}
	return root, nil
}
