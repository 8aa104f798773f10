package container

import (
	"fmt"
	"sync"
)

type initState int

const (
	stateUninitialized initState = iota
	stateInitializing
	stateInitialized
)

// serviceRegistrationInfo is the per-service bookkeeping the registry
// keeps: the three ordered buckets of known implementations, the optional
// fixed override, and initialization state for lazy source draining.
type serviceRegistrationInfo struct {
	service          ServiceKey
	defaults         []*Registration
	sourceOriginated []*Registration
	preserveDefaults []*Registration
	fixed            *Registration
	state            initState
}

// selected applies the default-selection order: fixed, last default, first
// source-originated, first preserve-default.
func (info *serviceRegistrationInfo) selected() (*Registration, bool) {
	if info.fixed != nil {
		return info.fixed, true
	}
	if n := len(info.defaults); n > 0 {
		return info.defaults[n-1], true
	}
	if len(info.sourceOriginated) > 0 {
		return info.sourceOriginated[0], true
	}
	if len(info.preserveDefaults) > 0 {
		return info.preserveDefaults[0], true
	}
	return nil, false
}

// enumerate lists every known registration for this service, in the order
// servicesFor promises: fixed, defaults reverse-insertion, source-originated
// insertion order, preserve-defaults insertion order.
func (info *serviceRegistrationInfo) enumerate() []*Registration {
	var out []*Registration
	if info.fixed != nil {
		out = append(out, info.fixed)
	}
	for i := len(info.defaults) - 1; i >= 0; i-- {
		out = append(out, info.defaults[i])
	}
	out = append(out, info.sourceOriginated...)
	out = append(out, info.preserveDefaults...)
	return out
}

func (info *serviceRegistrationInfo) hasAny() bool {
	return info.fixed != nil || len(info.defaults) > 0 || len(info.sourceOriginated) > 0 || len(info.preserveDefaults) > 0
}

// RegisteredEvent is fired whenever a registration is added.
type RegisteredEvent struct {
	Registration *Registration
}

// RegistrationSourceAddedEvent is fired whenever a registration source is added.
type RegistrationSourceAddedEvent struct {
	Source RegistrationSource
}

// Registry indexes registrations by service and lazily consults
// registration sources. A sub-scope owns a child registry whose lookups
// delegate to the parent for services it has no local registration for,
// and whose own explicit registrations and sources apply only within its
// sub-tree.
type Registry struct {
	mu       sync.Mutex
	parent   *Registry
	services map[string]*serviceRegistrationInfo
	sources  []RegistrationSource
	sealed   bool
	strict   bool

	decorators map[string][]decoratorEntry

	pipelineOnce sync.Once
	pipeline     *Pipeline
	pipelineBldr *PipelineBuilder

	onRegistered    []func(RegisteredEvent)
	onSourceAdded   []func(RegistrationSourceAddedEvent)
}

// newRegistry creates a registry, optionally chained to a parent for
// sub-scope delegation. Every registry carries its own CollectionSource so
// that a []T resolved from a sub-scope reflects that sub-scope's own
// locally-merged view of T's registrations, not a stale one drained only
// at some ancestor.
func newRegistry(parent *Registry) *Registry {
	return &Registry{
		parent:       parent,
		services:     make(map[string]*serviceRegistrationInfo),
		decorators:   make(map[string][]decoratorEntry),
		pipelineBldr: NewPipelineBuilder(ServicePipelineKind),
		sources:      []RegistrationSource{CollectionSource{}},
	}
}

// OnRegistered subscribes to the registered event.
func (r *Registry) OnRegistered(fn func(RegisteredEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRegistered = append(r.onRegistered, fn)
}

// OnRegistrationSourceAdded subscribes to the registrationSourceAdded event.
func (r *Registry) OnRegistrationSourceAdded(fn func(RegistrationSourceAddedEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSourceAdded = append(r.onSourceAdded, fn)
}

// Seal prevents further explicit Register calls on this registry (but not
// on any sub-scope registry that chains to it), matching the invariant
// that a registry may not be mutated after its owning scope is built.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Register appends reg to the appropriate bucket of each service it
// declares. preserveDefaults=true means "add without becoming the new
// default if one already exists" (Autofac's PreserveExistingDefaults).
func (r *Registry) Register(reg *Registration, preserveDefaults bool) error {
	return r.register(reg, preserveDefaults, false)
}

func (r *Registry) register(reg *Registration, preserveDefaults, sourceOriginated bool) error {
	r.mu.Lock()
	if r.sealed && !sourceOriginated {
		r.mu.Unlock()
		return &InvalidRegistrationStateError{Reason: "registry mutated after its owning scope was built"}
	}
	for _, svc := range reg.services {
		info := r.infoLocked(svc)
		switch {
		case reg.options.has(OptFixed):
			info.fixed = reg
		case sourceOriginated:
			info.sourceOriginated = append(info.sourceOriginated, reg)
		case preserveDefaults:
			info.preserveDefaults = append(info.preserveDefaults, reg)
		default:
			info.defaults = append(info.defaults, reg)
		}
	}
	callbacks := append([]func(RegisteredEvent){}, r.onRegistered...)
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(RegisteredEvent{Registration: reg})
	}
	return nil
}

// AddRegistrationSource appends src to the source list, conservatively:
// sources added after a service has already been initialized do not
// retroactively apply to it; they only contribute to services observed for
// the first time afterward.
func (r *Registry) AddRegistrationSource(src RegistrationSource) {
	r.mu.Lock()
	r.sources = append(r.sources, src)
	callbacks := append([]func(RegistrationSourceAddedEvent){}, r.onSourceAdded...)
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(RegistrationSourceAddedEvent{Source: src})
	}
}

// infoLocked returns (creating if necessary) the info for svc. Caller must
// hold r.mu.
func (r *Registry) infoLocked(svc ServiceKey) *serviceRegistrationInfo {
	key := svc.mapKey()
	info, ok := r.services[key]
	if !ok {
		info = &serviceRegistrationInfo{service: svc}
		r.services[key] = info
	}
	return info
}

// tryGetServiceRegistration lazily initializes svc's info, draining any
// registration sources still pending for it, and reports whether any local
// registration (explicit or source-originated) now exists.
func (r *Registry) tryGetServiceRegistration(svc ServiceKey) (bool, *serviceRegistrationInfo, error) {
	r.mu.Lock()
	info := r.infoLocked(svc)

	switch info.state {
	case stateInitialized, stateInitializing:
		found := info.hasAny()
		r.mu.Unlock()
		return found, info, nil
	}

	info.state = stateInitializing
	pending := append([]RegistrationSource{}, r.sources...)
	r.mu.Unlock()

	for _, src := range pending {
		produced, err := r.invokeSource(src, svc)
		if err != nil {
			return false, info, err
		}
		for _, reg := range produced {
			if err := r.register(reg, true, true); err != nil {
				return false, info, err
			}
		}
	}

	r.mu.Lock()
	info.state = stateInitialized
	found := info.hasAny()
	r.mu.Unlock()
	return found, info, nil
}

// invokeSource calls src.RegistrationsFor, converting a panic into a
// DependencyResolutionError unless strict mode is on, in which case the
// panic is left to propagate and crash the process — the intended
// behavior for catching a broken source during startup wiring rather
// than deep into a request path.
func (r *Registry) invokeSource(src RegistrationSource, svc ServiceKey) (produced []*Registration, err error) {
	if r.strict {
		return src.RegistrationsFor(svc, r.accessor()), nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = &DependencyResolutionError{Chain: []ServiceKey{svc}, Cause: fmt.Errorf("registration source panic: %v", rec)}
		}
	}()
	produced = src.RegistrationsFor(svc, r.accessor())
	return produced, nil
}

// accessor builds the RegistrationAccessor passed to registration sources.
func (r *Registry) accessor() RegistrationAccessor {
	return func(svc ServiceKey) ([]*Registration, bool) {
		regs, err := r.servicesFor(svc)
		if err != nil || len(regs) == 0 {
			return nil, false
		}
		return regs, true
	}
}

// resolveDefault finds the chosen registration for svc, checking this
// registry's local buckets first and delegating to the parent only if
// nothing local applies.
func (r *Registry) resolveDefault(svc ServiceKey) (*Registration, bool, error) {
	found, info, err := r.tryGetServiceRegistration(svc)
	if err != nil {
		return nil, false, err
	}
	if found {
		if reg, ok := info.selected(); ok {
			return reg, true, nil
		}
	}
	if r.parent != nil {
		return r.parent.resolveDefault(svc)
	}
	return nil, false, nil
}

// servicesFor enumerates every matching registration, local ones first,
// then the parent chain's — this is what makes a sub-scope's collection
// resolution see both its own and its ancestors' registrations.
func (r *Registry) servicesFor(svc ServiceKey) ([]*Registration, error) {
	_, info, err := r.tryGetServiceRegistration(svc)
	if err != nil {
		return nil, err
	}
	out := info.enumerate()
	if r.parent != nil {
		parentRegs, err := r.parent.servicesFor(svc)
		if err != nil {
			return nil, err
		}
		out = append(out, parentRegs...)
	}
	return out, nil
}

// isRegistered reports whether svc has any local or inherited registration.
func (r *Registry) isRegistered(svc ServiceKey) bool {
	found, info, err := r.tryGetServiceRegistration(svc)
	if err != nil {
		return false
	}
	if found && info.hasAny() {
		return true
	}
	if r.parent != nil {
		return r.parent.isRegistered(svc)
	}
	return false
}

// UseServiceMiddleware adds middleware to this registry's service
// pipeline, which is shared by every service it resolves and, like
// decorators, inherited by every sub-scope registry chained to it. Only
// legal before the pipeline has been built (i.e. before the first Resolve).
func (r *Registry) UseServiceMiddleware(mw NamedMiddleware, mode InsertMode) error {
	return r.pipelineBldr.Use(mw, mode)
}

// servicePipeline lazily compiles the shared service pipeline: default
// middleware plus anything added via UseServiceMiddleware on this registry
// or any of its ancestors, ancestors first — the same inheritance
// decoratorsFor gives decorators, so a sub-scope's resolves still run
// middleware its parent installed. The terminal handler chains into
// whichever registration ctx.Registration names.
func (r *Registry) servicePipeline() *Pipeline {
	r.pipelineOnce.Do(func() {
		full := NewPipelineBuilder(ServicePipelineKind)
		_ = full.UseRange(defaultServiceMiddleware(), InsertEndOfPhase)
		for _, ancestor := range r.ancestorChain() {
			_ = full.UseRange(ancestor.pipelineBldr.entries, InsertEndOfPhase)
		}
		r.pipeline = full.Build(func(ctx *ResolveRequestContext) {
			ctx.Registration.invokePipeline(ctx)
		})
	})
	return r.pipeline
}

// ancestorChain returns this registry and every ancestor, root-first.
func (r *Registry) ancestorChain() []*Registry {
	var chain []*Registry
	for cur := r; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// decoratorEntry pairs a decorator function (type-erased) with its
// registration order, used by the Decoration phase middleware.
type decoratorEntry struct {
	order int
	apply func(instance any, ctx *ResolveRequestContext) (any, error)
}

// addDecorator registers a type-erased decorator for svc. Decorators
// apply in registration order; the most recently registered wraps
// outermost.
func (r *Registry) addDecorator(svc ServiceKey, apply func(any, *ResolveRequestContext) (any, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := svc.mapKey()
	r.decorators[key] = append(r.decorators[key], decoratorEntry{order: len(r.decorators[key]), apply: apply})
}

// decoratorsFor returns local decorators for svc followed by the parent
// chain's, so sub-scopes inherit ancestor decorators.
func (r *Registry) decoratorsFor(svc ServiceKey) []decoratorEntry {
	r.mu.Lock()
	local := append([]decoratorEntry{}, r.decorators[svc.mapKey()]...)
	r.mu.Unlock()
	if r.parent != nil {
		return append(local, r.parent.decoratorsFor(svc)...)
	}
	return local
}
