package container

import (
	"sync"

	"github.com/google/uuid"
)

// RegistrationID stably identifies a Registration across its lifetime,
// independent of which services it was requested through. Instance caching
// keys on this, not on the requested service, so two services provided by
// the same registration share one instance.
type RegistrationID string

func newRegistrationID() RegistrationID {
	return RegistrationID(uuid.New().String())
}

// Lifetime selects which scope a shared registration's instance lives in.
type Lifetime int

const (
	// LifetimeCurrentScope caches (if shared) in whichever scope resolves it.
	LifetimeCurrentScope Lifetime = iota
	// LifetimeRootScope always caches in the root of the scope tree.
	LifetimeRootScope
	// LifetimeMatchingScope caches in the nearest ancestor tagged MatchTag.
	LifetimeMatchingScope
)

// Sharing selects whether a registration's instance is cached at all.
type Sharing int

const (
	SharingNone Sharing = iota
	SharingShared
)

// Ownership selects whether a scope's disposer is responsible for an
// instance's disposal.
type Ownership int

const (
	OwnedByLifetimeScope Ownership = iota
	ExternallyOwned
)

// Options is a bitset of registration flags.
type Options uint8

const (
	// OptFixed pins this registration as the service's canonical default,
	// overriding ordinary default-selection order.
	OptFixed Options = 1 << iota
	// OptExcludeFromCollections omits this registration from the []T
	// collection adapter even though it otherwise satisfies T.
	OptExcludeFromCollections
)

func (o Options) has(flag Options) bool { return o&flag != 0 }

// Activator produces a raw instance. The core never inspects the result
// beyond checking whether it is disposable; determinism, side effects, and
// dependency resolution are entirely the activator's business.
type Activator func(ctx *ResolveRequestContext, params []Parameter) (any, error)

// Registration is an immutable declaration of how to produce instances
// serving one or more services. Everything about it is fixed at
// construction time via NewRegistration; the core never mutates it.
type Registration struct {
	id         RegistrationID
	services   []ServiceKey
	activator  Activator
	lifetime   Lifetime
	matchTag   any
	sharing    Sharing
	ownership  Ownership
	metadata   map[string]any
	pipeline   *PipelineBuilder
	options    Options

	compiledOnce sync.Once
	compiled     *Pipeline
}

// RegistrationConfig is the plain, non-fluent configuration accepted by
// NewRegistration. The core deliberately has no builder DSL: callers (or an
// external, out-of-scope collaborator) construct this struct directly.
type RegistrationConfig struct {
	Services   []ServiceKey
	Activator  Activator
	Lifetime   Lifetime
	MatchTag   any
	Sharing    Sharing
	Ownership  Ownership
	Metadata   map[string]any
	Options    Options
	Middleware []NamedMiddleware
}

// NewRegistration validates cfg and returns an immutable Registration.
func NewRegistration(cfg RegistrationConfig) (*Registration, error) {
	if len(cfg.Services) == 0 {
		return nil, &InvalidRegistrationStateError{Reason: "registration must declare at least one service"}
	}
	if cfg.Activator == nil {
		return nil, &InvalidRegistrationStateError{Reason: "registration requires an activator"}
	}
	metadata := make(map[string]any, len(cfg.Metadata))
	for k, v := range cfg.Metadata {
		metadata[k] = v
	}
	services := make([]ServiceKey, len(cfg.Services))
	copy(services, cfg.Services)

	pipeline := NewPipelineBuilder(RegistrationPipelineKind)
	if err := pipeline.UseRange(cfg.Middleware, InsertEndOfPhase); err != nil {
		return nil, err
	}

	return &Registration{
		id:        newRegistrationID(),
		services:  services,
		activator: cfg.Activator,
		lifetime:  cfg.Lifetime,
		matchTag:  cfg.MatchTag,
		sharing:   cfg.Sharing,
		ownership: cfg.Ownership,
		metadata:  metadata,
		pipeline:  pipeline,
		options:   cfg.Options,
	}, nil
}

// ID returns the registration's stable identity.
func (r *Registration) ID() RegistrationID { return r.id }

// Services returns the services this registration provides.
func (r *Registration) Services() []ServiceKey {
	out := make([]ServiceKey, len(r.services))
	copy(out, r.services)
	return out
}

// ProvidesService reports whether this registration declares service.
func (r *Registration) ProvidesService(service ServiceKey) bool {
	for _, s := range r.services {
		if ServiceEqual(s, service) {
			return true
		}
	}
	return false
}

// Metadata returns the value stored under key, if any.
func (r *Registration) Metadata(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// IsAutoActivate reports whether this registration carries the
// AutoActivate sentinel service.
func (r *Registration) IsAutoActivate() bool {
	return r.ProvidesService(AutoActivate)
}

// invokePipeline runs this registration's compiled pipeline: the default
// registration-stage middleware plus whatever custom middleware was passed
// in RegistrationConfig.Middleware, compiled once and reused for every
// resolution of this registration.
func (r *Registration) invokePipeline(ctx *ResolveRequestContext) {
	r.compiledOnce.Do(func() {
		full := NewPipelineBuilder(RegistrationPipelineKind)
		_ = full.UseRange(defaultRegistrationMiddleware(), InsertEndOfPhase)
		_ = full.UseRange(r.pipeline.entries, InsertEndOfPhase)
		r.compiled = full.Build(nil)
	})
	r.compiled.Invoke(ctx)
}
