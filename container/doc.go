// Package container implements the core of an inversion-of-control
// container: registries that map service keys to component registrations,
// a tree of lifetime scopes that own instances and their disposal, and a
// phased resolution pipeline that every construction passes through.
//
// The package does not know how an activator builds a value — activators
// are opaque functions supplied by the caller — nor does it provide a
// fluent builder DSL, reflection-driven constructor selection, or any
// integration with a particular web framework. Registrations arrive
// already built; this package only resolves and manages their lifetimes.
//
// # Quick start
//
//	builder := container.NewRegistryBuilder()
//	builder.Register(container.RegistrationConfig{
//	    Services: []container.ServiceKey{container.TypedOf[Greeter]()},
//	    Activator: func(ctx *container.ResolveRequestContext, params []container.Parameter) (any, error) {
//	        return &EnglishGreeter{}, nil
//	    },
//	    Lifetime: container.LifetimeCurrentScope,
//	    Sharing:  container.SharingShared,
//	})
//	root, _ := builder.Build()
//	greeter, err := container.Resolve[Greeter](root)
package container
