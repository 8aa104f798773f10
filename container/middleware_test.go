package container_test

import (
	"errors"
	"testing"

	"github.com/km-arc/ioc/container"
)

func TestUseServiceMiddleware_RunsAroundEveryResolve(t *testing.T) {
	var seen []container.ServiceKey
	b := container.NewRegistryBuilder()
	err := b.UseServiceMiddleware(container.NamedMiddleware{
		Phase: container.PhaseResolveRequestStart,
		Name:  "recorder",
		Middleware: func(next container.Handler) container.Handler {
			return func(ctx *container.ResolveRequestContext) {
				seen = append(seen, ctx.Service)
				next(ctx)
			}
		},
	}, container.InsertEndOfPhase)
	if err != nil {
		t.Fatalf("UseServiceMiddleware: %v", err)
	}

	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return englishGreeter{}, nil
		},
	})
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := container.Resolve[greeter](root); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(seen) != 1 || !container.ServiceEqual(seen[0], container.TypedOf[greeter]()) {
		t.Errorf("custom middleware observed services: got %v, want one entry for greeter", seen)
	}
}

func TestUseServiceMiddleware_InheritedBySubScope(t *testing.T) {
	var seen []container.ServiceKey
	b := container.NewRegistryBuilder()
	err := b.UseServiceMiddleware(container.NamedMiddleware{
		Phase: container.PhaseResolveRequestStart,
		Name:  "recorder",
		Middleware: func(next container.Handler) container.Handler {
			return func(ctx *container.ResolveRequestContext) {
				seen = append(seen, ctx.Service)
				next(ctx)
			}
		},
	}, container.InsertEndOfPhase)
	if err != nil {
		t.Fatalf("UseServiceMiddleware: %v", err)
	}

	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return englishGreeter{}, nil
		},
	})
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sub, err := root.BeginScope("child", nil)
	if err != nil {
		t.Fatalf("BeginScope: %v", err)
	}

	if _, err := container.Resolve[greeter](sub); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(seen) != 1 || !container.ServiceEqual(seen[0], container.TypedOf[greeter]()) {
		t.Errorf("middleware installed on the root's builder did not run for a sub-scope resolve: got %v", seen)
	}
}

func TestUseServiceMiddleware_RejectsRegistrationOnlyPhase(t *testing.T) {
	b := container.NewRegistryBuilder()
	err := b.UseServiceMiddleware(container.NamedMiddleware{
		Phase:      container.PhaseActivation,
		Name:       "bad",
		Middleware: func(next container.Handler) container.Handler { return next },
	}, container.InsertEndOfPhase)

	var violation *container.PipelinePhaseViolationError
	if !errors.As(err, &violation) {
		t.Errorf("UseServiceMiddleware with a registration-only phase: got %T, want *PipelinePhaseViolationError", err)
	}
}

func TestPipelineBuilder_UseRangeRejectsNonMonotonicPhases(t *testing.T) {
	b := container.NewPipelineBuilder(container.ServicePipelineKind)
	mws := []container.NamedMiddleware{
		{Phase: container.PhaseDecoration, Name: "second", Middleware: func(next container.Handler) container.Handler { return next }},
		{Phase: container.PhaseResolveRequestStart, Name: "first", Middleware: func(next container.Handler) container.Handler { return next }},
	}
	if err := b.UseRange(mws, container.InsertEndOfPhase); err == nil {
		t.Error("UseRange with out-of-order phases: expected an error, got nil")
	}
}
