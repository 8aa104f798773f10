package container_test

import (
	"errors"
	"testing"

	"github.com/km-arc/ioc/container"
)

func TestRegistry_FixedOverridesLastRegisteredDefault(t *testing.T) {
	b := container.NewRegistryBuilder()
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return namedGreeter{"first"}, nil
		},
	})
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Options:  container.OptFixed,
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return namedGreeter{"fixed"}, nil
		},
	})
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return namedGreeter{"last"}, nil
		},
	})
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	g, err := container.Resolve[greeter](root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := g.Greet(); got != "fixed" {
		t.Errorf("Greet(): got %q, want %q", got, "fixed")
	}
}

func TestRegistry_PreserveDefaultsNeverBecomesTheDefault(t *testing.T) {
	b := container.NewRegistryBuilder()
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return namedGreeter{"real-default"}, nil
		},
	})
	reg, err := b.RegisterPreservingDefaults(container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return namedGreeter{"preserved"}, nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterPreservingDefaults: %v", err)
	}
	if reg == nil {
		t.Fatal("RegisterPreservingDefaults: returned nil registration")
	}

	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	g, err := container.Resolve[greeter](root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := g.Greet(); got != "real-default" {
		t.Errorf("Greet(): got %q, want %q", got, "real-default")
	}

	all, err := container.ResolveAll[greeter](root)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ResolveAll: got %d elements, want 2 (default still enumerated)", len(all))
	}
}

func TestRegistry_RegisterAfterBuildFails(t *testing.T) {
	b := container.NewRegistryBuilder()
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return englishGreeter{}, nil
		},
	})
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, err := b.Register(container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return frenchGreeter{}, nil
		},
	})
	var invalid *container.InvalidRegistrationStateError
	if !errors.As(err, &invalid) {
		t.Errorf("Register after Build: got %T, want *InvalidRegistrationStateError", err)
	}
}

func TestNewRegistration_RequiresServiceAndActivator(t *testing.T) {
	if _, err := container.NewRegistration(container.RegistrationConfig{
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) { return nil, nil },
	}); err == nil {
		t.Error("NewRegistration with no services: expected an error, got nil")
	}

	if _, err := container.NewRegistration(container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
	}); err == nil {
		t.Error("NewRegistration with no activator: expected an error, got nil")
	}
}

type panickingSource struct{}

func (panickingSource) IsAdapterForIndividualComponents() bool { return false }

func (panickingSource) RegistrationsFor(service container.ServiceKey, _ container.RegistrationAccessor) []*container.Registration {
	if _, ok := service.(container.KeyedService); ok {
		panic("boom")
	}
	return nil
}

func TestRegistrationSource_PanicIsRecoveredByDefault(t *testing.T) {
	b := container.NewRegistryBuilder()
	b.AddRegistrationSource(panickingSource{})
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, err = container.ResolveKeyed[greeter](root, "anything")
	var depErr *container.DependencyResolutionError
	if !errors.As(err, &depErr) {
		t.Errorf("ResolveKeyed: got %T, want *DependencyResolutionError", err)
	}
}

func TestRegistrationSource_PanicPropagatesInStrictMode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("strict mode: expected the source panic to propagate, recovered nothing")
		}
	}()

	b := container.NewRegistryBuilder()
	b.UseStrictSources(true)
	b.AddRegistrationSource(panickingSource{})
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	container.ResolveKeyed[greeter](root, "anything")
}

func TestRegistrationSourceFunc_AdaptsAPlainFunction(t *testing.T) {
	src := container.RegistrationSourceFunc{
		PerComponentAdapter: true,
		Func: func(service container.ServiceKey, _ container.RegistrationAccessor) []*container.Registration {
			keyed, ok := service.(container.KeyedService)
			if !ok || keyed.Key != "func-adapted" {
				return nil
			}
			reg, err := container.NewRegistration(container.RegistrationConfig{
				Services: []container.ServiceKey{keyed},
				Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
					return namedGreeter{"from-func-source"}, nil
				},
			})
			if err != nil {
				return nil
			}
			return []*container.Registration{reg}
		},
	}
	if !src.IsAdapterForIndividualComponents() {
		t.Error("IsAdapterForIndividualComponents(): got false, want true")
	}

	b := container.NewRegistryBuilder()
	b.AddRegistrationSource(src)
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	g, err := container.ResolveKeyed[greeter](root, "func-adapted")
	if err != nil {
		t.Fatalf("ResolveKeyed: %v", err)
	}
	if got := g.Greet(); got != "from-func-source" {
		t.Errorf("Greet(): got %q, want %q", got, "from-func-source")
	}
}

func TestDiagnostics_NoopListenerReportsDisabled(t *testing.T) {
	listener := container.NoopListener{}
	if listener.IsEnabled() {
		t.Error("NoopListener.IsEnabled(): got true, want false")
	}
}
