package container_test

import (
	"testing"

	"github.com/km-arc/ioc/container"
)

func TestEvents_RegisteredFiresOnRegister(t *testing.T) {
	b := container.NewRegistryBuilder()
	var seen []container.RegistrationID
	b.OnRegistered(func(e container.RegisteredEvent) {
		seen = append(seen, e.Registration.ID())
	})

	reg, err := b.Register(container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return englishGreeter{}, nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(seen) != 1 || seen[0] != reg.ID() {
		t.Errorf("RegisteredEvent: got %v, want [%v]", seen, reg.ID())
	}
}

func TestEvents_ScopeLifecycleFiresInOrder(t *testing.T) {
	b := container.NewRegistryBuilder()
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var beganChild, resolveBegan, ended bool
	root.OnChildLifetimeScopeBeginning(func(container.ChildScopeBeginningEvent) { beganChild = true })
	root.OnResolveOperationBeginning(func(container.ResolveOperationBeginningEvent) { resolveBegan = true })

	sub, err := root.BeginScope("child", nil)
	if err != nil {
		t.Fatalf("BeginScope: %v", err)
	}
	if !beganChild {
		t.Error("ChildScopeBeginningEvent did not fire")
	}

	sub.OnCurrentScopeEnding(func(container.ScopeEndingEvent) { ended = true })

	root.TryResolve(container.TypedOf[greeter]())
	if !resolveBegan {
		t.Error("ResolveOperationBeginningEvent did not fire")
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ended {
		t.Error("ScopeEndingEvent did not fire")
	}
}
