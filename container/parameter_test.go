package container_test

import (
	"reflect"
	"testing"

	"github.com/km-arc/ioc/container"
)

type parameterizedGreeter struct{ name string }

func (p parameterizedGreeter) Greet() string { return "hi " + p.name }

func TestParameter_NamedParameterReachesActivator(t *testing.T) {
	b := container.NewRegistryBuilder()
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, params []container.Parameter) (any, error) {
			descriptor := container.ParameterDescriptor{Name: "name"}
			for _, p := range params {
				if ok, get := p.CanSupplyValue(descriptor, ctx); ok {
					v, err := get()
					if err != nil {
						return nil, err
					}
					return parameterizedGreeter{name: v.(string)}, nil
				}
			}
			return parameterizedGreeter{name: "default"}, nil
		},
	})
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	g, err := container.Resolve[greeter](root, container.NamedParameter{Name: "name", Value: "Ada"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := g.Greet(), "hi Ada"; got != want {
		t.Errorf("Greet(): got %q, want %q", got, want)
	}
}

func TestParameter_ResolvedParameterPullsFromScope(t *testing.T) {
	b := container.NewRegistryBuilder()
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.KeyedOf[greeter]("inner")},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return englishGreeter{}, nil
		},
	})
	registerGreeter(t, b, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, params []container.Parameter) (any, error) {
			descriptor := container.ParameterDescriptor{Name: "inner"}
			for _, p := range params {
				if ok, get := p.CanSupplyValue(descriptor, ctx); ok {
					v, err := get()
					if err != nil {
						return nil, err
					}
					return v, nil
				}
			}
			return nil, nil
		},
	})
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resolved := container.ResolvedParameter{
		Predicate: func(d container.ParameterDescriptor, _ *container.ResolveRequestContext) bool {
			return d.Name == "inner"
		},
		ValueAccessor: func(_ container.ParameterDescriptor, ctx *container.ResolveRequestContext) (any, error) {
			return ctx.ResolveNested(container.KeyedOf[greeter]("inner"))
		},
	}

	g, err := container.Resolve[greeter](root, resolved)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := g.Greet(); got != "hello" {
		t.Errorf("Greet(): got %q, want %q", got, "hello")
	}
}

func TestParameter_PositionalParameterMatchesByPosition(t *testing.T) {
	p := container.PositionalParameter{Position: 2, Value: "Ada"}

	if ok, _ := p.CanSupplyValue(container.ParameterDescriptor{Position: 1}, nil); ok {
		t.Error("CanSupplyValue(position 1): got true, want false")
	}
	ok, get := p.CanSupplyValue(container.ParameterDescriptor{Position: 2}, nil)
	if !ok {
		t.Fatal("CanSupplyValue(position 2): got false, want true")
	}
	v, err := get()
	if err != nil {
		t.Fatalf("get(): %v", err)
	}
	if v != "Ada" {
		t.Errorf("get(): got %v, want %q", v, "Ada")
	}
}

func TestParameter_TypedParameterMatchesByType(t *testing.T) {
	stringType := reflect.TypeOf("")
	p := container.TypedParameter{Type: stringType, Value: "Ada"}

	if ok, _ := p.CanSupplyValue(container.ParameterDescriptor{Type: reflect.TypeOf(0)}, nil); ok {
		t.Error("CanSupplyValue(int descriptor): got true, want false")
	}
	ok, get := p.CanSupplyValue(container.ParameterDescriptor{Type: stringType}, nil)
	if !ok {
		t.Fatal("CanSupplyValue(string descriptor): got false, want true")
	}
	v, err := get()
	if err != nil {
		t.Fatalf("get(): %v", err)
	}
	if v != "Ada" {
		t.Errorf("get(): got %v, want %q", v, "Ada")
	}
}
