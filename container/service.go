package container

import (
	"fmt"
	"reflect"
)

// ServiceKey is the canonical identity of something that can be resolved.
//
// It is a closed sum type: TypedService, KeyedService, DecoratorService,
// the AutoActivate sentinel, and IsolatedService are the only variants.
// Two ServiceKey values are interchangeable as map keys via mapKey. A
// KeyedService's Key enters mapKey through its %v formatting, so two keys
// that format identically identify the same service.
type ServiceKey interface {
	serviceKey()
	String() string
	mapKey() string
}

// TypedService identifies a service by its nominal Go type alone.
type TypedService struct {
	Type reflect.Type
}

func (TypedService) serviceKey() {}

func (s TypedService) String() string { return s.Type.String() }

func (s TypedService) mapKey() string { return "typed:" + s.Type.String() }

// TypedOf builds a TypedService for T using reflect.TypeOf((*T)(nil)).Elem(),
// which also yields interface types such as T = Greeter.
func TypedOf[T any]() TypedService {
	return TypedService{Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// KeyedService identifies a service by type plus an opaque, comparable key.
type KeyedService struct {
	Type reflect.Type
	Key  any
}

func (KeyedService) serviceKey() {}

func (s KeyedService) String() string {
	return fmt.Sprintf("%s(key=%v)", s.Type.String(), s.Key)
}

func (s KeyedService) mapKey() string {
	return fmt.Sprintf("keyed:%s:%v", s.Type.String(), s.Key)
}

// KeyedOf builds a KeyedService for T with the given key.
func KeyedOf[T any](key any) KeyedService {
	return KeyedService{Type: reflect.TypeOf((*T)(nil)).Elem(), Key: key}
}

// decoratorRole discriminates decorator services from ordinary ones.
type decoratorRole string

const decoratorTargetRole decoratorRole = "target"

// DecoratorService is used only in internal plumbing to synthesize the
// sub-request passed to a decorator's activator; user code never resolves
// it directly.
type DecoratorService struct {
	Type reflect.Type
	Role decoratorRole
}

func (DecoratorService) serviceKey() {}

func (s DecoratorService) String() string {
	return fmt.Sprintf("decorator(%s,%s)", s.Type.String(), s.Role)
}

func (s DecoratorService) mapKey() string {
	return fmt.Sprintf("decorator:%s:%s", s.Type.String(), s.Role)
}

// autoActivateService is the sentinel service marking a registration for
// eager activation at build time. It carries no payload; its identity is
// its own presence in a registration's service list.
type autoActivateService struct{}

func (autoActivateService) serviceKey() {}
func (autoActivateService) String() string { return "auto-activate" }
func (autoActivateService) mapKey() string { return "sentinel:auto-activate" }

// AutoActivate is the sentinel service. Including it in a Registration's
// Services list marks that registration for eager activation once the
// owning registry's root scope is built (see RegistryBuilder.Build).
var AutoActivate ServiceKey = autoActivateService{}

// IsolatedService wraps a service so that it is only ever registered and
// resolved within a specific sub-scope, never visible to ancestors or
// siblings even though it shares the parent's registry chain.
type IsolatedService struct {
	Service  ServiceKey
	ScopeTag any
}

func (IsolatedService) serviceKey() {}

func (s IsolatedService) String() string {
	return fmt.Sprintf("isolated(%s,tag=%v)", s.Service.String(), s.ScopeTag)
}

func (s IsolatedService) mapKey() string {
	return fmt.Sprintf("isolated:%s:%v", s.Service.mapKey(), s.ScopeTag)
}

// ServiceEqual reports whether two service keys are the same identity.
// Typed services compare type identifiers; keyed services additionally
// compare keys; decorator services compare type plus role.
func ServiceEqual(a, b ServiceKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.mapKey() == b.mapKey()
}
