package container

import "reflect"

// ParameterDescriptor describes one slot an activator may want a value for.
// Name and Position are optional; an activator that only cares about type
// leaves them zero-valued.
type ParameterDescriptor struct {
	Name     string
	Type     reflect.Type
	Position int
}

// Parameter is consulted by an activator, never by the core, to decide
// whether it can supply a value for a given descriptor. CanSupplyValue
// returns whether it applies, and if so a lazily-evaluated value accessor
// so parameters that are expensive to compute are only paid for when used.
type Parameter interface {
	CanSupplyValue(descriptor ParameterDescriptor, ctx *ResolveRequestContext) (bool, func() (any, error))
}

// NamedParameter supplies a fixed value for a descriptor matched by name.
type NamedParameter struct {
	Name  string
	Value any
}

func (p NamedParameter) CanSupplyValue(d ParameterDescriptor, _ *ResolveRequestContext) (bool, func() (any, error)) {
	if d.Name == "" || d.Name != p.Name {
		return false, nil
	}
	return true, func() (any, error) { return p.Value, nil }
}

// PositionalParameter supplies a fixed value for a descriptor matched by
// its 1-based position in the activator's declared parameter list.
type PositionalParameter struct {
	Position int
	Value    any
}

func (p PositionalParameter) CanSupplyValue(d ParameterDescriptor, _ *ResolveRequestContext) (bool, func() (any, error)) {
	if d.Position != p.Position {
		return false, nil
	}
	return true, func() (any, error) { return p.Value, nil }
}

// TypedParameter supplies a fixed value for a descriptor matched by type.
type TypedParameter struct {
	Type  reflect.Type
	Value any
}

func (p TypedParameter) CanSupplyValue(d ParameterDescriptor, _ *ResolveRequestContext) (bool, func() (any, error)) {
	if d.Type == nil || p.Type == nil || d.Type != p.Type {
		return false, nil
	}
	return true, func() (any, error) { return p.Value, nil }
}

// ResolvedParameter computes its value by resolving another service from
// the current request's scope; the value is only produced if Predicate
// matches the descriptor.
type ResolvedParameter struct {
	Predicate     func(ParameterDescriptor, *ResolveRequestContext) bool
	ValueAccessor func(ParameterDescriptor, *ResolveRequestContext) (any, error)
}

func (p ResolvedParameter) CanSupplyValue(d ParameterDescriptor, ctx *ResolveRequestContext) (bool, func() (any, error)) {
	if p.Predicate == nil || !p.Predicate(d, ctx) {
		return false, nil
	}
	return true, func() (any, error) { return p.ValueAccessor(d, ctx) }
}
