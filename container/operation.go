package container

// inFlightKey identifies one (scope, registration) activation in progress
// within a single operation, the unit cycle detection reasons about.
type inFlightKey struct {
	scope *LifetimeScope
	regID RegistrationID
}

// inFlightFrame pairs an in-flight key with the service that was being
// resolved when it was pushed, so a detected cycle can report a readable
// chain of service names.
type inFlightFrame struct {
	key     inFlightKey
	service ServiceKey
}

// ResolveOperation is created at each user-facing Resolve call and reused
// by every nested resolution an activator triggers on the same call chain.
// It owns the in-flight stack that makes cycle detection possible without
// any ambient or goroutine-local state: an activator that wants to resolve
// another service must go through ctx.ResolveNested, which threads the
// same operation through explicitly.
type ResolveOperation struct {
	entryScope  *LifetimeScope
	stack       []inFlightFrame
	completing  []func()
	diagnostics DiagnosticListener
	rootService ServiceKey
}

func newResolveOperation(entry *LifetimeScope, diag DiagnosticListener, rootService ServiceKey) *ResolveOperation {
	if diag == nil {
		diag = NoopListener{}
	}
	return &ResolveOperation{entryScope: entry, diagnostics: diag, rootService: rootService}
}

// enter pushes (scope, regID) onto the in-flight stack, failing with
// CircularDependencyError if it is already present. The error's Chain
// lists the services associated with each frame, oldest first, plus the
// service that triggered the repeat.
func (op *ResolveOperation) enter(scope *LifetimeScope, regID RegistrationID, service ServiceKey) error {
	key := inFlightKey{scope: scope, regID: regID}
	for _, f := range op.stack {
		if f.key == key {
			chain := make([]ServiceKey, 0, len(op.stack)+1)
			for _, existing := range op.stack {
				chain = append(chain, existing.service)
			}
			chain = append(chain, service)
			return &CircularDependencyError{Chain: chain}
		}
	}
	op.stack = append(op.stack, inFlightFrame{key: key, service: service})
	return nil
}

// hasFrame reports whether (scope, regID) is already on the in-flight
// stack, used by the sharing-lookup middleware to decide whether it is
// safe to take the registration's singleflight lock.
func (op *ResolveOperation) hasFrame(scope *LifetimeScope, regID RegistrationID) bool {
	key := inFlightKey{scope: scope, regID: regID}
	for _, f := range op.stack {
		if f.key == key {
			return true
		}
	}
	return false
}

func (op *ResolveOperation) leave() {
	op.stack = op.stack[:len(op.stack)-1]
}

// addCompleting registers a callback deferred until the outermost Resolve
// call of this operation finishes, successfully or not.
func (op *ResolveOperation) addCompleting(fn func()) {
	op.completing = append(op.completing, fn)
}

func (op *ResolveOperation) runCompleting() {
	for i := len(op.completing) - 1; i >= 0; i-- {
		op.completing[i]()
	}
	op.completing = nil
}

// ResolveRequestContext is the mutable state carried through one pass of
// the resolution pipeline. Middleware may reassign Scope (before
// activation begins) and Parameters (before activation), and must set
// Instance once activation succeeds.
type ResolveRequestContext struct {
	Operation            *ResolveOperation
	Scope                *LifetimeScope
	Registration         *Registration
	Service              ServiceKey
	DecoratorTarget      any
	Parameters           []Parameter
	Instance             any
	NewInstanceActivated bool
	PhaseReached         Phase
	Err                  error

	scopeLocked bool
}

func (ctx *ResolveRequestContext) diagnosticListener() DiagnosticListener {
	if ctx.Operation != nil && ctx.Operation.diagnostics != nil {
		return ctx.Operation.diagnostics
	}
	return NoopListener{}
}

// ChangeScope reassigns the scope activation will occur in. It is only
// legal before activation has produced an instance; scope-selection
// middleware is expected to be the only caller.
func (ctx *ResolveRequestContext) ChangeScope(scope *LifetimeScope) error {
	if ctx.scopeLocked {
		return &InvalidRegistrationStateError{Reason: "scope changed after activation began"}
	}
	ctx.Scope = scope
	return nil
}

// ChangeParameters replaces the parameter list. Legal any time before
// activation runs.
func (ctx *ResolveRequestContext) ChangeParameters(params []Parameter) error {
	if ctx.PhaseReached >= PhaseActivation {
		return &InvalidRegistrationStateError{Reason: "parameters changed after activation began"}
	}
	ctx.Parameters = params
	return nil
}

// ResolveNested resolves another service using the same operation and the
// context's current scope, threading cycle detection through explicitly.
// This is how an activator is expected to pull in its own dependencies.
func (ctx *ResolveRequestContext) ResolveNested(service ServiceKey, params ...Parameter) (any, error) {
	return ctx.Scope.resolveWithOperation(ctx.Operation, service, params)
}
