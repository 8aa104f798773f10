package container

import "sort"

// Phase identifies where in a resolve request's lifecycle a middleware
// runs. Phases are strictly ordered; service pipelines only accept phases
// up to ServicePipelineEnd, registration pipelines only accept phases from
// RegistrationPipelineStart onward.
type Phase int

const (
	PhaseResolveRequestStart Phase = iota
	PhaseScopeSelection
	PhaseDecoration
	PhaseSharingPreparation
	PhaseServicePipelineEnd
	PhaseRegistrationPipelineStart
	PhaseParameterSelection
	PhaseActivation
)

func (p Phase) String() string {
	switch p {
	case PhaseResolveRequestStart:
		return "ResolveRequestStart"
	case PhaseScopeSelection:
		return "ScopeSelection"
	case PhaseDecoration:
		return "Decoration"
	case PhaseSharingPreparation:
		return "SharingPreparation"
	case PhaseServicePipelineEnd:
		return "ServicePipelineEnd"
	case PhaseRegistrationPipelineStart:
		return "RegistrationPipelineStart"
	case PhaseParameterSelection:
		return "ParameterSelection"
	case PhaseActivation:
		return "Activation"
	default:
		return "Unknown"
	}
}

// PipelineKind distinguishes the two pipeline shapes a phase may belong to.
type PipelineKind int

const (
	ServicePipelineKind PipelineKind = iota
	RegistrationPipelineKind
)

func (k PipelineKind) String() string {
	if k == ServicePipelineKind {
		return "service"
	}
	return "registration"
}

func (k PipelineKind) acceptsPhase(p Phase) bool {
	if k == ServicePipelineKind {
		return p >= PhaseResolveRequestStart && p <= PhaseServicePipelineEnd
	}
	return p >= PhaseRegistrationPipelineStart && p <= PhaseActivation
}

// Handler runs one step of pipeline execution against a mutable request
// context. Build uses a no-op terminal handler when none is given.
type Handler func(ctx *ResolveRequestContext)

// Middleware wraps a downstream Handler, in the same shape as an HTTP
// middleware wrapping a downstream http.Handler: it decides whether, when,
// and with what context to call next.
type Middleware func(next Handler) Handler

// NamedMiddleware is a middleware tagged with the phase and name used for
// ordering and diagnostics.
type NamedMiddleware struct {
	Phase      Phase
	Name       string
	Middleware Middleware
}

// InsertMode controls where among same-phase entries a new middleware lands.
type InsertMode int

const (
	// InsertEndOfPhase places the entry after existing same-phase entries.
	InsertEndOfPhase InsertMode = iota
	// InsertStartOfPhase places the entry before existing same-phase entries.
	InsertStartOfPhase
)

// PipelineBuilder accumulates NamedMiddleware for one pipeline kind and
// compiles them into an executable Pipeline.
type PipelineBuilder struct {
	kind    PipelineKind
	entries []NamedMiddleware
}

// NewPipelineBuilder creates a builder for the given pipeline kind.
func NewPipelineBuilder(kind PipelineKind) *PipelineBuilder {
	return &PipelineBuilder{kind: kind}
}

// Use inserts a single middleware, honoring mode among equal-phase entries.
func (b *PipelineBuilder) Use(mw NamedMiddleware, mode InsertMode) error {
	if !b.kind.acceptsPhase(mw.Phase) {
		return &PipelinePhaseViolationError{Phase: mw.Phase, Kind: b.kind}
	}
	idx := b.insertionIndex(mw.Phase, mode)
	b.entries = append(b.entries, NamedMiddleware{})
	copy(b.entries[idx+1:], b.entries[idx:])
	b.entries[idx] = mw
	return nil
}

// UseRange bulk-inserts middleware. The caller-supplied sequence must be
// phase-monotonic non-decreasing; caller order among entries of the same
// phase is preserved.
func (b *PipelineBuilder) UseRange(mws []NamedMiddleware, mode InsertMode) error {
	last := Phase(-1)
	for _, mw := range mws {
		if mw.Phase < last {
			return &PipelinePhaseViolationError{Phase: mw.Phase, Kind: b.kind}
		}
		last = mw.Phase
	}
	if mode == InsertStartOfPhase {
		// Each entry lands at the start of its phase, so inserting back to
		// front keeps same-phase entries in caller order.
		for i := len(mws) - 1; i >= 0; i-- {
			if err := b.Use(mws[i], mode); err != nil {
				return err
			}
		}
		return nil
	}
	for _, mw := range mws {
		if err := b.Use(mw, mode); err != nil {
			return err
		}
	}
	return nil
}

// insertionIndex finds where a new phase-P entry belongs relative to
// entries already at phase P, given the insert mode. Entries are always
// kept sorted by phase (stable within a phase, per insertion order).
func (b *PipelineBuilder) insertionIndex(phase Phase, mode InsertMode) int {
	lo := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].Phase >= phase })
	if mode == InsertStartOfPhase {
		return lo
	}
	hi := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].Phase > phase })
	return hi
}

// Pipeline is the compiled, executable chain.
type Pipeline struct {
	kind    PipelineKind
	entries []NamedMiddleware
	invoke  Handler
}

// Kind reports which pipeline shape this is.
func (p *Pipeline) Kind() PipelineKind { return p.kind }

// Invoke runs the compiled chain against ctx.
func (p *Pipeline) Invoke(ctx *ResolveRequestContext) {
	p.invoke(ctx)
}

// Build composes the accumulated middleware, from tail to head, ending in
// terminal. Building is a pure, idempotent transform of the builder's
// current entries; the builder may keep accumulating afterward and Build
// can be called again to recompile.
func (b *PipelineBuilder) Build(terminal Handler) *Pipeline {
	if terminal == nil {
		terminal = func(*ResolveRequestContext) {}
	}
	cur := terminal
	for i := len(b.entries) - 1; i >= 0; i-- {
		mw := b.entries[i]
		cur = wrapWithDiagnostics(mw, cur)
	}
	entries := make([]NamedMiddleware, len(b.entries))
	copy(entries, b.entries)
	return &Pipeline{kind: b.kind, entries: entries, invoke: cur}
}

// wrapWithDiagnostics wraps a middleware so its start/success/failure is
// reported to the active diagnostic listener, if one is enabled.
func wrapWithDiagnostics(mw NamedMiddleware, downstream Handler) Handler {
	next := mw.Middleware(downstream)
	return func(ctx *ResolveRequestContext) {
		diag := ctx.diagnosticListener()
		enabled := diag != nil && diag.IsEnabled()
		if enabled {
			diag.Write(EventMiddlewareStart, MiddlewareEvent{Phase: mw.Phase, Name: mw.Name, Service: ctx.Service})
		}
		errBefore := ctx.Err
		next(ctx)
		if !enabled {
			return
		}
		if ctx.Err != nil && ctx.Err != errBefore {
			diag.Write(EventMiddlewareFailure, MiddlewareEvent{Phase: mw.Phase, Name: mw.Name, Service: ctx.Service, Err: ctx.Err})
		} else {
			diag.Write(EventMiddlewareSuccess, MiddlewareEvent{Phase: mw.Phase, Name: mw.Name, Service: ctx.Service})
		}
	}
}

// MiddlewareEvent is the payload written for middlewareStart/Success/Failure
// diagnostic events.
type MiddlewareEvent struct {
	Phase   Phase
	Name    string
	Service ServiceKey
	Err     error
}
