package instrument

import (
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-instrument/pkg/activity"
)

const (
	// DefaultName is the name reported by a freshly constructed Getter.
	DefaultName = "__get__"
	// GetterType is the allocation tag of the built-in Getter.
	GetterType = "instrument.Getter"
)

// Getter is a stateful accessor implementing an optimized instrumented
// attribute read. It remembers the identity of the instance dict it last
// validated against the entity's own storage and, while the identity holds,
// reads values directly instead of going through the impl.
//
// A Getter created with New is normally shared by every attribute of a class;
// the cache it consults lives in a child Getter attached to each call site.
type Getter struct {
	globals Globals
	emitter *activity.Emitter
	cfg     getterConfig

	mu      sync.Mutex
	name    string
	typeTag string
	cache   getterCache

	stats getterStats
}

// getterCache holds the identities remembered between calls. mapping is only
// meaningful while impl matches the impl whose population flag was last read
// as true.
type getterCache struct {
	mapping            Identity
	impl               Identity
	supportsPopulation bool
	known              bool
}

type getterStats struct {
	calls           atomic.Uint64
	fastHits        atomic.Uint64
	populationHits  atomic.Uint64
	genericCalls    atomic.Uint64
	capabilityReads atomic.Uint64
	invalidations   atomic.Uint64
	degradedSlots   atomic.Uint64
}

// Stats is a point in time copy of a Getter's counters.
type Stats struct {
	Calls           uint64
	FastHits        uint64
	PopulationHits  uint64
	GenericCalls    uint64
	CapabilityReads uint64
	Invalidations   uint64
	DegradedSlots   uint64
}

// Phase describes the cache state of a Getter.
type Phase int

const (
	// PhaseUninitialized is the state of a Getter that has never been called.
	PhaseUninitialized Phase = iota
	// PhaseCapabilityUnknown means the population flag has not been read for
	// a trackable impl yet.
	PhaseCapabilityUnknown
	// PhaseCapabilityKnown means the population flag is cached but no mapping
	// identity has been validated.
	PhaseCapabilityKnown
	// PhaseCacheHot means the next call with the same mapping identity takes
	// the fast path.
	PhaseCacheHot
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseCapabilityUnknown:
		return "capability-unknown"
	case PhaseCapabilityKnown:
		return "capability-known"
	case PhaseCacheHot:
		return "cache-hot"
	default:
		return "unknown"
	}
}

// New constructs a Getter bound to globals with an empty cache.
func New(globals Globals, opts ...Option) (*Getter, error) {
	if globals == nil {
		return nil, ErrInvalidGlobals
	}
	cfg := applyOptions(opts)
	return newGetter(globals, DefaultName, cfg), nil
}

func newGetter(globals Globals, name string, cfg getterConfig) *Getter {
	return (&Getter{}).init(globals, name, cfg)
}

// init fills a bare Getter, as produced by New or a registry Allocator.
func (g *Getter) init(globals Globals, name string, cfg getterConfig) *Getter {
	if cfg.logger == nil {
		cfg.logger = noopAccessLogger{}
	}
	typeTag := cfg.typeTag
	if typeTag == "" {
		typeTag = GetterType
	}
	g.globals = globals
	g.emitter = activity.NewEmitter(cfg.hooks,
		activity.WithChannel(cfg.channel),
		activity.WithErrorHandler(cfg.onHookError),
	)
	g.cfg = cfg
	g.mu.Lock()
	g.name = name
	g.typeTag = typeTag
	g.cache = getterCache{}
	g.mu.Unlock()
	return g
}

// child returns a Getter sharing globals, name and configuration with g but
// owning a fresh cache.
func (g *Getter) child() *Getter {
	g.mu.Lock()
	name, typeTag := g.name, g.typeTag
	g.mu.Unlock()
	c := &Getter{
		globals: g.globals,
		emitter: g.emitter,
		cfg:     g.cfg,
		name:    name,
		typeTag: typeTag,
	}
	return c
}

// Name returns the name reported for introspection and reduction.
func (g *Getter) Name() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.name
}

// SetName replaces the Getter name. Any string is accepted, the empty one
// included; only DeleteName fails.
func (g *Getter) SetName(name string) error {
	g.mu.Lock()
	g.name = name
	g.mu.Unlock()
	return nil
}

// DeleteName always fails: a Getter must keep a name.
func (g *Getter) DeleteName() error {
	return ErrInvalidAttributeName
}

// TypeTag returns the allocation tag reported by Reduce.
func (g *Getter) TypeTag() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.typeTag
}

// Globals returns the collaborator bundle the Getter resolves through.
func (g *Getter) Globals() Globals {
	return g.globals
}

// Phase reports the current cache state.
func (g *Getter) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case !g.cache.mapping.IsZero():
		return PhaseCacheHot
	case g.cache.known:
		return PhaseCapabilityKnown
	case g.stats.calls.Load() > 0:
		return PhaseCapabilityUnknown
	default:
		return PhaseUninitialized
	}
}

// Stats returns a copy of the Getter counters.
func (g *Getter) Stats() Stats {
	return Stats{
		Calls:           g.stats.calls.Load(),
		FastHits:        g.stats.fastHits.Load(),
		PopulationHits:  g.stats.populationHits.Load(),
		GenericCalls:    g.stats.genericCalls.Load(),
		CapabilityReads: g.stats.capabilityReads.Load(),
		Invalidations:   g.stats.invalidations.Load(),
		DegradedSlots:   g.stats.degradedSlots.Load(),
	}
}

// Reset drops every cached identity, returning the Getter to
// PhaseCapabilityUnknown on its next call.
func (g *Getter) Reset() {
	g.mu.Lock()
	g.cache = getterCache{}
	g.mu.Unlock()
}
