package instrument

import (
	"reflect"

	"github.com/goliatone/go-instrument/pkg/activity"
)

// Class identifies the declaring type of an instrumented attribute.
type Class = reflect.Type

// Mapping is per-instance key/value storage backing attribute values. A
// missing key is reported through ok=false and is never an error.
type Mapping interface {
	Lookup(key any) (value any, ok bool)
}

// MutableMapping is a Mapping that can be populated by implementations.
type MutableMapping interface {
	Mapping
	Store(key, value any)
	Delete(key any)
}

// Impl is the authoritative attribute retrieval strategy. Errors returned by
// Get reach the caller of Getter.Call unmodified.
type Impl interface {
	Get(state any, dict Mapping) (any, error)
}

// PopulationReporter is implemented by impls whose values can be read
// straight from the instance dict.
type PopulationReporter interface {
	SupportsPopulation() bool
}

// CallSite is the attribute descriptor through which an access is routed.
type CallSite interface {
	Key() (any, error)
	Impl() (Impl, error)
	SupportsPopulation() (bool, error)
}

// CacheSlot is implemented by call sites able to own a private Getter.
type CacheSlot interface {
	// GetterCache returns the attached Getter or nil.
	GetterCache() *Getter
	// AttachGetterCache attaches g unless a Getter is already attached and
	// returns whichever Getter the call site now owns.
	AttachGetterCache(g *Getter) (*Getter, error)
}

// Globals is the collaborator bundle shared by every Getter built from it.
type Globals interface {
	InstanceDict(instance any) (Mapping, error)
	InstanceState(instance any) (any, error)
}

// GlobalsFuncs adapts a pair of functions to Globals.
type GlobalsFuncs struct {
	Dict  func(instance any) (Mapping, error)
	State func(instance any) (any, error)
}

// InstanceDict implements Globals.
func (g GlobalsFuncs) InstanceDict(instance any) (Mapping, error) {
	if g.Dict == nil {
		return nil, ErrInvalidGlobals
	}
	return g.Dict(instance)
}

// InstanceState implements Globals.
func (g GlobalsFuncs) InstanceState(instance any) (any, error) {
	if g.State == nil {
		return nil, ErrInvalidGlobals
	}
	return g.State(instance)
}

// BasicDictProvider is implemented by entities exposing their own minimal
// storage.
type BasicDictProvider interface {
	BasicDict() Mapping
}

// Loader is implemented by instance states that can resolve attributes
// missing from the instance dict, e.g. expired or deferred columns.
type Loader interface {
	LoadAttribute(key any) (value any, ok bool, err error)
}

type noInstance struct{}

// NoInstance marks an unbound access; Call returns the call site unchanged.
var NoInstance any = noInstance{}

// Option configures a Getter.
type Option func(*getterConfig)

type getterConfig struct {
	logger  AccessLogger
	hooks   activity.Hooks
	channel string
	typeTag string

	onHookError func(activity.Event, error)
}

func applyOptions(opts []Option) getterConfig {
	cfg := getterConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithTypeTag sets the allocation tag reported by Reduce. Reconstruct looks
// the tag up in the registry allocators.
func WithTypeTag(tag string) Option {
	return func(cfg *getterConfig) {
		cfg.typeTag = tag
	}
}
