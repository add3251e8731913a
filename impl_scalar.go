package instrument

import "fmt"

// ScalarImpl reads a plain column value. Values live in the instance dict, so
// it supports population; missing values are loaded through the instance
// state when it implements Loader and stored back into the dict.
type ScalarImpl struct {
	key      any
	fallback any
	required bool
}

// ScalarOption configures a ScalarImpl.
type ScalarOption func(*ScalarImpl)

// WithDefault sets the value returned for an unset, unloadable attribute.
func WithDefault(value any) ScalarOption {
	return func(s *ScalarImpl) {
		s.fallback = value
	}
}

// WithRequired makes an unset, unloadable attribute an ErrAttributeUnset
// failure instead of returning the default.
func WithRequired() ScalarOption {
	return func(s *ScalarImpl) {
		s.required = true
	}
}

// NewScalarImpl constructs a ScalarImpl for key.
func NewScalarImpl(key any, opts ...ScalarOption) *ScalarImpl {
	s := &ScalarImpl{key: key}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SupportsPopulation implements PopulationReporter.
func (s *ScalarImpl) SupportsPopulation() bool {
	return true
}

// Get implements Impl.
func (s *ScalarImpl) Get(state any, dict Mapping) (any, error) {
	if dict != nil {
		if value, ok := dict.Lookup(s.key); ok {
			return value, nil
		}
	}
	if loader, ok := state.(Loader); ok {
		value, ok, err := loader.LoadAttribute(s.key)
		if err != nil {
			return nil, err
		}
		if ok {
			if mutable, ok := dict.(MutableMapping); ok {
				mutable.Store(s.key, value)
			}
			return value, nil
		}
	}
	if s.required {
		return nil, fmt.Errorf("%w: %v", ErrAttributeUnset, s.key)
	}
	return s.fallback, nil
}
