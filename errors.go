package instrument

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGlobals indicates a Getter was built without a usable
	// collaborator bundle.
	ErrInvalidGlobals = errors.New("instrument: globals must provide instance_dict and instance_state")
	// ErrInvalidAttributeName indicates an attempt to delete the Getter name.
	ErrInvalidAttributeName = errors.New("instrument: __name__ must be set to a string object")
	// ErrMalformedCallSite indicates a call site missing its key, impl or
	// population flag. It points at the instrumentation layer and is not
	// retried.
	ErrMalformedCallSite = errors.New("instrument: malformed call site")
	// ErrStorageUnavailable indicates the instance dict resolver failed.
	ErrStorageUnavailable = errors.New("instrument: instance storage unavailable")
	// ErrRegistryLookup indicates the well-known globals bundle could not be
	// resolved during reconstruction.
	ErrRegistryLookup = errors.New("instrument: registry lookup failed")
	// ErrAllocation indicates the reduced type tag could not produce a bare
	// Getter.
	ErrAllocation = errors.New("instrument: allocation failed")
	// ErrSlotReadOnly is returned by call sites refusing a cache Getter.
	ErrSlotReadOnly = errors.New("instrument: call site cache slot is read-only")
	// ErrAttributeUnset is returned by ScalarImpl for required attributes
	// without a value.
	ErrAttributeUnset = errors.New("instrument: attribute unset")
)

// AccessError captures the call site metadata alongside a fatal access failure.
type AccessError struct {
	Name  string
	Key   any
	Stage string
	Err   error
}

func (e *AccessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("instrument: %s %s stage=%s: %v", e.Name, describeKey(e.Key), e.Stage, e.Err)
}

func (e *AccessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeKey(key any) string {
	if key == nil {
		return "key=<unresolved>"
	}
	return fmt.Sprintf("key=%q", keyString(key))
}

func malformedCallSite(name string, key any, stage string, err error) error {
	if err == nil {
		err = fmt.Errorf("%s is nil", stage)
	}
	return &AccessError{
		Name:  name,
		Key:   key,
		Stage: stage,
		Err:   errors.Join(ErrMalformedCallSite, err),
	}
}

func storageUnavailable(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
