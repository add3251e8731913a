package instrument

import (
	"fmt"
	"reflect"
)

// Identity is a comparison-only token for a reference value. It records the
// address and dynamic type of the value but holds no reference to it, so a
// cached Identity never keeps a mapping or impl alive.
//
// Value types (structs, scalars) and funcs carry no identity: IdentityOf
// returns the zero Identity for them and the accessor treats them as
// uncacheable.
type Identity struct {
	addr uintptr
	typ  reflect.Type
}

// IdentityOf returns the identity token of v.
func IdentityOf(v any) Identity {
	if v == nil {
		return Identity{}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return Identity{}
		}
		return Identity{addr: rv.Pointer(), typ: rv.Type()}
	default:
		return Identity{}
	}
}

// IsZero reports whether the token identifies nothing.
func (i Identity) IsZero() bool {
	return i.addr == 0
}

// Same reports whether v is the value i was taken from.
func (i Identity) Same(v any) bool {
	return !i.IsZero() && i == IdentityOf(v)
}

func (i Identity) String() string {
	if i.IsZero() {
		return "identity(<none>)"
	}
	return fmt.Sprintf("identity(%s@%#x)", i.typ, i.addr)
}
