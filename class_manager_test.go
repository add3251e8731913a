package instrument

import (
	"reflect"
	"testing"
)

type order struct {
	own *Dict
}

func (o *order) BasicDict() Mapping { return o.own }

func newOrderManager(t *testing.T) *ClassManager {
	t.Helper()
	globals := GlobalsFuncs{
		Dict:  func(instance any) (Mapping, error) { return instance.(*order).own, nil },
		State: func(instance any) (any, error) { return instance, nil },
	}
	manager, err := NewClassManager(reflect.TypeOf(&order{}), globals)
	if err != nil {
		t.Fatalf("class manager: %v", err)
	}
	return manager
}

func TestClassManagerInstrumentAndGet(t *testing.T) {
	manager := newOrderManager(t)
	if manager.Class().Name() != "order" {
		t.Fatalf("pointer classes are dereferenced, got %s", manager.Class())
	}
	if _, err := manager.Instrument("qty", NewScalarImpl("qty", WithDefault(1))); err != nil {
		t.Fatalf("instrument qty: %v", err)
	}
	if _, err := manager.Instrument("qty", NewScalarImpl("qty")); err == nil {
		t.Fatalf("expected duplicate attribute to be rejected")
	}
	if _, err := manager.Instrument("", NewScalarImpl("")); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
	if _, err := manager.Instrument("price", nil); err == nil {
		t.Fatalf("expected nil impl to be rejected")
	}

	o := &order{own: NewDict(map[string]any{})}
	value, err := manager.Get(o, "qty")
	if err != nil || value != 1 {
		t.Fatalf("expected default qty 1, got %v (%v)", value, err)
	}
	if _, err := manager.Get(o, "missing"); err == nil {
		t.Fatalf("expected unknown attribute to fail")
	}
}

func TestClassManagerBind(t *testing.T) {
	manager := newOrderManager(t)
	if _, err := manager.Instrument("qty", NewScalarImpl("qty")); err != nil {
		t.Fatalf("instrument: %v", err)
	}
	if manager.Bind("missing") != Callable(manager.Getter()) {
		t.Fatalf("unknown attributes bind to the unbound getter")
	}
	bound, ok := manager.Bind("qty").(*BoundGetter)
	if !ok {
		t.Fatalf("expected a bound getter")
	}
	value, err := bound.Get(&order{own: NewDict(map[string]any{"qty": 3})})
	if err != nil || value != 3 {
		t.Fatalf("expected 3, got %v (%v)", value, err)
	}
}

func TestClassManagerDescribe(t *testing.T) {
	manager := newOrderManager(t)
	if _, err := manager.Instrument("qty", NewScalarImpl("qty")); err != nil {
		t.Fatalf("instrument qty: %v", err)
	}
	total, err := NewExpressionImpl("total", "qty * 2")
	if err != nil {
		t.Fatalf("expression: %v", err)
	}
	if _, err := manager.Instrument("total", total); err != nil {
		t.Fatalf("instrument total: %v", err)
	}

	o := &order{own: NewDict(map[string]any{"qty": 4})}
	for i := 0; i < 2; i++ {
		if _, err := manager.Get(o, "qty"); err != nil {
			t.Fatalf("get qty: %v", err)
		}
	}

	want := []FieldDescriptor{
		{Key: "qty", Impl: "*instrument.ScalarImpl", SupportsPopulation: true, Phase: "cache-hot"},
		{Key: "total", Impl: "*instrument.ExpressionImpl", SupportsPopulation: false, Phase: "uninitialized"},
	}
	if got := manager.Describe(); !reflect.DeepEqual(want, got) {
		t.Fatalf("describe mismatch:\nwant: %+v\n got: %+v", want, got)
	}
	if keys := manager.Keys(); !reflect.DeepEqual(keys, []string{"qty", "total"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestClassManagerRejectsNilClass(t *testing.T) {
	if _, err := NewClassManager(nil, &countingGlobals{}); err == nil {
		t.Fatalf("expected nil class to be rejected")
	}
}
