package instrument

// Callable is the result of binding a Getter: either the Getter itself for
// unbound access or a *BoundGetter.
type Callable interface {
	Name() string
}

// BoundGetter pairs a Getter with the call site it was bound through.
type BoundGetter struct {
	getter *Getter
	site   CallSite
	owner  Class
}

// Bind implements descriptor binding. A nil site yields the Getter itself so
// class level introspection sees the accessor rather than a bound value.
func (g *Getter) Bind(site CallSite, owner Class) Callable {
	if site == nil {
		return g
	}
	return &BoundGetter{getter: g, site: site, owner: owner}
}

// Name returns the bound Getter name.
func (b *BoundGetter) Name() string {
	return b.getter.Name()
}

// Getter returns the Getter the binding was made from.
func (b *BoundGetter) Getter() *Getter {
	return b.getter
}

// CallSite returns the call site the Getter was bound through.
func (b *BoundGetter) CallSite() CallSite {
	return b.site
}

// Get resolves the attribute for instance.
func (b *BoundGetter) Get(instance any) (any, error) {
	return b.getter.Call(b.site, instance, b.owner)
}
