package instrument

import (
	"time"
)

// Call resolves the attribute routed through site for instance.
//
// A nil instance or NoInstance returns site unchanged. Otherwise the call
// site Getter decides between the fast path, a population lookup in the
// resolved instance dict and the impl. owner is accepted for descriptor
// symmetry and is not consulted.
func (g *Getter) Call(site CallSite, instance any, owner Class) (any, error) {
	if instance == nil || instance == NoInstance {
		g.cfg.logger.LogAccess(AccessEvent{Name: g.Name(), Path: PathUnbound})
		return site, nil
	}
	g.stats.calls.Add(1)

	start := time.Now()
	value, key, path, err := g.call(site, instance)
	g.cfg.logger.LogAccess(AccessEvent{
		Name:     g.Name(),
		Key:      key,
		Path:     path,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (g *Getter) call(site CallSite, instance any) (any, any, AccessPath, error) {
	if site == nil {
		return nil, nil, PathGeneric, malformedCallSite(g.Name(), nil, "call_site", nil)
	}

	mapping, err := g.globals.InstanceDict(instance)
	if err != nil {
		return nil, nil, PathGeneric, storageUnavailable(err)
	}

	key, err := site.Key()
	if err != nil || key == nil {
		return nil, nil, PathGeneric, malformedCallSite(g.Name(), nil, "key", err)
	}

	// The entity's own storage is optional; without it the fast path is
	// never eligible.
	var raw Mapping
	if provider, ok := instance.(BasicDictProvider); ok {
		raw = provider.BasicDict()
	}

	self := g.siteGetter(site)
	if self != g {
		self.stats.calls.Add(1)
	}

	if raw != nil && self.fastPathEligible(key, IdentityOf(mapping)) {
		if value, ok := raw.Lookup(key); ok {
			self.stats.fastHits.Add(1)
			return value, key, PathFast, nil
		}
		self.invalidate(key, "fast_path_miss")
	}

	return self.generic(site, instance, key, mapping, raw)
}

// generic runs the authoritative path, refreshing the capability flag when
// the impl changed and marking the cache hot when the instance dict proved to
// be the entity's own storage.
func (g *Getter) generic(site CallSite, instance, key any, mapping, raw Mapping) (any, any, AccessPath, error) {
	impl, err := site.Impl()
	if err != nil || impl == nil {
		return nil, key, PathGeneric, malformedCallSite(g.Name(), key, "impl", err)
	}
	implID := IdentityOf(impl)

	supports, err := g.capability(site, key, implID)
	if err != nil {
		return nil, key, PathGeneric, malformedCallSite(g.Name(), key, "supports_population", err)
	}

	if supports {
		dict, err := g.globals.InstanceDict(instance)
		if err != nil {
			return nil, key, PathGeneric, storageUnavailable(err)
		}
		dictID := IdentityOf(dict)
		cacheable := raw != nil && !dictID.IsZero() && dictID == IdentityOf(raw)
		if dict != nil {
			mapping = dict
			if value, ok := dict.Lookup(key); ok {
				g.stats.populationHits.Add(1)
				if cacheable {
					g.markHot(key, implID, dictID)
				}
				return value, key, PathPopulation, nil
			}
		}
	}

	state, err := g.globals.InstanceState(instance)
	if err != nil {
		return nil, key, PathGeneric, err
	}
	g.stats.genericCalls.Add(1)
	value, err := impl.Get(state, mapping)
	return value, key, PathGeneric, err
}

// siteGetter finds or attaches the Getter owned by site. When the call site
// can't own one, a transient Getter with an empty cache serves the call so
// the shared Getter never caches on behalf of a single call site. Nothing
// remembers a failed attach, so every call through such a site counts as
// degraded and emits accessor.slot.degraded.
func (g *Getter) siteGetter(site CallSite) *Getter {
	var transient *Getter
	if slot, ok := site.(CacheSlot); ok {
		if cached := slot.GetterCache(); cached != nil {
			return cached
		}
		transient = g.child()
		attached, err := slot.AttachGetterCache(transient)
		if err == nil && attached != nil {
			return attached
		}
	}
	if transient == nil {
		transient = g.child()
	}
	g.stats.degradedSlots.Add(1)
	g.emit(buildDegradedEvent(g.Name(), site))
	return transient
}

func (g *Getter) fastPathEligible(key any, mappingID Identity) bool {
	g.mu.Lock()
	hot := !g.cache.mapping.IsZero() && g.cache.supportsPopulation
	same := g.cache.mapping == mappingID
	g.mu.Unlock()
	if !hot {
		return false
	}
	if same {
		return true
	}
	g.invalidate(key, "identity_changed")
	return false
}

// capability returns the population flag for implID, reading it from site
// when the impl changed or can't be tracked by identity. A refresh clears
// the cached mapping identity.
func (g *Getter) capability(site CallSite, key any, implID Identity) (bool, error) {
	g.mu.Lock()
	if g.cache.known && !implID.IsZero() && g.cache.impl == implID {
		supports := g.cache.supportsPopulation
		g.mu.Unlock()
		return supports, nil
	}
	g.mu.Unlock()

	supports, err := site.SupportsPopulation()
	if err != nil {
		return false, err
	}
	g.stats.capabilityReads.Add(1)

	g.mu.Lock()
	previous := g.cache
	g.cache = getterCache{
		impl:               implID,
		supportsPopulation: supports,
		known:              true,
	}
	g.mu.Unlock()

	if previous.known && previous.impl != implID {
		if !previous.mapping.IsZero() {
			g.stats.invalidations.Add(1)
		}
		g.emit(buildCapabilityEvent(g.Name(), key, previous.supportsPopulation, supports))
	}
	return supports, nil
}

func (g *Getter) markHot(key any, implID, mappingID Identity) {
	g.mu.Lock()
	if implID.IsZero() || !g.cache.known || g.cache.impl != implID || !g.cache.supportsPopulation {
		g.mu.Unlock()
		return
	}
	wasHot := g.cache.mapping == mappingID
	g.cache.mapping = mappingID
	g.mu.Unlock()

	if !wasHot {
		g.emit(buildCacheEvent(verbCacheHot, g.Name(), key, ""))
	}
}

func (g *Getter) invalidate(key any, reason string) {
	g.mu.Lock()
	wasHot := !g.cache.mapping.IsZero()
	g.cache.mapping = Identity{}
	g.mu.Unlock()

	if wasHot {
		g.stats.invalidations.Add(1)
		g.emit(buildCacheEvent(verbCacheInvalidated, g.Name(), key, reason))
	}
}
