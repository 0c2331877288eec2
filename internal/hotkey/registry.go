package hotkey

import "sync"

type pendingOp int

const (
	opRegister pendingOp = iota
	opUnregister
)

// pendingRequest is the transient record for one in-flight request. It is
// created by the coordinator when it posts to the pump and consumed
// exactly once: either by the pump completing the request or by the
// coordinator rolling back on timeout. hk is the hotkey id the request
// acts on; the request id itself is purely a correlation handle.
type pendingRequest struct {
	op  pendingOp
	def Definition
	hk  int32
}

// result is the outcome the pump publishes for a pending request.
type result struct {
	ok   bool
	code uint32
}

// claimOutcome is what claimRegister decided a registration means right
// now.
type claimOutcome int

const (
	// claimNew: the combination was free; a pending entry was recorded.
	claimNew claimOutcome = iota
	// claimIdentical: an identical definition is already live.
	claimIdentical
	// claimConflict: the combination is owned, live or in flight, by a
	// different definition.
	claimConflict
	// claimPending: an identical definition is in flight from another
	// caller.
	claimPending
)

// registry is the shared state between the coordinator and the pump: the
// authoritative id <-> definition maps for everything live at the OS
// level, plus the pending-request and result bookkeeping used for
// cross-thread correlation. A single mutex guards all of it; the live
// maps are only ever mutated by the pump thread.
//
// Hotkey ids and request ids are separate spaces. A hotkey id names a
// native registration for its whole life and routes press
// notifications; a request id correlates exactly one posted request
// with exactly one published result. Keeping them apart means an
// unregistration can never be mistaken for the registration another
// caller is still awaiting on the same hotkey.
type registry struct {
	mu         sync.RWMutex
	nextReq    int32
	nextID     int32
	byID       map[int32]Definition
	byIdentity map[Identity]int32
	pending    map[int32]pendingRequest
	results    map[int32]result
}

func newRegistry() *registry {
	return &registry{
		byID:       make(map[int32]Definition),
		byIdentity: make(map[Identity]int32),
		pending:    make(map[int32]pendingRequest),
		results:    make(map[int32]result),
	}
}

// claimRegister decides in one critical section what registering def
// means right now: a no-op against an identical live entry, a conflict
// with a live or in-flight owner, a join onto another caller's
// identical in-flight registration, or a fresh claim. For claimNew it
// allocates both the request id and the hotkey id and records the
// pending entry before releasing the lock, so no other caller can
// observe the combination as free in between. Ids increase
// monotonically and are never reused.
func (r *registry) claimRegister(def Definition) (req, hk int32, existing Definition, outcome claimOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hk, ok := r.byIdentity[def.Identity()]; ok {
		existing := r.byID[hk]
		if existing == def {
			return 0, hk, existing, claimIdentical
		}
		return 0, hk, existing, claimConflict
	}
	for _, p := range r.pending {
		if p.op != opRegister || p.def.Identity() != def.Identity() {
			continue
		}
		if p.def == def {
			return 0, p.hk, p.def, claimPending
		}
		return 0, p.hk, p.def, claimConflict
	}

	r.nextReq++
	r.nextID++
	r.pending[r.nextReq] = pendingRequest{op: opRegister, def: def, hk: r.nextID}
	return r.nextReq, r.nextID, def, claimNew
}

// claimUnregister looks up the live owner of ident and, when present,
// records a pending unregistration under a fresh request id.
func (r *registry) claimUnregister(ident Identity) (req int32, existing Definition, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hk, live := r.byIdentity[ident]
	if !live {
		return 0, Definition{}, false
	}
	existing = r.byID[hk]
	r.nextReq++
	r.pending[r.nextReq] = pendingRequest{op: opUnregister, def: existing, hk: hk}
	return r.nextReq, existing, true
}

// peekPending reads a pending request without consuming it. The pump
// peeks before the native call and consumes via complete afterwards, so
// a timeout rollback in between is always detected.
func (r *registry) peekPending(req int32, op pendingOp) (pendingRequest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pending[req]
	if !ok || p.op != op {
		return pendingRequest{}, false
	}
	return p, true
}

// completeRegister publishes the outcome of a native registration. It
// reports false when the pending entry is gone, meaning the coordinator
// rolled back while the native call was in flight; the caller must then
// drop the result instead of touching the live maps.
func (r *registry) completeRegister(req int32, res result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[req]
	if !ok || p.op != opRegister {
		return false
	}
	delete(r.pending, req)
	if res.ok {
		r.byID[p.hk] = p.def
		r.byIdentity[p.def.Identity()] = p.hk
	}
	r.results[req] = res
	return true
}

// completeUnregister publishes the outcome of a native unregistration.
// The live entries are removed only on success; a native failure leaves
// the OS registration in place, so the registry keeps reflecting it.
func (r *registry) completeUnregister(req int32, res result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[req]
	if !ok || p.op != opUnregister {
		return false
	}
	delete(r.pending, req)
	if res.ok {
		if def, live := r.byID[p.hk]; live {
			delete(r.byID, p.hk)
			delete(r.byIdentity, def.Identity())
		}
	}
	r.results[req] = res
	return true
}

// takeResult consumes the published result for req, if any.
func (r *registry) takeResult(req int32) (result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[req]
	if ok {
		delete(r.results, req)
	}
	return res, ok
}

// cancel is the coordinator's timeout rollback. If a result landed just
// as the deadline expired it is consumed and returned so the caller can
// still report the real outcome; otherwise the pending entry is removed
// and the pump will drop the late result when it finds no match.
func (r *registry) cancel(req int32) (result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[req]; ok {
		delete(r.results, req)
		return res, true
	}
	delete(r.pending, req)
	return result{}, false
}

// lookup finds the live registration owning the given identity.
func (r *registry) lookup(ident Identity) (int32, Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdentity[ident]
	if !ok {
		return 0, Definition{}, false
	}
	return id, r.byID[id], true
}

// lookupPending finds an in-flight registration for the given identity.
func (r *registry) lookupPending(ident Identity) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pending {
		if p.op == opRegister && p.def.Identity() == ident {
			return p.def, true
		}
	}
	return Definition{}, false
}

// get returns the live definition for the hotkey id.
func (r *registry) get(id int32) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byID[id]
	return def, ok
}

// definitions snapshots every live definition.
func (r *registry) definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.byID))
	for _, def := range r.byID {
		defs = append(defs, def)
	}
	return defs
}

// clearLive empties the live maps and returns the ids that were
// registered, so the pump can release them natively during shutdown.
func (r *registry) clearLive() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int32, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	r.byID = make(map[int32]Definition)
	r.byIdentity = make(map[Identity]int32)
	return ids
}
