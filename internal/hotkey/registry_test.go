package hotkey

import "testing"

func mustClaimNew(t *testing.T, r *registry, def Definition) (req, hk int32) {
	t.Helper()
	req, hk, _, outcome := r.claimRegister(def)
	if outcome != claimNew {
		t.Fatalf("claimRegister(%s) = %v, want claimNew", def, outcome)
	}
	return req, hk
}

func TestRegistryIDsAreMonotonic(t *testing.T) {
	r := newRegistry()
	_, a := mustClaimNew(t, r, Definition{Mods: ModCtrl, Key: KeyA})
	_, b := mustClaimNew(t, r, Definition{Mods: ModCtrl, Key: KeyB})
	if b <= a {
		t.Errorf("hotkey ids must increase monotonically: got %d then %d", a, b)
	}
}

func TestRegistryClaimRegisterOutcomes(t *testing.T) {
	once := Definition{Mods: ModCtrl | ModAlt, Key: KeyF1, Trigger: TriggerOnce}
	repeat := Definition{Mods: ModCtrl | ModAlt, Key: KeyF1, Trigger: TriggerRepeatWhileHeld}
	other := Definition{Mods: ModCtrl, Key: KeyB}

	r := newRegistry()
	req, _ := mustClaimNew(t, r, once)

	// While the first claim is still in flight, an identical definition
	// joins it and a different trigger mode on the same combination is a
	// conflict. Unrelated combinations claim freely.
	if _, _, _, outcome := r.claimRegister(once); outcome != claimPending {
		t.Errorf("identical in-flight claim = %v, want claimPending", outcome)
	}
	if _, _, existing, outcome := r.claimRegister(repeat); outcome != claimConflict || existing != once {
		t.Errorf("conflicting in-flight claim = %v existing %+v, want claimConflict owned by %+v", outcome, existing, once)
	}
	mustClaimNew(t, r, other)

	if !r.completeRegister(req, result{ok: true}) {
		t.Fatal("completeRegister")
	}

	// Once live, the identical definition is a no-op and the conflict
	// names the live owner.
	if _, _, _, outcome := r.claimRegister(once); outcome != claimIdentical {
		t.Errorf("identical live claim = %v, want claimIdentical", outcome)
	}
	if _, _, existing, outcome := r.claimRegister(repeat); outcome != claimConflict || existing != once {
		t.Errorf("conflicting live claim = %v existing %+v, want claimConflict owned by %+v", outcome, existing, once)
	}
}

func TestRegistryUnregisterUsesFreshRequestID(t *testing.T) {
	r := newRegistry()
	def := Definition{Mods: ModCtrl, Key: KeyA}
	req, hk := mustClaimNew(t, r, def)
	if !r.completeRegister(req, result{ok: true}) {
		t.Fatal("register")
	}

	// The register result is still unconsumed, as if its caller has not
	// polled yet. Claiming the unregistration must produce a distinct
	// request id so neither waiter can take the other's result.
	unregReq, existing, ok := r.claimUnregister(def.Identity())
	if !ok || existing != def {
		t.Fatalf("claimUnregister = %v existing %+v, want live %+v", ok, existing, def)
	}
	if unregReq == req || unregReq == hk {
		t.Errorf("unregister request id %d collides with register request %d or hotkey id %d", unregReq, req, hk)
	}
	if _, ok := r.takeResult(unregReq); ok {
		t.Error("unregister request must start with no published result")
	}
	if res, ok := r.takeResult(req); !ok || !res.ok {
		t.Errorf("register result must remain for its own caller, got ok=%v res=%+v", ok, res)
	}
	if p, ok := r.peekPending(unregReq, opUnregister); !ok || p.hk != hk {
		t.Errorf("pending unregistration should target hotkey %d, got %+v ok=%v", hk, p, ok)
	}
}

func TestRegistryLateResultDroppedAfterCancel(t *testing.T) {
	r := newRegistry()
	def := Definition{Mods: ModCtrl, Key: KeyA}
	req, _ := mustClaimNew(t, r, def)

	// Coordinator rolls back on timeout before the pump completes.
	if _, ok := r.cancel(req); ok {
		t.Fatal("cancel before any result should report no result")
	}

	// The pump's late completion must be refused outright.
	if r.completeRegister(req, result{ok: true}) {
		t.Error("completeRegister after rollback must report failure")
	}
	if _, _, ok := r.lookup(def.Identity()); ok {
		t.Error("late result must not install a live entry")
	}
	if _, ok := r.takeResult(req); ok {
		t.Error("late result must not be published")
	}
}

func TestRegistryCancelReturnsLandedResult(t *testing.T) {
	r := newRegistry()
	def := Definition{Mods: ModCtrl, Key: KeyA}
	req, _ := mustClaimNew(t, r, def)

	if !r.completeRegister(req, result{ok: true}) {
		t.Fatal("completeRegister with live pending entry should succeed")
	}

	// The result landed exactly at the coordinator's deadline: cancel
	// must hand it over instead of declaring a timeout.
	res, ok := r.cancel(req)
	if !ok || !res.ok {
		t.Errorf("cancel should return the landed result, got ok=%v res=%+v", ok, res)
	}
	if _, _, live := r.lookup(def.Identity()); !live {
		t.Error("successful registration should stay live")
	}
}

func TestRegistryUnregisterKeepsEntryOnNativeFailure(t *testing.T) {
	r := newRegistry()
	def := Definition{Mods: ModCtrl, Key: KeyA}
	req, _ := mustClaimNew(t, r, def)
	if !r.completeRegister(req, result{ok: true}) {
		t.Fatal("register")
	}

	unregReq, _, ok := r.claimUnregister(def.Identity())
	if !ok {
		t.Fatal("claimUnregister of a live entry")
	}
	if !r.completeUnregister(unregReq, result{ok: false, code: 5}) {
		t.Fatal("completeUnregister with pending entry should be accepted")
	}

	// The OS still holds the registration, so the registry must too.
	if _, _, live := r.lookup(def.Identity()); !live {
		t.Error("failed native unregister must keep the live entry")
	}
}
