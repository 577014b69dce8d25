package core

import "testing"

func TestStateStoreSnapshotIsCopy(t *testing.T) {
	s := NewStateStore()
	s.Apply(func(st *DeviceState) { st.Power = true })

	snap := s.Snapshot()
	snap.Power = false // mutating the copy must not touch the store

	if got := s.Snapshot(); !got.Power {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestStateStoreDirtyFlag(t *testing.T) {
	s := NewStateStore()

	if s.TakeDirty() {
		t.Error("new store reports dirty")
	}

	s.Apply(func(st *DeviceState) { st.Marker = true })

	if !s.TakeDirty() {
		t.Error("TakeDirty() = false after Apply")
	}
	// Read-and-clear: a second take without mutation is false.
	if s.TakeDirty() {
		t.Error("TakeDirty() = true on second call without mutation")
	}
}

func TestStateStoreApplySeesCurrentState(t *testing.T) {
	s := NewStateStore()
	s.Apply(func(st *DeviceState) { st.BlueOnly = true })
	s.Apply(func(st *DeviceState) {
		if !st.BlueOnly {
			t.Error("Apply callback did not observe earlier mutation")
		}
		st.Comb = true
	})

	snap := s.Snapshot()
	if !snap.BlueOnly || !snap.Comb {
		t.Errorf("snapshot = %+v, want BlueOnly and Comb set", snap)
	}
}
