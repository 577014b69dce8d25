package core

import "sync"

// DeviceState is the canonical snapshot of the monitor's feature flags plus
// link metadata. Readers always receive a copy taken under the store's lock;
// there is no partial-update visibility.
type DeviceState struct {
	// Monitor feature flags, decoded from status words 1, 3 and 4.
	Power       bool `json:"power"`
	Underscan   bool `json:"underscan"`
	HDelay      bool `json:"h_delay"`
	VDelay      bool `json:"v_delay"`
	Monochrome  bool `json:"monochrome"`
	CharMute    bool `json:"char_mute"`
	Marker      bool `json:"marker"`
	ExtSync     bool `json:"ext_sync"`
	Aperture    bool `json:"aperture"`
	ChromaUp    bool `json:"chroma_up"`
	Aspect      bool `json:"aspect"`
	ColorTemp   bool `json:"color_temp"`
	Comb        bool `json:"comb"`
	BlueOnly    bool `json:"blue_only"`
	RCutoff     bool `json:"r_cutoff"`
	GCutoff     bool `json:"g_cutoff"`
	BCutoff     bool `json:"b_cutoff"`
	ManPhase    bool `json:"man_phase"`
	ManChroma   bool `json:"man_chroma"`
	ManBright   bool `json:"man_bright"`
	ManContrast bool `json:"man_contrast"`

	// Link metadata, maintained by the device link.
	LinkUp    bool `json:"link_up"`   // physical network layer reports up
	Connected bool `json:"connected"` // TCP/serial session to the monitor established
	Valid     bool `json:"valid"`     // at least one status decode succeeded
}

// StateStore owns the canonical DeviceState and its dirty flag.
//
// The lock covers only the in-memory copy and the flag. Callers never hold it
// across I/O: Snapshot copies out, Apply runs the mutation inline, TakeDirty
// is a single read-and-clear.
//
// Thread Safety: all methods are safe for concurrent use.
type StateStore struct {
	mu    sync.Mutex
	state DeviceState
	dirty bool
}

// NewStateStore returns a store with the zero state (all flags false,
// snapshot not yet valid).
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Snapshot returns a copy of the current state taken atomically.
func (s *StateStore) Snapshot() DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply runs fn against the state under the lock and marks the store dirty.
// The caller is expected to have decided the mutation is a real change (the
// device link diffs decoded status words before calling); Apply itself does
// not compare.
func (s *StateStore) Apply(fn func(*DeviceState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.dirty = true
}

// TakeDirty atomically reads and clears the dirty flag. The dispatcher calls
// this once per notification cycle.
func (s *StateStore) TakeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}
