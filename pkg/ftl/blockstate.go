package ftl

import "fmt"

// BlockState is the bookkeeping state of one erase block: either Free
// (erased and not yet opened) or Live with a count of pages holding live data.
type BlockState struct {
	live uint32
	free bool
}

// Free returns the erased state.
func Free() BlockState { return BlockState{free: true} }

// Live returns the open state with n live pages.
func Live(n uint32) BlockState { return BlockState{live: n} }

// IsFree reports whether the block is erased and unopened.
func (s BlockState) IsFree() bool { return s.free }

// LiveCount returns the number of live pages. Free blocks report 0.
func (s BlockState) LiveCount() uint32 {
	if s.free {
		return 0
	}
	return s.live
}

func (s BlockState) String() string {
	if s.free {
		return "free"
	}
	return fmt.Sprintf("live(%d)", s.live)
}

// MarshalText renders the state for JSON and YAML stats output.
func (s BlockState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the form produced by MarshalText.
func (s *BlockState) UnmarshalText(text []byte) error {
	if string(text) == "free" {
		*s = Free()
		return nil
	}
	var n uint32
	if _, err := fmt.Sscanf(string(text), "live(%d)", &n); err != nil {
		return fmt.Errorf("invalid block state %q", text)
	}
	*s = Live(n)
	return nil
}

// blockTable tracks per-block state and the number of Free blocks.
type blockTable struct {
	states []BlockState
	free   int
}

func newBlockTable(n int) *blockTable {
	t := &blockTable{states: make([]BlockState, n)}
	t.Reset()
	return t
}

// Reset marks every block Free.
func (t *blockTable) Reset() {
	for i := range t.states {
		t.states[i] = Free()
	}
	t.free = len(t.states)
}

func (t *blockTable) State(block uint32) BlockState {
	return t.states[block]
}

// Open moves a Free block to Live(0).
func (t *blockTable) Open(block uint32) {
	if t.states[block].free {
		t.free--
	}
	t.states[block] = Live(0)
}

// Erase moves a block back to Free.
func (t *blockTable) Erase(block uint32) {
	if !t.states[block].free {
		t.free++
	}
	t.states[block] = Free()
}

func (t *blockTable) Increment(block uint32) {
	s := &t.states[block]
	if !s.free {
		s.live++
	}
}

func (t *blockTable) Decrement(block uint32) {
	s := &t.states[block]
	if !s.free && s.live > 0 {
		s.live--
	}
}

// FreeCount returns the number of Free blocks.
func (t *blockTable) FreeCount() int {
	return t.free
}

// Snapshot returns a copy of every block state.
func (t *blockTable) Snapshot() []BlockState {
	return append([]BlockState(nil), t.states...)
}
