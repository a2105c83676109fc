package shader

import (
	"go.uber.org/zap"
)

// ComponentStoreBuilderOption is a functional option applied to the store by NewComponentStore.
type ComponentStoreBuilderOption func(*componentStore)

// WithLogger sets the logger used for load diagnostics.
//
// Parameters:
//   - logger: the logger to use; nil keeps the no-op default
//
// Returns:
//   - ComponentStoreBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) ComponentStoreBuilderOption {
	return func(s *componentStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSlotPath overrides the catalogue directory fragments for slot are fetched from.
//
// Parameters:
//   - slot: the slot to configure
//   - dir: slash-separated directory relative to the catalogue root
//
// Returns:
//   - ComponentStoreBuilderOption: option function to apply
func WithSlotPath(slot Slot, dir string) ComponentStoreBuilderOption {
	return func(s *componentStore) {
		s.dirs[slot] = dir
	}
}

// WithFragment seeds a slot without fetching. Malformed arity annotations are ignored and
// the fragment falls back to its name-derived arity.
//
// Parameters:
//   - slot: the slot to fill
//   - name: the fragment name
//   - source: the WGSL source
//
// Returns:
//   - ComponentStoreBuilderOption: option function to apply
func WithFragment(slot Slot, name, source string) ComponentStoreBuilderOption {
	return func(s *componentStore) {
		f, err := newFragment(slot, name, source)
		if err != nil {
			f, _ = newFragment(slot, name, "")
			f.Source = source
		}
		s.fragments[slot] = f
		s.generation++
	}
}
