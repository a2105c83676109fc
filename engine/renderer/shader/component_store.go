package shader

import (
	"context"
	"errors"
	"path"
	"sync"

	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"go.uber.org/zap"
)

type componentStore struct {
	mu     *sync.RWMutex
	logger *zap.Logger

	fetcher loader.Fetcher
	dirs    map[Slot]string

	fragments  map[Slot]Fragment
	issued     map[Slot]uint64
	generation uint64
}

// ComponentStore holds the active hash and noise fragments. Slots are replaced only by
// successful loads; readers always see whole fragments through Snapshot.
//
// Loads can be split into Begin and Commit so the fetch itself runs elsewhere. Every Begin
// issues a new request id for its slot and only the latest issued request may commit, so
// overlapping loads for one slot resolve to the one issued last regardless of completion order.
type ComponentStore interface {
	// LoadHash fetches and installs a hash fragment.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - name: the fragment name, without extension
	//
	// Returns:
	//   - error: a *loader.FetchError on failure, or ErrStaleRequest if a newer load was issued meanwhile
	LoadHash(ctx context.Context, name string) error

	// LoadNoise fetches and installs a noise fragment.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - name: the fragment name, without extension
	//
	// Returns:
	//   - error: a *loader.FetchError on failure, or ErrStaleRequest if a newer load was issued meanwhile
	LoadNoise(ctx context.Context, name string) error

	// Load fetches and installs a fragment into slot.
	Load(ctx context.Context, slot Slot, name string) error

	// Begin issues a new request for slot, superseding all earlier ones.
	//
	// Parameters:
	//   - slot: the slot to load into
	//   - name: the fragment name
	//
	// Returns:
	//   - Request: the request to pass to Commit
	Begin(slot Slot, name string) Request

	// Fetch retrieves the source for req without touching the store.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - req: a request returned by Begin
	//
	// Returns:
	//   - string: the fetched source
	//   - error: a *loader.FetchError on failure
	Fetch(ctx context.Context, req Request) (string, error)

	// Commit installs source for req if req is still the latest request for its slot.
	// The store is left untouched on any error.
	//
	// Parameters:
	//   - req: a request returned by Begin
	//   - source: the fetched WGSL source
	//
	// Returns:
	//   - error: ErrStaleRequest if superseded, or a *loader.FetchError if the source is unusable
	Commit(req Request, source string) error

	// Path returns the catalogue path a fragment is fetched from.
	Path(slot Slot, name string) string

	// Snapshot returns both slots as one consistent set.
	Snapshot() ComponentSet

	// Fragment returns the fragment in slot, and false if the slot is empty.
	Fragment(slot Slot) (Fragment, bool)

	// Generation returns the number of successful commits.
	Generation() uint64

	// Fetcher returns the fetcher used by Load.
	Fetcher() loader.Fetcher
}

var _ ComponentStore = &componentStore{}

// NewComponentStore creates an empty store fetching through fetcher.
//
// Parameters:
//   - fetcher: the source of fragment text
//   - options: functional options applied to the store
//
// Returns:
//   - ComponentStore: the store
func NewComponentStore(fetcher loader.Fetcher, options ...ComponentStoreBuilderOption) ComponentStore {
	s := &componentStore{
		mu:      &sync.RWMutex{},
		logger:  zap.NewNop(),
		fetcher: fetcher,
		dirs: map[Slot]string{
			SlotHash:  loader.HashDir,
			SlotNoise: loader.NoiseDir,
		},
		fragments: make(map[Slot]Fragment),
		issued:    make(map[Slot]uint64),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *componentStore) LoadHash(ctx context.Context, name string) error {
	return s.Load(ctx, SlotHash, name)
}

func (s *componentStore) LoadNoise(ctx context.Context, name string) error {
	return s.Load(ctx, SlotNoise, name)
}

func (s *componentStore) Load(ctx context.Context, slot Slot, name string) error {
	req := s.Begin(slot, name)
	source, err := s.Fetch(ctx, req)
	if err != nil {
		return err
	}
	return s.Commit(req, source)
}

func (s *componentStore) Fetch(ctx context.Context, req Request) (string, error) {
	p := s.Path(req.Slot, req.Name)
	source, err := s.fetcher.FetchText(ctx, p)
	if err != nil {
		s.logger.Warn("fragment fetch failed", zap.Stringer("slot", req.Slot), zap.String("name", req.Name), zap.Error(err))
		return "", asFetchError(p, err)
	}
	return source, nil
}

func (s *componentStore) Begin(slot Slot, name string) Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[slot]++
	return Request{Slot: slot, Name: name, ID: s.issued[slot]}
}

func (s *componentStore) Commit(req Request, source string) error {
	p := s.Path(req.Slot, req.Name)
	if _, err := loader.CheckText(p, []byte(source)); err != nil {
		return err
	}
	f, err := newFragment(req.Slot, req.Name, source)
	if err != nil {
		return &loader.FetchError{Path: p, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID != s.issued[req.Slot] {
		s.logger.Debug("dropping stale fragment", zap.Stringer("slot", req.Slot), zap.String("name", req.Name),
			zap.Uint64("id", req.ID), zap.Uint64("latest", s.issued[req.Slot]))
		return ErrStaleRequest
	}
	s.fragments[req.Slot] = f
	s.generation++
	s.logger.Info("fragment installed", zap.Stringer("slot", req.Slot), zap.String("name", req.Name),
		zap.Stringer("arity", f.Arity), zap.Uint64("generation", s.generation))
	return nil
}

func (s *componentStore) Path(slot Slot, name string) string {
	return path.Join(s.dirs[slot], name+loader.FragmentExt)
}

func (s *componentStore) Snapshot() ComponentSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.fragments[SlotHash]
	return ComponentSet{
		Hash:       h,
		Noise:      s.fragments[SlotNoise],
		Arity:      h.Arity,
		Generation: s.generation,
	}
}

func (s *componentStore) Fragment(slot Slot) (Fragment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fragments[slot]
	return f, ok
}

func (s *componentStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *componentStore) Fetcher() loader.Fetcher {
	return s.fetcher
}

func asFetchError(p string, err error) error {
	var fe *loader.FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &loader.FetchError{Path: p, Err: err}
}
