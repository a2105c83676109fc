package shader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHash11 = "fn hash11(x: u32) -> u32 { return x * 747796405u; }\n"
	testHash21 = "fn hash21(p: vec2<u32>) -> u32 { return p.x ^ p.y; }\n"
	testNoise  = "fn noise(p: vec2<f32>) -> f32 { return fract(p.x); }\n"
)

func testCatalogue() fstest.MapFS {
	return fstest.MapFS{
		"hash/fasthash.wgsl":     {Data: []byte(testHash11)},
		"hash/iqint_21.wgsl":     {Data: []byte(testHash21)},
		"hash/empty.wgsl":        {Data: []byte{}},
		"hash/binary.wgsl":       {Data: []byte{0xff, 0xfe, 0x00}},
		"hash/badarity.wgsl":     {Data: []byte("//@oxy:arity 99\n" + testHash11)},
		"noise/2d/value_21.wgsl": {Data: []byte(testNoise)},
	}
}

func TestComponentStoreLoad(t *testing.T) {
	s := NewComponentStore(loader.NewFSFetcher(testCatalogue()))
	ctx := context.Background()

	require.NoError(t, s.LoadHash(ctx, "iqint_21"))
	require.NoError(t, s.LoadNoise(ctx, "value_21"))

	set := s.Snapshot()
	assert.True(t, set.Complete())
	assert.Equal(t, "iqint_21", set.Hash.Name)
	assert.Equal(t, testHash21, set.Hash.Source)
	assert.Equal(t, testNoise, set.Noise.Source)
	assert.Equal(t, HashArityTwoToOne, set.Arity)
	assert.Equal(t, uint64(2), set.Generation)
}

func TestComponentStoreFailedLoadKeepsSlots(t *testing.T) {
	s := NewComponentStore(loader.NewFSFetcher(testCatalogue()))
	ctx := context.Background()
	require.NoError(t, s.LoadHash(ctx, "fasthash"))
	require.NoError(t, s.LoadNoise(ctx, "value_21"))
	before := s.Snapshot()

	tests := []struct {
		name    string
		hash    string
		wantErr error
	}{
		{"missing", "nonexistent", nil},
		{"empty", "empty", loader.ErrEmptyResponse},
		{"not utf8", "binary", loader.ErrInvalidEncoding},
		{"bad annotation", "badarity", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.LoadHash(ctx, tt.hash)
			require.Error(t, err)

			var fe *loader.FetchError
			require.True(t, errors.As(err, &fe), "got %T", err)
			assert.Equal(t, "hash/"+tt.hash+".wgsl", fe.Path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestComponentStoreStaleCommit(t *testing.T) {
	s := NewComponentStore(loader.NewFSFetcher(testCatalogue()))

	first := s.Begin(SlotHash, "fasthash")
	second := s.Begin(SlotHash, "iqint_21")
	assert.Greater(t, second.ID, first.ID)

	// the later request completes first and wins
	require.NoError(t, s.Commit(second, testHash21))
	assert.ErrorIs(t, s.Commit(first, testHash11), ErrStaleRequest)

	f, ok := s.Fragment(SlotHash)
	require.True(t, ok)
	assert.Equal(t, "iqint_21", f.Name)
	assert.Equal(t, uint64(1), s.Generation())

	// slots are tracked independently
	n := s.Begin(SlotNoise, "value_21")
	require.NoError(t, s.Commit(n, testNoise))
	assert.Equal(t, uint64(2), s.Generation())
}

func TestComponentStoreLastIssuedWinsConcurrently(t *testing.T) {
	s := NewComponentStore(loader.NewFSFetcher(testCatalogue()))

	const n = 32
	reqs := make([]Request, n)
	for i := range reqs {
		reqs[i] = s.Begin(SlotNoise, "value_21")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Commit(reqs[i], testNoise)
		}(i)
	}
	wg.Wait()

	for i, err := range errs[:n-1] {
		assert.ErrorIs(t, err, ErrStaleRequest, "request %d", i)
	}
	assert.NoError(t, errs[n-1])
	assert.Equal(t, uint64(1), s.Generation())
}

func TestComponentStoreOptions(t *testing.T) {
	s := NewComponentStore(loader.NewFSFetcher(fstest.MapFS{
		"custom/pcg_11.wgsl": {Data: []byte(testHash11)},
	}), WithSlotPath(SlotHash, "custom"), WithFragment(SlotNoise, "value_21", testNoise))

	assert.Equal(t, "custom/pcg_11.wgsl", s.Path(SlotHash, "pcg_11"))
	assert.Equal(t, "noise/2d/value_21.wgsl", s.Path(SlotNoise, "value_21"))
	assert.Equal(t, uint64(1), s.Generation())
	assert.False(t, s.Snapshot().Complete())

	require.NoError(t, s.LoadHash(context.Background(), "pcg_11"))
	assert.True(t, s.Snapshot().Complete())
}

func TestComponentStoreEmbeddedCatalogue(t *testing.T) {
	f := loader.NewFSFetcher(shaders.FS)
	cat, err := loader.ReadCatalogue(context.Background(), f)
	require.NoError(t, err)
	require.NotEmpty(t, cat.Hashes)
	require.NotEmpty(t, cat.Noises)

	s := NewComponentStore(f)
	for _, name := range cat.Hashes {
		require.NoError(t, s.LoadHash(context.Background(), name), name)
		h, _ := s.Fragment(SlotHash)
		assert.Contains(t, h.Source, "fn "+h.Arity.Function()+"(", name)
	}
	for _, name := range cat.Noises {
		require.NoError(t, s.LoadNoise(context.Background(), name), name)
		n, _ := s.Fragment(SlotNoise)
		assert.Contains(t, n.Source, "fn noise(", name)
	}
}
