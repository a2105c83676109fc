package loader

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// gatedFetcher blocks each path until its gate is released.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	text  map[string]string
}

func newGatedFetcher(text map[string]string) *gatedFetcher {
	g := &gatedFetcher{gates: make(map[string]chan struct{}), text: text}
	for p := range text {
		g.gates[p] = make(chan struct{})
	}
	return g
}

func (g *gatedFetcher) release(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[path])
}

func (g *gatedFetcher) FetchText(ctx context.Context, path string) (string, error) {
	g.mu.Lock()
	gate, ok := g.gates[path]
	g.mu.Unlock()
	if !ok {
		return "", &FetchError{Path: path, Err: ErrEmptyResponse}
	}
	select {
	case <-gate:
		return g.text[path], nil
	case <-ctx.Done():
		return "", &FetchError{Path: path, Err: ctx.Err()}
	}
}

func TestLoaderRunsJobs(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	l := NewLoader(NewFSFetcher(testFS()), WithWorkers(2))
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Submit(ctx, Job{ID: 1, Tag: "hash", Path: HashPath("fasthash")}))
	require.NoError(t, l.Submit(ctx, Job{ID: 2, Tag: "hash", Path: HashPath("missing")}))
	require.NoError(t, l.Submit(ctx, Job{ID: 1, Tag: "noise", Path: NoisePath("value_21")}))
	l.Wait()

	results := l.Drain()
	require.Len(t, results, 3)
	assert.Nil(t, l.Drain())
	assert.Equal(t, 0, l.Pending())

	sort.Slice(results, func(i, j int) bool { return results[i].Job.Path < results[j].Job.Path })
	assert.NoError(t, results[0].Err)
	assert.Contains(t, results[0].Source, "hash11")
	var fe *FetchError
	assert.ErrorAs(t, results[1].Err, &fe)
	assert.Equal(t, "noise", results[2].Job.Tag)
	assert.NoError(t, results[2].Err)
}

func TestLoaderCompletionOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	g := newGatedFetcher(map[string]string{"a": "A", "b": "B"})
	l := NewLoader(g, WithWorkers(2))
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Submit(ctx, Job{ID: 1, Path: "a"}))
	require.NoError(t, l.Submit(ctx, Job{ID: 2, Path: "b"}))
	assert.Equal(t, 2, l.Pending())

	g.release("b")
	require.Eventually(t, func() bool { return l.Pending() == 1 }, time.Second, 5*time.Millisecond)
	g.release("a")
	l.Wait()

	results := l.Drain()
	require.Len(t, results, 2)
	assert.Equal(t, uint64(2), results[0].Job.ID, "results are drained in completion order")
	assert.Equal(t, uint64(1), results[1].Job.ID)
}

func TestLoaderTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	g := newGatedFetcher(map[string]string{"slow": "S"})
	l := NewLoader(g, WithFetchTimeout(20*time.Millisecond))
	defer l.Close()

	require.NoError(t, l.Submit(context.Background(), Job{ID: 1, Path: "slow"}))
	l.Wait()

	results := l.Drain()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestLoaderClosed(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	l := NewLoader(NewFSFetcher(testFS()), WithWorkers(4))
	l.Close()
	l.Close()
	assert.ErrorIs(t, l.Submit(context.Background(), Job{Path: HashPath("fasthash")}), ErrClosed)
	assert.Equal(t, 0, l.Pending())
}

func TestLoaderCloseFinishesQueuedJobs(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	g := newGatedFetcher(map[string]string{"a": "A", "b": "B"})
	l := NewLoader(g, WithWorkers(3))
	require.NoError(t, l.Submit(context.Background(), Job{ID: 1, Path: "a"}))
	require.NoError(t, l.Submit(context.Background(), Job{ID: 2, Path: "b"}))

	closed := make(chan struct{})
	go func() {
		l.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before queued jobs completed")
	case <-time.After(20 * time.Millisecond):
	}

	g.release("a")
	g.release("b")
	<-closed
	assert.Len(t, l.Drain(), 2)
	assert.Equal(t, 0, l.Pending())
	assert.ErrorIs(t, l.Submit(context.Background(), Job{Path: "a"}), ErrClosed)
}
