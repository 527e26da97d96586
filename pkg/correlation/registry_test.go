package correlation

import (
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func noopResolve(any)    {}
func noopReject(error)   {}

var hexID = regexp.MustCompile(`^[0-9a-f]+$`)

func TestRegisterReturnsOpaqueHexIdentifier(t *testing.T) {
	r := New()
	id := r.Register(noopResolve, noopReject)
	require.NotEmpty(t, id)
	require.Regexp(t, hexID, id)
	require.Len(t, id, idBytes*2)
}

func TestRegisterIdentifiersPairwiseDistinct(t *testing.T) {
	r := New()
	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := r.Register(noopResolve, noopReject)
		_, dup := seen[id]
		require.False(t, dup, "duplicate identifier %s", id)
		seen[id] = struct{}{}
	}
	require.Equal(t, n, r.Len())
}

func TestConsumeReturnsSamePairByIdentity(t *testing.T) {
	r := New()

	var resolvedWith any
	var rejectedWith error
	resolve := func(v any) { resolvedWith = v }
	reject := func(err error) { rejectedWith = err }

	id := r.Register(resolve, reject)
	p, ok := r.Consume(id)
	require.True(t, ok)

	p.Resolve("result")
	require.Equal(t, "result", resolvedWith)
	p.Reject(errors.New("late failure"))
	require.EqualError(t, rejectedWith, "late failure")
}

func TestConsumeTwiceIsAbsent(t *testing.T) {
	r := New()
	id := r.Register(noopResolve, noopReject)

	_, ok := r.Consume(id)
	require.True(t, ok)
	_, ok = r.Consume(id)
	require.False(t, ok)
}

func TestConsumeNeverIssuedIsAbsent(t *testing.T) {
	r := New()
	_, ok := r.Consume("deadbeefdeadbeefdeadbeefdeadbeef")
	require.False(t, ok)
	_, ok = r.Consume("")
	require.False(t, ok)
}

func TestTwoEntryInterleaving(t *testing.T) {
	r := New()

	var got1, got2 any
	id1 := r.Register(func(v any) { got1 = v }, noopReject)
	id2 := r.Register(func(v any) { got2 = v }, noopReject)
	require.NotEqual(t, id1, id2)

	p1, ok := r.Consume(id1)
	require.True(t, ok)
	p1.Resolve("first")
	require.Equal(t, "first", got1)

	_, ok = r.Consume(id1)
	require.False(t, ok)

	p2, ok := r.Consume(id2)
	require.True(t, ok)
	p2.Resolve("second")
	require.Equal(t, "second", got2)
	require.Zero(t, r.Len())
}

func TestRegisterRejectsNilContinuations(t *testing.T) {
	r := New()
	require.Panics(t, func() { r.Register(nil, noopReject) })
	require.Panics(t, func() { r.Register(noopResolve, nil) })
}

func TestConcurrentConsumeHasExactlyOneWinner(t *testing.T) {
	r := New()
	const consumers = 64

	for round := 0; round < 50; round++ {
		id := r.Register(noopResolve, noopReject)

		var winners int64
		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(consumers)
		for i := 0; i < consumers; i++ {
			go func() {
				defer wg.Done()
				<-start
				if _, ok := r.Consume(id); ok {
					atomic.AddInt64(&winners, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 1, winners)
		require.Zero(t, r.Len())
	}
}

func TestConcurrentRegisterLosesNothing(t *testing.T) {
	r := New()
	const (
		workers = 16
		perGo   = 100
	)

	ids := make(chan string, workers*perGo)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGo; j++ {
				ids <- r.Register(noopResolve, noopReject)
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
	require.Equal(t, workers*perGo, r.Len())
}
