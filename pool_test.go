package sqldbpool

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	registerTestDriver()
	goleak.VerifyTestMain(m)
}

func newTestPool(t *testing.T, d, n int, dsnByID map[int]string) *Pool {
	t.Helper()

	settings := make(map[int]map[string]string, d)
	for j := 0; j < d; j++ {
		dsn := dsnByID[j]
		if dsn == "" {
			dsn = fmt.Sprintf("db%d", j)
		}
		settings[j] = map[string]string{
			SettingsDriverType:   testDriverKind,
			SettingsDatabaseName: dsn,
		}
	}

	appCtx := &StaticAppContext{
		MaxThreads:    n,
		SettingsCount: d,
		Environment:   "test",
		SQLAvailable:  true,
	}
	registry := NewConnectionRegistry(afero.NewMemMapFs(), nil)
	p := New(appCtx, NewMapSettingsProvider(settings), registry, NewNopLogger())
	t.Cleanup(p.Shutdown)
	return p
}

// Warm reuse: a returned connection is handed straight back out without
// a second physical open.
func TestWarmReuse(t *testing.T) {
	p := newTestPool(t, 1, 2, nil)
	ctx := context.Background()

	before := testDriverInstance.opens.Load()

	h1, err := p.Database(ctx, 0)
	require.NoError(t, err)
	require.True(t, h1.Valid())

	p.Return(&h1, false)
	assert.False(t, h1.Valid())

	h2, err := p.Database(ctx, 0)
	require.NoError(t, err)
	require.True(t, h2.Valid())

	after := testDriverInstance.opens.Load()
	assert.Equal(t, before+1, after, "only the first checkout should have physically opened a connection")

	p.Return(&h2, false)
}

// Saturation: the (N+1)-th checkout raises ErrNoPooledConnection, and
// returning one slot unblocks the next checkout with the just-returned
// name.
func TestSaturationAndRecovery(t *testing.T) {
	p := newTestPool(t, 1, 2, nil)
	ctx := context.Background()

	a, err := p.Database(ctx, 0)
	require.NoError(t, err)
	b, err := p.Database(ctx, 0)
	require.NoError(t, err)

	_, err = p.Database(ctx, 0)
	assert.ErrorIs(t, err, ErrNoPooledConnection)

	aName := a.Name()
	p.Return(&a, false)

	c, err := p.Database(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, aName, c.Name())

	p.Return(&b, false)
	p.Return(&c, false)
}

// Force-close returns the name to available, not cached, and leaves the
// descriptor physically closed.
func TestForceCloseReturnsToAvailable(t *testing.T) {
	p := newTestPool(t, 1, 1, nil)
	ctx := context.Background()

	a, err := p.Database(ctx, 0)
	require.NoError(t, err)
	name := a.Name()

	p.Return(&a, true)

	assert.Equal(t, 0, p.cached[0].len())
	assert.Equal(t, 1, p.available[0].len())

	d, found := p.registry.Lookup(name)
	require.True(t, found)
	assert.False(t, d.IsOpen())
}

// Reaper eviction: after the idle threshold, a tick moves the cached name
// back to available and physically closes it.
func TestReaperEvictsAfterIdleThreshold(t *testing.T) {
	p := newTestPool(t, 1, 1, nil)
	ctx := context.Background()

	originalNow := nowUnix
	fakeNow := time.Now().Unix()
	nowUnix = func() int64 { return fakeNow }
	defer func() { nowUnix = originalNow }()

	h, err := p.Database(ctx, 0)
	require.NoError(t, err)
	name := h.Name()
	p.Return(&h, false)

	assert.Equal(t, 1, p.cached[0].len())

	fakeNow += idleThresholdSeconds + 1
	p.reapTick()

	assert.Equal(t, 0, p.cached[0].len())
	assert.Equal(t, 1, p.available[0].len())

	d, found := p.registry.Lookup(name)
	require.True(t, found)
	assert.False(t, d.IsOpen())
}

// Multi-id isolation: concurrent checkouts on distinct ids never draw
// from each other's stacks.
func TestMultiIDIsolation(t *testing.T) {
	p := newTestPool(t, 2, 1, nil)
	ctx := context.Background()

	a, err := p.Database(ctx, 0)
	require.NoError(t, err)
	b, err := p.Database(ctx, 1)
	require.NoError(t, err)

	p.Return(&a, false)

	// id 1's checkout must not be satisfiable from id 0's cached stack.
	_, err = p.Database(ctx, 1)
	assert.ErrorIs(t, err, ErrNoPooledConnection)

	p.Return(&b, false)
}

// A handle with a malformed connection name is logged and dropped
// without mutating any stack.
func TestReturnWithBadNameIsDropped(t *testing.T) {
	p := newTestPool(t, 1, 1, nil)

	bogus := Handle{name: "xyz99_0", valid: true}
	p.Return(&bogus, false)

	assert.False(t, bogus.Valid())
	assert.Equal(t, 0, p.cached[0].len())
	assert.Equal(t, 1, p.available[0].len())
}

// An open failure on the slow path restores the name to available and
// returns an invalid handle rather than raising.
func TestSlowPathOpenFailureRestoresAvailable(t *testing.T) {
	p := newTestPool(t, 1, 1, map[int]string{0: "faildsn"})
	ctx := context.Background()

	h, err := p.Database(ctx, 0)
	require.NoError(t, err)
	assert.False(t, h.Valid())
	assert.Equal(t, 1, p.available[0].len())

	// A later checkout may retry and succeed once the DSN is healthy.
	d, found := p.registry.Lookup(connectionName(0, 0))
	require.True(t, found)
	d.databaseName = "recovered"

	h2, err := p.Database(ctx, 0)
	require.NoError(t, err)
	assert.True(t, h2.Valid())
	p.Return(&h2, false)
}

// Checkout against SQL-not-configured degrades to an invalid handle,
// never an error.
func TestNotConfiguredDegradesToInvalidHandle(t *testing.T) {
	appCtx := &StaticAppContext{SQLAvailable: false}
	registry := NewConnectionRegistry(afero.NewMemMapFs(), nil)
	p := New(appCtx, NewMapSettingsProvider(nil), registry, NewNopLogger())
	defer p.Shutdown()

	h, err := p.Database(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, h.Valid())
}

// Out-of-range ids are rejected as a precondition violation distinct from
// saturation.
func TestOutOfRangeDatabaseID(t *testing.T) {
	p := newTestPool(t, 1, 1, nil)
	_, err := p.Database(context.Background(), 5)
	assert.ErrorIs(t, err, ErrInvalidDatabaseID)
}

// Repeated returns of an already-invalid handle are a no-op.
func TestDoubleReturnOfInvalidHandleIsNoop(t *testing.T) {
	p := newTestPool(t, 1, 1, nil)
	var h Handle
	p.Return(&h, false)
	p.Return(&h, true)
	assert.Equal(t, 1, p.available[0].len())
}

// Concurrency: many workers checking out and returning promptly leave all
// N slots in available+cached at quiescence (the available+cached+in_use=N
// invariant with nothing in use).
func TestConcurrentCheckoutReturnConservesSlotCount(t *testing.T) {
	const d, n, workers, roundsPer = 1, 4, 20, 25
	p := newTestPool(t, d, n, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < roundsPer; r++ {
				h, err := p.Database(ctx, 0)
				if err != nil {
					// Saturation under N-bounded concurrency is possible
					// only if more than N workers are in flight at once;
					// with workers > n this can legitimately happen, so
					// just retry.
					continue
				}
				p.Return(&h, false)
			}
		}()
	}
	wg.Wait()

	stats := p.Stats(0)
	assert.Equal(t, n, stats.Available+stats.Cached)
}
