package sqldbpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// nowUnix returns the current wall-clock second. Overridden in tests so the
// reaper's idle threshold can be exercised without sleeping.
var nowUnix = func() int64 { return time.Now().Unix() }

// Pool is a process-wide SQL connection pool: for each configured database
// id j it holds two LIFO stacks of connection names (available — closed,
// cached — open and idle) and seeds, checks out, and reaps them according
// to a fixed per-id state machine.
//
// A Pool is safe for concurrent use by multiple goroutines. It holds no
// per-checkout mutex; the hot paths (Database, Return) move names between
// the lock-free name stacks and look descriptors up through the
// registry's concurrent map, taking no pool-wide lock.
type Pool struct {
	appCtx   AppContext
	settings SettingsProvider
	registry *ConnectionRegistry
	log      Logger

	n int // maxConnects = MaxThreadsPerServer, slots per id
	d int // databaseSettingsCount

	available  []nameStack
	cached     []nameStack
	lastCached []atomic.Int64

	hist *history

	reaperStop chan struct{}
	reaperDone chan struct{}

	closeOnce sync.Once
}

// New constructs a Pool and seeds its stacks. It does not start the reaper
// when SQL is unavailable or no id produced any slots; the reaper only
// runs once at least one id has seeded at least one slot.
func New(appCtx AppContext, settings SettingsProvider, registry *ConnectionRegistry, log Logger) *Pool {
	if log == nil {
		log = NewStdLogger()
	}
	p := &Pool{
		appCtx:   appCtx,
		settings: settings,
		registry: registry,
		log:      log,
		hist:     newHistory(defaultHistorySize),
	}
	p.init()
	return p
}

func (p *Pool) init() {
	if !p.appCtx.IsSQLDatabaseAvailable() {
		p.log.Debugf("SQL database not available")
		return
	}

	p.n = p.appCtx.MaxThreadsPerServer()
	p.d = p.appCtx.DatabaseSettingsCount()
	p.available = make([]nameStack, p.d)
	p.cached = make([]nameStack, p.d)
	p.lastCached = make([]atomic.Int64, p.d)

	anySeeded := false
	webRoot := p.appCtx.WebRootPath()

	for j := 0; j < p.d; j++ {
		settings := p.settings.DatabaseSettings(j)
		driverKind := settings[SettingsDriverType]
		if driverKind == "" {
			p.log.Warnf("empty parameter: DriverType databaseId:%d", j)
			continue
		}

		for i := 0; i < p.n; i++ {
			d, ok := p.registry.AddDatabase(driverKind, j, i)
			if !ok {
				p.log.Warnf("parameter 'DriverType' is invalid, databaseId:%d", j)
				break
			}
			if !p.registry.ApplySettings(d, settings, webRoot, p.log) {
				p.registry.Remove(d.Name())
				break
			}
			p.available[j].push(d.Name())
			anySeeded = true
		}
	}

	if anySeeded {
		p.startReaper(10 * time.Second)
	}
}

// Database checks a connection out of the pool for id j. It returns a
// usable handle, an invalid handle when SQL is unconfigured or the slow
// path's physical open failed, or ErrNoPooledConnection when id j is
// saturated.
func (p *Pool) Database(ctx context.Context, j int) (Handle, error) {
	if !p.appCtx.IsSQLDatabaseAvailable() {
		return Handle{}, nil
	}
	if j < 0 || j >= p.d {
		return Handle{}, ErrInvalidDatabaseID
	}

	cache := &p.cached[j]
	avail := &p.available[j]

	for {
		if name, ok := cache.pop(); ok {
			d, found := p.registry.Lookup(name)
			if !found {
				continue
			}
			if d.IsOpen() {
				return Handle{name: name, db: d.DB(), valid: true}, nil
			}
			p.log.Errorf("pooled database is not open: %s", name)
			avail.push(name)
			continue
		}

		if name, ok := avail.pop(); ok {
			d, found := p.registry.Lookup(name)
			if !found {
				continue
			}
			if d.IsOpen() {
				p.log.Warnf("gets an opened database: %s", name)
				return Handle{name: name, db: d.DB(), valid: true}, nil
			}
			if err := d.open(ctx, p.log); err != nil {
				p.log.Errorf("SQL database open error: %s: %v", name, err)
				avail.push(name)
				return Handle{}, nil
			}
			p.log.Debugf("gets database: %s (env:%s)", name, p.appCtx.DatabaseEnvironment())
			return Handle{name: name, db: d.DB(), valid: true}, nil
		}

		return Handle{}, ErrNoPooledConnection
	}
}

// Return surrenders h back to the pool (or closes it, when forceClose is
// set) and invalidates the caller's reference.
func (p *Pool) Return(h *Handle, forceClose bool) {
	if h == nil || !h.valid {
		return
	}

	j, ok := decodeID(h.name)
	if !ok || j < 0 || j >= p.d {
		p.log.Errorf("pooled invalid database [%s]", h.name)
		*h = Handle{}
		return
	}

	if forceClose {
		p.log.Warnf("force close database: %s", h.name)
		p.closeAndRelease(j, h.name, true)
	} else {
		p.cached[j].push(h.name)
		p.lastCached[j].Store(nowUnix())
		p.log.Debugf("pooled database: %s", h.name)
	}

	*h = Handle{}
}

// closeAndRelease physically closes the named descriptor and pushes its
// name onto available[j], recording the eviction in Stats()'s history.
func (p *Pool) closeAndRelease(j int, name string, forced bool) {
	d, found := p.registry.Lookup(name)
	if !found {
		return
	}
	if err := d.close(); err != nil {
		p.log.Errorf("error closing %s: %v", name, err)
	}
	p.available[j].push(name)
	p.hist.record(Eviction{Name: name, DatabaseID: j, ClosedAt: time.Now(), ForceClosed: forced})
}

// Stats returns a point-in-time occupancy snapshot for id j, plus the
// pool-wide recent-eviction history. Counts are advisory diagnostics;
// correctness depends only on stack membership, not on these counts.
func (p *Pool) Stats(j int) Stats {
	if j < 0 || j >= p.d {
		return Stats{DatabaseID: j, Evictions: p.hist.recent()}
	}
	avail := p.available[j].len()
	cachedN := p.cached[j].len()
	return Stats{
		DatabaseID: j,
		Available:  avail,
		Cached:     cachedN,
		InUse:      p.n - avail - cachedN,
		Evictions:  p.hist.recent(),
	}
}

// Shutdown stops the reaper and drains every id's stacks, closing cached
// descriptors and deregistering both stacks' names from the registry. It
// is idempotent.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.stopReaper()
		for j := 0; j < p.d; j++ {
			for {
				name, ok := p.cached[j].pop()
				if !ok {
					break
				}
				if d, found := p.registry.Lookup(name); found {
					if err := d.close(); err != nil {
						p.log.Errorf("error closing %s during shutdown: %v", name, err)
					}
				}
				p.registry.Remove(name)
			}
			for {
				name, ok := p.available[j].pop()
				if !ok {
					break
				}
				p.registry.Remove(name)
			}
		}
	})
}
