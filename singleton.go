package sqldbpool

import "sync"

// singleton is the process-wide Pool state, guarded by a one-shot
// initialiser so Instance is cheap after the first call and safe to call
// from any number of request-worker goroutines concurrently.
var singleton struct {
	once sync.Once
	mu   sync.Mutex
	pool *Pool

	appCtx   AppContext
	settings SettingsProvider
	registry *ConnectionRegistry
	log      Logger
}

// Configure supplies the dependencies the singleton's first Instance call
// will construct the Pool from. It must be called before the first
// Instance call; calling it afterward has no effect on the already-built
// singleton. Embedding applications typically call this once during
// startup, before any request worker can reach Instance.
func Configure(appCtx AppContext, settings SettingsProvider, registry *ConnectionRegistry, log Logger) {
	singleton.mu.Lock()
	defer singleton.mu.Unlock()
	singleton.appCtx = appCtx
	singleton.settings = settings
	singleton.registry = registry
	singleton.log = log
}

// Instance returns the process-wide Pool, lazily constructing it (and
// seeding its stacks) on first call. Thread-safe.
func Instance() *Pool {
	singleton.once.Do(func() {
		singleton.mu.Lock()
		appCtx, settings, registry, log := singleton.appCtx, singleton.settings, singleton.registry, singleton.log
		singleton.mu.Unlock()
		singleton.pool = New(appCtx, settings, registry, log)
	})
	return singleton.pool
}

// resetSingletonForTest tears down and discards the process-wide Pool so
// tests can exercise Configure/Instance repeatedly in isolation. It is
// only ever called from this package's own tests.
func resetSingletonForTest() {
	singleton.mu.Lock()
	defer singleton.mu.Unlock()
	if singleton.pool != nil {
		singleton.pool.Shutdown()
	}
	singleton.pool = nil
	singleton.once = sync.Once{}
}
