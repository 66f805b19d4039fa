package sqldbpool

// AppContext is the application context the pool reads at initialisation.
// It is the pool's only window onto the surrounding server: the number of
// worker threads it must size each per-id slot pool to, how many database
// ids are configured, which environment ("dev", "test", "production", ...)
// to log against, and the web root used to resolve relative SQLite paths.
type AppContext interface {
	// MaxThreadsPerServer bounds the number of concurrent request workers;
	// the pool pre-creates exactly this many slots per configured id.
	MaxThreadsPerServer() int

	// DatabaseSettingsCount is D, the number of configured database ids.
	DatabaseSettingsCount() int

	// DatabaseEnvironment names the settings environment in effect
	// ("dev", "test", "production", ...), used only for diagnostics.
	DatabaseEnvironment() string

	// WebRootPath is prepended to a relative SQLite database file name.
	WebRootPath() string

	// IsSQLDatabaseAvailable reports whether SQL is configured for the
	// process at all. When false, Pool.Database always returns an invalid
	// Handle and never raises ErrNoPooledConnection.
	IsSQLDatabaseAvailable() bool
}

// StaticAppContext is a plain-data AppContext, sufficient for embedding the
// pool in a server whose configuration is already resolved, and for tests.
type StaticAppContext struct {
	MaxThreads    int
	SettingsCount int
	Environment   string
	WebRoot       string
	SQLAvailable  bool
}

var _ AppContext = (*StaticAppContext)(nil)

func (c *StaticAppContext) MaxThreadsPerServer() int     { return c.MaxThreads }
func (c *StaticAppContext) DatabaseSettingsCount() int   { return c.SettingsCount }
func (c *StaticAppContext) DatabaseEnvironment() string  { return c.Environment }
func (c *StaticAppContext) WebRootPath() string          { return c.WebRoot }
func (c *StaticAppContext) IsSQLDatabaseAvailable() bool { return c.SQLAvailable }
