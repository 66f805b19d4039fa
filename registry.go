package sqldbpool

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/afero"
)

// connectionName builds the rdb{JJ}_{I} connection name: JJ is j
// zero-padded to width 2, I is slot in decimal with no padding.
func connectionName(j, slot int) string {
	return fmt.Sprintf("rdb%02d_%d", j, slot)
}

// decodeID decodes the database id from characters [3..5) of a connection
// name. ok is false for any name that doesn't have a two-digit numeric id
// in that position.
func decodeID(name string) (j int, ok bool) {
	if len(name) < 5 {
		return 0, false
	}
	digits := name[3:5]
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ConnectionRegistry is the driver registry collaborator: given a driver
// kind and a connection name, it
// materialises a Descriptor whose parameters can be mutated (via
// ApplySettings) before first use, then opened and closed by name any
// number of times. Descriptors are looked up by name through a
// concurrent map so the pool's hot checkout/return path — which only
// shuffles names between stacks — never takes a registry-wide lock.
type ConnectionRegistry struct {
	descriptors cmap.ConcurrentMap // name -> *Descriptor

	mu      deadlock.Mutex // guards settings application only; low frequency
	fs      afero.Fs
	factory DriverExtensionFactory
}

// NewConnectionRegistry returns an empty registry. fs is used to sanity
// check SQLite webRootPath resolution; pass nil for
// afero.NewOsFs(). factory supplies driver extensions; pass nil for
// NopExtensionFactory.
func NewConnectionRegistry(fs afero.Fs, factory DriverExtensionFactory) *ConnectionRegistry {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if factory == nil {
		factory = NopExtensionFactory{}
	}
	return &ConnectionRegistry{
		descriptors: cmap.New(),
		fs:          fs,
		factory:     factory,
	}
}

// AddDatabase materialises a new, closed Descriptor named
// rdb{JJ}_{I} for the given driver kind. It mirrors the original's
// "addDatabase": an empty driverKind or a name collision is reported as
// invalid rather than panicking, so the caller (Pool.init) can stop seeding
// slots for this id without tearing down slots already seeded.
func (r *ConnectionRegistry) AddDatabase(driverKind string, j, slot int) (*Descriptor, bool) {
	if strings.TrimSpace(driverKind) == "" {
		return nil, false
	}
	name := connectionName(j, slot)
	if r.descriptors.Has(name) {
		return nil, false
	}
	d := &Descriptor{
		name:       name,
		databaseID: j,
		driverKind: driverKind,
	}
	r.descriptors.Set(name, d)
	return d, true
}

// Lookup returns the descriptor for name, if it exists.
func (r *ConnectionRegistry) Lookup(name string) (*Descriptor, bool) {
	v, ok := r.descriptors.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Descriptor), true
}

// Remove deregisters a descriptor. It does not close it; callers are
// responsible for closing before removal if the descriptor is open.
func (r *ConnectionRegistry) Remove(name string) {
	r.descriptors.Remove(name)
}

// ApplySettings applies the settings map for id j to d, field by field,
// then attaches the driver extension for d's kind. It is called exactly
// once, at initialisation, before d's name is ever pushed onto a stack.
func (r *ConnectionRegistry) ApplySettings(d *Descriptor, settings map[string]string, webRootPath string, log Logger) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	databaseName := strings.TrimSpace(settings[SettingsDatabaseName])
	if databaseName == "" {
		log.Errorf("database name empty string for %s", d.name)
		return false
	}
	if isEmbeddedFileDriver(d.driverKind) && !strings.Contains(databaseName, ":") && !filepath.IsAbs(databaseName) {
		resolved := filepath.Join(webRootPath, databaseName)
		if dir := filepath.Dir(resolved); dir != "" {
			if exists, err := afero.DirExists(r.fs, dir); err == nil && !exists {
				log.Warnf("SQLite parent directory %q does not exist for %s", dir, d.name)
			}
		}
		databaseName = resolved
	}
	d.databaseName = databaseName

	if hostName := strings.TrimSpace(settings[SettingsHostName]); hostName != "" {
		d.hostName = hostName
	}
	if port := parsePort(settings[SettingsPort]); port > 0 {
		d.port = port
	}
	if userName := strings.TrimSpace(settings[SettingsUserName]); userName != "" {
		d.userName = userName
	}
	if password := settings[SettingsPassword]; password != "" {
		d.password = password
	}
	if connectOptions := strings.TrimSpace(settings[SettingsConnectOptions]); connectOptions != "" {
		d.connectOptions = connectOptions
	}
	d.postOpenStatements = splitPostOpenStatements(settings[SettingsPostOpenStatements])
	d.enableUpsert = parseBool(settings[SettingsEnableUpsert])
	d.extension = r.factory.Create(d.driverKind)

	return true
}
