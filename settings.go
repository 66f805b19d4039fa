package sqldbpool

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Settings keys understood by ApplySettings.
const (
	SettingsDriverType         = "DriverType"
	SettingsDatabaseName       = "DatabaseName"
	SettingsHostName           = "HostName"
	SettingsPort               = "Port"
	SettingsUserName           = "UserName"
	SettingsPassword           = "Password"
	SettingsConnectOptions     = "ConnectOptions"
	SettingsPostOpenStatements = "PostOpenStatements"
	SettingsEnableUpsert       = "EnableUpsert"
)

// SettingsProvider supplies, for each configured database id, a
// string-keyed settings map. It is read exactly once per id, at pool
// initialisation.
type SettingsProvider interface {
	// DatabaseSettings returns the settings map for id j. A missing or
	// empty map is valid: it means the id has no DriverType and the pool
	// skips seeding any slots for it.
	DatabaseSettings(j int) map[string]string
}

// MapSettingsProvider is an in-memory SettingsProvider, the simplest
// concrete implementation: a settings map keyed directly by database id.
type MapSettingsProvider struct {
	settings map[int]map[string]string
}

var _ SettingsProvider = (*MapSettingsProvider)(nil)

// NewMapSettingsProvider wraps an already-built id->settings map.
func NewMapSettingsProvider(settings map[int]map[string]string) *MapSettingsProvider {
	return &MapSettingsProvider{settings: settings}
}

func (p *MapSettingsProvider) DatabaseSettings(j int) map[string]string {
	return p.settings[j]
}

// ViperSettingsProvider reads the per-id settings arrays out of a
// github.com/spf13/viper configuration tree. It expects a top-level key
// (default "databases") holding a list of tables, one per database id, each
// table using the Settings* keys above (case-insensitive, per viper
// convention).
type ViperSettingsProvider struct {
	v   *viper.Viper
	key string
}

var _ SettingsProvider = (*ViperSettingsProvider)(nil)

// NewViperSettingsProvider returns a ViperSettingsProvider reading the list
// under key (e.g. "databases") from v.
func NewViperSettingsProvider(v *viper.Viper, key string) *ViperSettingsProvider {
	if key == "" {
		key = "databases"
	}
	return &ViperSettingsProvider{v: v, key: key}
}

func (p *ViperSettingsProvider) DatabaseSettings(j int) map[string]string {
	var tables []map[string]interface{}
	if err := p.v.UnmarshalKey(p.key, &tables); err != nil {
		return nil
	}
	if j < 0 || j >= len(tables) {
		return nil
	}
	// viper lowercases keys; map them back to the exact-case Settings* keys.
	canonical := make(map[string]string)
	for _, key := range []string{
		SettingsDriverType, SettingsDatabaseName, SettingsHostName,
		SettingsPort, SettingsUserName, SettingsPassword,
		SettingsConnectOptions, SettingsPostOpenStatements, SettingsEnableUpsert,
	} {
		canonical[strings.ToLower(key)] = key
	}
	out := make(map[string]string, len(tables[j]))
	for k, v := range tables[j] {
		if c, ok := canonical[strings.ToLower(k)]; ok {
			k = c
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// splitPostOpenStatements splits a ';'-separated statement list, discarding
// empty fragments.
func splitPostOpenStatements(raw string) []string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseBool mirrors the tolerant boolean parsing settings providers of this
// shape tend to use: only "true"/"1" (case-insensitive) are true, anything
// else — including absence — is false.
func parseBool(raw string) bool {
	raw = strings.TrimSpace(strings.ToLower(raw))
	return raw == "true" || raw == "1"
}

// parsePort parses the Port setting, returning 0 (meaning "not applied")
// when raw is empty or malformed.
func parsePort(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
