package sqldbpool

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSettingsProvider(t *testing.T) {
	p := NewMapSettingsProvider(map[int]map[string]string{
		0: {SettingsDriverType: "mysql", SettingsDatabaseName: "app"},
	})
	assert.Equal(t, "mysql", p.DatabaseSettings(0)[SettingsDriverType])
	assert.Nil(t, p.DatabaseSettings(1))
}

func TestViperSettingsProvider(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
databases:
  - DriverType: mysql
    DatabaseName: app0
    Port: 3306
  - DriverType: postgres
    DatabaseName: app1
`)))

	p := NewViperSettingsProvider(v, "")
	s0 := p.DatabaseSettings(0)
	assert.Equal(t, "mysql", s0[SettingsDriverType])
	assert.Equal(t, "app0", s0[SettingsDatabaseName])
	assert.Equal(t, "3306", s0[SettingsPort])

	s1 := p.DatabaseSettings(1)
	assert.Equal(t, "postgres", s1[SettingsDriverType])

	assert.Nil(t, p.DatabaseSettings(2))
}

func TestSplitPostOpenStatements(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPostOpenStatements("a; ;b;"))
	assert.Empty(t, splitPostOpenStatements(""))
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("TRUE"))
	assert.True(t, parseBool("1"))
	assert.False(t, parseBool("false"))
	assert.False(t, parseBool(""))
}

func TestParsePort(t *testing.T) {
	assert.Equal(t, 5432, parsePort("5432"))
	assert.Equal(t, 0, parsePort(""))
	assert.Equal(t, 0, parsePort("not-a-number"))
}
