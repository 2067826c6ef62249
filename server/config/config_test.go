package config

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	man := NewManager(&cobra.Command{})
	conf := man.LoadConfig()

	assert.Equal(t, "localhost:3306", conf.Mysql.Address)
	assert.Equal(t, "0.0.0.0:8080", conf.Server.Address)
	assert.Equal(t, "mysql", conf.Server.Datastore)
	assert.Equal(t, 16, conf.Osquery.NodeKeySize)
	assert.Equal(t, 12, conf.Osquery.EnrollRequestsPerMinute)
	assert.Empty(t, conf.Osquery.EnrollSecret)
	assert.False(t, conf.Logging.Debug)
}

func TestConfigFromEnv(t *testing.T) {
	os.Setenv("MANGO_OSQUERY_ENROLL_SECRET", "swordfish")
	os.Setenv("MANGO_SERVER_DATASTORE", "inmem")
	os.Setenv("MANGO_LOGGING_JSON", "true")
	defer func() {
		os.Unsetenv("MANGO_OSQUERY_ENROLL_SECRET")
		os.Unsetenv("MANGO_SERVER_DATASTORE")
		os.Unsetenv("MANGO_LOGGING_JSON")
	}()

	man := NewManager(&cobra.Command{})
	conf := man.LoadConfig()

	assert.Equal(t, "swordfish", conf.Osquery.EnrollSecret)
	assert.Equal(t, "inmem", conf.Server.Datastore)
	assert.True(t, conf.Logging.JSON)
}

func TestConfigFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	man := NewManager(cmd)

	require.NoError(t, cmd.PersistentFlags().Set("osquery_enroll_secret", "flagged"))
	require.NoError(t, cmd.PersistentFlags().Set("mysql_address", "db:3306"))

	conf := man.LoadConfig()
	assert.Equal(t, "flagged", conf.Osquery.EnrollSecret)
	assert.Equal(t, "db:3306", conf.Mysql.Address)
}

func TestEnvNameFromConfigKey(t *testing.T) {
	assert.Equal(t, "MANGO_MYSQL_ADDRESS", envNameFromConfigKey("mysql.address"))
}

func TestFlagNameFromConfigKey(t *testing.T) {
	assert.Equal(t, "osquery_enroll_secret", flagNameFromConfigKey("osquery.enroll_secret"))
}
