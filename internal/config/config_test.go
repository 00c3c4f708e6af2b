package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for name := range flagKeys {
		flags.String(name, "", "")
	}
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	configuration, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:7702", configuration.RPC.URL)
	assert.Equal(t, "123", configuration.RPC.Passphrase)
	assert.Equal(t, 30*time.Second, configuration.RPC.Timeout)
	assert.Equal(t, blockchain.StrictTransferPolicy, configuration.RPC.TransferPolicy)
	assert.Equal(t, storage.SqliteDriver, configuration.DB.Driver)
	assert.Equal(t, "imitator.db", configuration.DB.DSN)

	s := configuration.Scheduler
	assert.Equal(t, 2*time.Second, s.Tick)
	assert.Equal(t, time.Second, s.CreateIntervalMin)
	assert.Equal(t, 20*time.Second, s.CreateIntervalMax)
	assert.Equal(t, 15*time.Second, s.RedeemInterval)
	assert.Equal(t, 10*time.Second, s.RepledgeInterval)
	assert.Equal(t, 53*time.Second, s.ReconcileInterval)
	assert.EqualValues(t, 800, s.PopulationCap)
	assert.Equal(t, 100000, s.MaxCreations)

	assert.Equal(t, "info", configuration.Log.Level)
	assert.True(t, configuration.Log.Console)
	assert.Equal(t, "console", configuration.Log.ConsoleFormat)
	assert.Equal(t, "iso8601", configuration.Log.TimeFormat)
	assert.Equal(t, []string{"http://127.0.0.1:7702"}, configuration.StatNodes())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("IMITATOR_RPC_URL", "http://10.0.0.5:7702")
	t.Setenv("IMITATOR_RPC_TIMEOUT", "5s")
	t.Setenv("IMITATOR_RPC_TRANSFER_POLICY", "tolerant")
	t.Setenv("IMITATOR_ROOT_ADDRESS", "1root")
	t.Setenv("IMITATOR_ROOT_PRIVKEY", "root-priv")
	t.Setenv("IMITATOR_SCHEDULER_POPULATION_CAP", "5")
	t.Setenv("IMITATOR_SCHEDULER_CREATE_INTERVAL_MAX", "30s")
	t.Setenv("IMITATOR_STAT_URLS", "http://a:7702,http://b:7702")
	t.Setenv("IMITATOR_LOG_CONSOLE_FORMAT", "json")

	configuration, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:7702", configuration.RPC.URL)
	assert.Equal(t, 5*time.Second, configuration.RPC.Timeout)
	assert.Equal(t, blockchain.TolerantTransferPolicy, configuration.RPC.TransferPolicy)
	assert.Equal(t, "1root", configuration.Root.Address)
	assert.EqualValues(t, 5, configuration.Scheduler.PopulationCap)
	assert.Equal(t, 30*time.Second, configuration.Scheduler.CreateIntervalMax)
	assert.Equal(t, []string{"http://a:7702", "http://b:7702"}, configuration.StatNodes())
	assert.Equal(t, "json", configuration.Log.ConsoleFormat)
	assert.NoError(t, configuration.RequireRoot())
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("IMITATOR_RPC_URL", "http://10.0.0.5:7702")
	t.Setenv("IMITATOR_DB_DSN", "from-env.db")

	flags := testFlags(t, "--rpc-url=http://flag:7702", "--log-level=debug")
	configuration, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "http://flag:7702", configuration.RPC.URL)
	assert.Equal(t, "from-env.db", configuration.DB.DSN)
	assert.Equal(t, "debug", configuration.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "imitator.env")
	require.NoError(t, os.WriteFile(envFile, []byte("IMITATOR_DB_DRIVER=mysql\nIMITATOR_DB_DSN=user:pass@tcp(db:3306)/mam\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("IMITATOR_DB_DRIVER")
		_ = os.Unsetenv("IMITATOR_DB_DSN")
	})

	configuration, err := Load(envFile, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.MysqlDriver, configuration.DB.Driver)
	assert.Equal(t, "user:pass@tcp(db:3306)/mam", configuration.DB.DSN)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"), nil)
	require.ErrorContains(t, err, "missing.env")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "policy", key: "IMITATOR_RPC_TRANSFER_POLICY", val: "lenient", want: "unknown transfer policy"},
		{name: "driver", key: "IMITATOR_DB_DRIVER", val: "postgres", want: "unsupported database driver"},
		{name: "tick", key: "IMITATOR_SCHEDULER_TICK", val: "0s", want: "scheduler.tick"},
		{name: "interval", key: "IMITATOR_SCHEDULER_CREATE_INTERVAL_MIN", val: "40s", want: "invalid creation interval"},
		{name: "cap", key: "IMITATOR_SCHEDULER_POPULATION_CAP", val: "-1", want: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("", nil)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRequireRoot(t *testing.T) {
	configuration, err := Load("", nil)
	require.NoError(t, err)
	assert.Error(t, configuration.RequireRoot())
}
