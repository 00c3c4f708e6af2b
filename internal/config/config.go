// Package config loads the imitator configuration from an optional .env file,
// IMITATOR_ prefixed environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/imitator"
	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "IMITATOR"
	defaultEnvFile = ".env"
)

type Configuration struct {
	RPC       blockchain.Configuration        `mapstructure:"rpc"`
	StatURLs  []string                        `mapstructure:"stat_urls"`
	DB        storage.Configuration           `mapstructure:"db"`
	Root      imitator.RootAccount            `mapstructure:"root"`
	Scheduler imitator.SchedulerConfiguration `mapstructure:"scheduler"`
	Log       logger.Configuration            `mapstructure:"log"`
}

// flag name -> configuration key
var flagKeys = map[string]string{
	"rpc-url":         "rpc.url",
	"db-driver":       "db.driver",
	"db-dsn":          "db.dsn",
	"transfer-policy": "rpc.transfer_policy",
	"log-level":       "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc.url", "http://127.0.0.1:7702")
	v.SetDefault("rpc.passphrase", "123")
	v.SetDefault("rpc.timeout", 30*time.Second)
	v.SetDefault("rpc.transfer_policy", blockchain.StrictTransferPolicy)
	v.SetDefault("stat_urls", []string{})

	v.SetDefault("db.driver", storage.SqliteDriver)
	v.SetDefault("db.dsn", "imitator.db")

	v.SetDefault("root.address", "")
	v.SetDefault("root.pubkey", "")
	v.SetDefault("root.privkey", "")

	v.SetDefault("scheduler.tick", 2*time.Second)
	v.SetDefault("scheduler.create_interval_min", time.Second)
	v.SetDefault("scheduler.create_interval_max", 20*time.Second)
	v.SetDefault("scheduler.redeem_interval", 15*time.Second)
	v.SetDefault("scheduler.repledge_interval", 10*time.Second)
	v.SetDefault("scheduler.reconcile_interval", 53*time.Second)
	v.SetDefault("scheduler.population_cap", 800)
	v.SetDefault("scheduler.max_creations", 100000)

	v.SetDefault("log.file", "")
	v.SetDefault("log.error_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.console_format", logger.ConsoleFormat)
	v.SetDefault("log.time_format", "iso8601")
}

// Load reads the configuration. A missing default .env file is ignored, a
// missing envFile given explicitly is not. flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (*Configuration, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, errors.Wrap(err, "decode configuration")
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		err := godotenv.Load(defaultEnvFile)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "read %s", defaultEnvFile)
		}
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return errors.Wrapf(err, "read %s", envFile)
	}
	return nil
}

func (c *Configuration) Validate() error {
	if c.RPC.URL == "" {
		return errors.New("rpc.url is required")
	}

	switch c.RPC.TransferPolicy {
	case blockchain.StrictTransferPolicy, blockchain.TolerantTransferPolicy:
	default:
		return errors.Errorf("unknown transfer policy %q", c.RPC.TransferPolicy)
	}

	switch c.DB.Driver {
	case storage.SqliteDriver, storage.MysqlDriver:
	default:
		return errors.Errorf("unsupported database driver %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("db.dsn is required")
	}

	s := c.Scheduler
	if s.Tick <= 0 {
		return errors.New("scheduler.tick must be positive")
	}
	if s.CreateIntervalMin < time.Second || s.CreateIntervalMax < s.CreateIntervalMin {
		return errors.Errorf("invalid creation interval [%s, %s]", s.CreateIntervalMin, s.CreateIntervalMax)
	}
	if s.RedeemInterval <= 0 || s.RepledgeInterval <= 0 || s.ReconcileInterval <= 0 {
		return errors.New("scheduler intervals must be positive")
	}
	if s.PopulationCap < 0 || s.MaxCreations < 0 {
		return errors.New("scheduler limits must not be negative")
	}

	return nil
}

// RequireRoot reports whether the root account is usable for funding.
func (c *Configuration) RequireRoot() error {
	if c.Root.Address == "" || c.Root.PrivKey == "" {
		return errors.New("root.address and root.privkey are required")
	}
	return nil
}

// StatNodes lists the nodes stat-balance queries, the rpc node when none are
// configured.
func (c *Configuration) StatNodes() []string {
	if len(c.StatURLs) == 0 {
		return []string{c.RPC.URL}
	}
	return c.StatURLs
}
