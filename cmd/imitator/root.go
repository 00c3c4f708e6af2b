package main

import (
	"context"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/config"
	"github.com/mamchain/mamio/internal/imitator"
	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	envFile       string
	configuration *config.Configuration

	storage  *storage.GormStorage
	imitator *imitator.Imitator
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "imitator",
		Short:         "Synthetic staking load for a mint pledge ledger",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configuration, err := config.Load(a.envFile, cmd.Flags())
			if err != nil {
				return errors.Wrap(err, "failed to initialize configuration")
			}
			a.configuration = configuration

			if err := logger.Initialize(configuration.Log); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", "", "environment file, .env in the working directory when empty")
	flags.String("rpc-url", "", "ledger wallet JSON-RPC endpoint")
	flags.String("db-driver", "", "database driver, sqlite or mysql")
	flags.String("db-dsn", "", "database DSN, a file path for sqlite")
	flags.String("transfer-policy", "", "strict or tolerant handling of rejected transfers")
	flags.String("log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		newRunCmd(a),
		newStakeCmd(a),
		newPassCmd(a, "sweep", "Sweep pow mint earnings to the root account", true, (*imitator.Imitator).SweepPowPool),
		newPassCmd(a, "redeem", "Redeem every vote whose redeem timer expired", false, (*imitator.Imitator).VoteRedeem),
		newPassCmd(a, "repledge", "Pledge redeemed funds back to their votes", false, (*imitator.Imitator).TransRedeemToVote),
		newPassCmd(a, "reconcile", "Store the current balance of every vote", false, (*imitator.Imitator).SaveVoteAmount),
		newUserKeyCmd(a),
		newPowMintCmd(a),
		newStatBalanceCmd(a),
	)

	return rootCmd, a
}

// execute runs cmd and releases what the command opened, also when it failed.
func (a *app) execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "close storage")
	}
	return err
}

func (a *app) openStorage() error {
	if a.storage != nil {
		return nil
	}

	gormStorage, err := storage.NewGormStorage(a.configuration.DB)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	a.storage = gormStorage
	return nil
}

// open connects the storage and the ledger and probes the ledger.
func (a *app) open(ctx context.Context) (*imitator.Imitator, error) {
	if err := a.openStorage(); err != nil {
		return nil, err
	}

	client := blockchain.NewRPCClient(a.configuration.RPC)
	a.imitator = imitator.New(a.storage, client, a.configuration.Root)

	if err := a.imitator.Verify(ctx); err != nil {
		return nil, err
	}
	return a.imitator, nil
}

func (a *app) openWithRoot(ctx context.Context) (*imitator.Imitator, error) {
	if err := a.configuration.RequireRoot(); err != nil {
		return nil, err
	}
	return a.open(ctx)
}

func (a *app) close() error {
	if a.imitator != nil {
		a.imitator.Finalize()
		a.imitator = nil
	}
	if a.storage == nil {
		return nil
	}
	err := a.storage.Close()
	a.storage = nil
	return err
}

// logPass reports the outcome of a one-shot pass. Pass failures do not fail
// the command, the next invocation retries.
func logPass(name string, count int, err error) {
	if err != nil {
		logger.Error(name+": failed", zap.Int("count", count), zap.Error(err))
		return
	}
	logger.Info(name+": done", zap.Int("count", count))
}
