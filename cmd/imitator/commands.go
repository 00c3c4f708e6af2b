package main

import (
	"context"
	"fmt"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/imitator"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the staking load until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := a.openWithRoot(cmd.Context())
			if err != nil {
				return err
			}
			return im.Run(cmd.Context(), a.configuration.Scheduler)
		},
	}
}

func newStakeCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Create stakers funded from the root account",
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := a.openWithRoot(cmd.Context())
			if err != nil {
				return err
			}
			created, err := im.StakeNewUser(cmd.Context(), count)
			logPass("stake", created, err)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of stakers to create")
	return cmd
}

// newPassCmd runs one pass of an activity. withRoot is set for passes that
// spend from or pay into the root account.
func newPassCmd(a *app, use string, short string, withRoot bool, pass func(*imitator.Imitator, context.Context) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			open := a.open
			if withRoot {
				open = a.openWithRoot
			}
			im, err := open(cmd.Context())
			if err != nil {
				return err
			}
			count, err := pass(im, cmd.Context())
			logPass(use, count, err)
			return nil
		},
	}
}

func newUserKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "userkey",
		Short: "Bulk operations on the user key table",
	}

	var count int
	create := &cobra.Command{
		Use:   "create",
		Short: "Generate user keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			created, err := im.CreateUserKeys(cmd.Context(), count)
			logPass("userkey create", created, err)
			return nil
		},
	}
	create.Flags().IntVar(&count, "count", 1000, "number of keys to generate")

	clearKeys := &cobra.Command{
		Use:   "clear",
		Short: "Delete every user key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openStorage(); err != nil {
				return err
			}
			deleted, err := imitator.New(a.storage, nil, a.configuration.Root).ClearUserKeys()
			logPass("userkey clear", int(deleted), err)
			return nil
		},
	}

	importKeys := &cobra.Command{
		Use:   "import",
		Short: "Import and unlock every user key in the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			imported, err := im.ImportUserKeys(cmd.Context())
			logPass("userkey import", imported, err)
			return nil
		},
	}

	var amount string
	fund := &cobra.Command{
		Use:   "fund",
		Short: "Send an amount from the root account to every user key",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return errors.Wrapf(err, "invalid amount %q", amount)
			}
			im, err := a.openWithRoot(cmd.Context())
			if err != nil {
				return err
			}
			funded, err := im.FundUserKeys(cmd.Context(), value)
			logPass("userkey fund", funded, err)
			return nil
		},
	}
	fund.Flags().StringVar(&amount, "amount", fmt.Sprint(imitator.UserKeyFundAmount), "amount sent to every key")

	pledge := &cobra.Command{
		Use:   "pledge",
		Short: "Pledge the balance of every user key without a vote",
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			pledged, err := im.PledgeUserKeys(cmd.Context())
			logPass("userkey pledge", pledged, err)
			return nil
		},
	}

	redeem := &cobra.Command{
		Use:   "redeem",
		Short: "Redeem every vote now, ignoring its timers",
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			redeemed, err := im.RedeemAll(cmd.Context())
			logPass("userkey redeem", redeemed, err)
			return nil
		},
	}

	cmd.AddCommand(create, clearKeys, importKeys, fund, pledge, redeem)
	return cmd
}

func newPowMintCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "powmint",
		Short: "Manage the pow mint pool",
	}

	var spent, privKey, fee string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a pow mint slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			pledgeFee, err := decimal.NewFromString(fee)
			if err != nil {
				return errors.Wrapf(err, "invalid pledge fee %q", fee)
			}
			im, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			_, err = im.AddPowMint(cmd.Context(), spent, privKey, pledgeFee)
			return err
		},
	}
	add.Flags().StringVar(&spent, "spent", "", "address of the mint owner")
	add.Flags().StringVar(&privKey, "privkey", "", "private key of the mint owner")
	add.Flags().StringVar(&fee, "fee", "", "pledge fee of the mint")
	_ = add.MarkFlagRequired("spent")
	_ = add.MarkFlagRequired("privkey")
	_ = add.MarkFlagRequired("fee")

	cmd.AddCommand(add)
	return cmd
}

func newStatBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat-balance",
		Short: "Sum the wallet balances of the configured nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var nodes []imitator.Node
			for _, url := range a.configuration.StatNodes() {
				rpc := a.configuration.RPC
				rpc.URL = url
				nodes = append(nodes, imitator.Node{URL: url, Client: blockchain.NewRPCClient(rpc)})
			}

			total, err := imitator.StatBalance(cmd.Context(), nodes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), total.String())
			return nil
		},
	}
}
