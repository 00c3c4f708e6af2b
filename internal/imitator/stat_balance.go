package imitator

import (
	"context"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/logger"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Node struct {
	URL    string
	Client blockchain.Client
}

// StatBalance sums the wallet balances of several nodes. The nodes are asked
// concurrently; the fork height is read from the first one.
func StatBalance(ctx context.Context, nodes []Node) (decimal.Decimal, error) {
	if len(nodes) == 0 {
		return decimal.Zero, errors.New("no nodes to query")
	}

	balances := make([]decimal.Decimal, len(nodes))
	var height int64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		height, err = nodes[0].Client.GetForkHeight(ctx)
		return err
	})
	for i, node := range nodes {
		g.Go(func() error {
			balance, err := node.Client.GetWalletBalance(ctx)
			if err != nil {
				return errors.Wrapf(err, "balance of %s", node.URL)
			}
			balances[i] = balance
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i, balance := range balances {
		logger.Info("stat balance: node", zap.String("url", nodes[i].URL), zap.String("balance", balance.String()))
		total = total.Add(balance)
	}

	logger.Info("stat balance: done", zap.Int64("height", height), zap.String("total", total.String()))
	return total, nil
}
