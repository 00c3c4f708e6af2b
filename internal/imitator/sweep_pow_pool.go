package imitator

import (
	"context"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SweepPowPool returns what the pow mint addresses earned to the root
// account, keeping PowSweepThreshold on each. Returns the number of sweeps
// attempted.
func (im *Imitator) SweepPowPool(ctx context.Context) (int, error) {
	logger.Debug("sweep pow pool...")

	powMints, err := im.storage.GetPowMints()
	if err != nil {
		return 0, errors.Wrap(err, "read pow mint pool")
	}

	swept := 0
	for _, powMint := range powMints {
		powAddress, err := im.client.AddMintTemplate(ctx, powMint.SpentAddress, powMint.PledgeFee)
		if err != nil {
			return swept, err
		}

		amount, err := im.client.GetBalance(ctx, powAddress)
		if err != nil {
			return swept, err
		}
		if !amount.GreaterThan(PowSweepThreshold) {
			continue
		}

		if err := im.unlockOwner(ctx, powMint.SpentAddress, powMint.SpentPrivKey); err != nil {
			return swept, err
		}

		// the balance may have moved since the query, a rejection is logged
		// whatever the transfer policy
		_, err = im.transfer(ctx, powAddress, im.root.Address, amount.Sub(PowSweepThreshold))
		if errors.Is(err, blockchain.ErrInsufficientFunds) {
			logger.Warn("sweep pow pool: transfer rejected",
				zap.String("pow address", powAddress),
				zap.String("amount", amount.Sub(PowSweepThreshold).String()),
				zap.Error(err),
			)
		} else if err != nil {
			return swept, err
		}

		swept++
		logger.Debug("sweep pow pool: sent",
			zap.String("pow address", powAddress),
			zap.String("amount", amount.Sub(PowSweepThreshold).String()),
		)
	}

	logger.Info("sweep pow pool... done", zap.Int("count", swept))
	return swept, nil
}

// AddPowMint registers a pow mint slot owned by spentAddress. The pow address
// is derived by the ledger from the owner and the pledge fee.
func (im *Imitator) AddPowMint(ctx context.Context, spentAddress string, spentPrivKey string, pledgeFee decimal.Decimal) (*storage.PowMint, error) {
	if err := im.unlockOwner(ctx, spentAddress, spentPrivKey); err != nil {
		return nil, err
	}

	powAddress, err := im.client.AddMintTemplate(ctx, spentAddress, pledgeFee)
	if err != nil {
		return nil, err
	}

	powMint := &storage.PowMint{
		SpentAddress: spentAddress,
		PowAddress:   powAddress,
		PledgeFee:    pledgeFee,
		SpentPrivKey: spentPrivKey,
	}
	if err := im.storage.InsertPowMint(powMint); err != nil {
		return nil, errors.Wrap(err, "store pow mint")
	}

	logger.Info("add pow mint: done", zap.String("pow address", powAddress), zap.String("spent address", spentAddress))
	return powMint, nil
}
