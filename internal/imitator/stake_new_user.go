package imitator

import (
	"context"

	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateStaker generates a key pair, stores it as a user key and makes the
// ledger wallet able to sign for it.
func (im *Imitator) CreateStaker(ctx context.Context) (string, string, error) {
	keyPair, err := im.client.MakeKeyPair(ctx)
	if err != nil {
		return "", "", err
	}

	address, err := im.client.GetPubKeyAddress(ctx, keyPair.PubKey)
	if err != nil {
		return "", "", err
	}

	err = im.storage.InsertUserKey(&storage.UserKey{
		Address: address,
		PrivKey: keyPair.PrivKey,
		PubKey:  keyPair.PubKey,
		Weight:  im.random.Between(0, UserWeightMax),
	})
	if err != nil {
		return "", "", errors.Wrap(err, "store user key")
	}

	if err := im.unlockOwner(ctx, address, keyPair.PrivKey); err != nil {
		return "", "", err
	}

	logger.Debug("create staker: done", zap.String("address", address))
	return address, keyPair.PrivKey, nil
}

// StakeNewUser creates up to count stakers, each pledging a random amount from
// the root account. Iterations the root balance cannot cover are skipped.
func (im *Imitator) StakeNewUser(ctx context.Context, count int) (int, error) {
	logger.Debug("stake new users...", zap.Int("count", count))

	if _, err := im.ensureRoot(ctx); err != nil {
		return 0, err
	}

	created := 0
	for i := 0; i < count; i++ {
		balance, err := im.client.GetBalance(ctx, im.root.Address)
		if err != nil {
			return created, err
		}

		amount := decimal.NewFromInt(int64(im.random.Between(PledgeAmountMin, PledgeAmountMax)))
		if balance.LessThan(amount.Add(TxFee)) {
			logger.Debug("stake new users: root balance too low, skip",
				zap.String("balance", balance.String()),
				zap.String("amount", amount.String()),
			)
			continue
		}

		powMint, err := im.SelectPowMint()
		if errors.Is(err, ErrEmptyPool) {
			logger.Warn("stake new users: pow mint pool is empty, nothing to pledge to")
			return created, nil
		}
		if err != nil {
			return created, err
		}

		ok, err := im.stake(ctx, powMint.PowAddress, amount)
		if err != nil {
			return created, err
		}
		if ok {
			created++
			logger.Info("stake new users: user pledged",
				zap.String("amount", amount.String()),
				zap.String("pow address", powMint.PowAddress),
				zap.String("root balance", balance.Sub(amount).Sub(TxFee).String()),
			)
		}
	}

	logger.Debug("stake new users... done", zap.Int("created", created))
	return created, nil
}

func (im *Imitator) stake(ctx context.Context, powAddress string, amount decimal.Decimal) (bool, error) {
	address, privKey, err := im.CreateStaker(ctx)
	if err != nil {
		return false, err
	}

	voteAddress, err := im.client.AddMintPledgeTemplate(ctx, address, powAddress, RewardMode)
	if err != nil {
		return false, err
	}

	if err := im.client.UnlockKey(ctx, im.root.Address); err != nil {
		return false, err
	}

	sent, err := im.transfer(ctx, im.root.Address, voteAddress, amount)
	if err != nil || !sent {
		return false, err
	}

	err = im.storage.InsertVote(&storage.Vote{
		VoteAddress:    voteAddress,
		Owner:          address,
		PowMint:        powAddress,
		RewardMode:     RewardMode,
		OwnerPrivKey:   privKey,
		NextRedeemTime: im.now() + int64(im.random.Between(RedeemDelayMin, RedeemDelayMax)),
		NextVoteTime:   0,
	})
	if err != nil {
		return false, errors.Wrap(err, "store vote")
	}

	return true, nil
}
