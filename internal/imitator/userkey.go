package imitator

import (
	"context"

	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Bulk operations over the user key table. They are run by hand to prepare
// or drain a population and are not part of the scheduled load.

func (im *Imitator) CreateUserKeys(ctx context.Context, count int) (int, error) {
	logger.Debug("create user keys...", zap.Int("count", count))

	for i := 0; i < count; i++ {
		keyPair, err := im.client.MakeKeyPair(ctx)
		if err != nil {
			return i, err
		}

		address, err := im.client.GetPubKeyAddress(ctx, keyPair.PubKey)
		if err != nil {
			return i, err
		}

		err = im.storage.InsertUserKey(&storage.UserKey{
			Address: address,
			PrivKey: keyPair.PrivKey,
			PubKey:  keyPair.PubKey,
			Weight:  i,
		})
		if err != nil {
			return i, errors.Wrap(err, "store user key")
		}
	}

	logger.Info("create user keys... done", zap.Int("count", count))
	return count, nil
}

func (im *Imitator) ClearUserKeys() (int64, error) {
	deleted, err := im.storage.DeleteUserKeys()
	if err != nil {
		return 0, errors.Wrap(err, "delete user keys")
	}

	logger.Info("clear user keys: done", zap.Int64("count", deleted))
	return deleted, nil
}

func (im *Imitator) ImportUserKeys(ctx context.Context) (int, error) {
	userKeys, err := im.storage.GetUserKeys()
	if err != nil {
		return 0, errors.Wrap(err, "read user keys")
	}

	for i, userKey := range userKeys {
		if err := im.unlockOwner(ctx, userKey.Address, userKey.PrivKey); err != nil {
			return i, err
		}
	}

	logger.Info("import user keys: done", zap.Int("count", len(userKeys)))
	return len(userKeys), nil
}

// FundUserKeys sends amount from the root account to every user key.
func (im *Imitator) FundUserKeys(ctx context.Context, amount decimal.Decimal) (int, error) {
	if _, err := im.ensureRoot(ctx); err != nil {
		return 0, err
	}

	userKeys, err := im.storage.GetUserKeys()
	if err != nil {
		return 0, errors.Wrap(err, "read user keys")
	}

	funded := 0
	for _, userKey := range userKeys {
		sent, err := im.transfer(ctx, im.root.Address, userKey.Address, amount)
		if err != nil {
			return funded, err
		}
		if sent {
			funded++
		}
	}

	logger.Info("fund user keys: done", zap.Int("count", funded), zap.String("amount", amount.String()))
	return funded, nil
}

// PledgeUserKeys makes every user key that has no vote yet pledge its whole
// balance, less the fee, against a pow mint drawn from the pool.
func (im *Imitator) PledgeUserKeys(ctx context.Context) (int, error) {
	userKeys, err := im.storage.GetUserKeys()
	if err != nil {
		return 0, errors.Wrap(err, "read user keys")
	}

	pledged := 0
	for _, userKey := range userKeys {
		vote, err := im.storage.GetVoteByOwner(userKey.Address)
		if err != nil {
			return pledged, errors.Wrap(err, "read vote")
		}
		if vote != nil {
			continue
		}

		balance, err := im.client.GetBalance(ctx, userKey.Address)
		if err != nil {
			return pledged, err
		}
		if !balance.GreaterThan(TxFee) {
			continue
		}

		powMint, err := im.SelectPowMint()
		if err != nil {
			return pledged, err
		}

		voteAddress, err := im.client.AddMintPledgeTemplate(ctx, userKey.Address, powMint.PowAddress, RewardMode)
		if err != nil {
			return pledged, err
		}

		if err := im.unlockOwner(ctx, userKey.Address, userKey.PrivKey); err != nil {
			return pledged, err
		}

		sent, err := im.transfer(ctx, userKey.Address, voteAddress, balance.Sub(TxFee))
		if err != nil {
			return pledged, err
		}
		if !sent {
			continue
		}

		err = im.storage.InsertVote(&storage.Vote{
			VoteAddress:    voteAddress,
			Owner:          userKey.Address,
			PowMint:        powMint.PowAddress,
			RewardMode:     RewardMode,
			OwnerPrivKey:   userKey.PrivKey,
			NextRedeemTime: im.now() + int64(im.random.Between(RedeemDelayMin, RedeemDelayMax)),
		})
		if err != nil {
			return pledged, errors.Wrap(err, "store vote")
		}
		pledged++
	}

	logger.Info("pledge user keys: done", zap.Int("count", pledged))
	return pledged, nil
}

// RedeemAll redeems every vote now, regardless of its timers, and leaves the
// timers as they are.
func (im *Imitator) RedeemAll(ctx context.Context) (int, error) {
	votes, err := im.storage.GetVotes()
	if err != nil {
		return 0, errors.Wrap(err, "read votes")
	}

	redeemed := 0
	for _, vote := range votes {
		attempted, err := im.redeemVote(ctx, vote)
		if err != nil {
			return redeemed, err
		}
		if attempted {
			redeemed++
		}
	}

	logger.Info("redeem all: done", zap.Int("count", redeemed))
	return redeemed, nil
}
