package imitator

import (
	"context"

	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// VoteRedeem moves the pledge of every vote whose redeem timer expired into
// the owner's redeem address. Both timers are rescheduled before the transfer:
// the re-pledge becomes eligible first and the next redeem only after it.
// Returns the number of transfers attempted.
func (im *Imitator) VoteRedeem(ctx context.Context) (int, error) {
	logger.Debug("vote redeem...")

	votes, err := im.storage.GetVotes()
	if err != nil {
		return 0, errors.Wrap(err, "read votes")
	}

	redeemed := 0
	for _, vote := range votes {
		now := im.now()
		if now <= vote.NextRedeemTime {
			continue
		}

		nextVoteTime := now + int64(im.random.Between(VoteDelayMin, VoteDelayMax))
		nextRedeemTime := nextVoteTime + int64(im.random.Between(RedeemDelayMin, RedeemDelayMax))
		if err := im.storage.UpdateVoteSchedule(vote.VoteAddress, nextRedeemTime, nextVoteTime); err != nil {
			return redeemed, errors.Wrap(err, "reschedule vote")
		}

		attempted, err := im.redeemVote(ctx, vote)
		if err != nil {
			return redeemed, err
		}
		if attempted {
			redeemed++
		}
	}

	logger.Info("vote redeem... done", zap.Int("count", redeemed))
	return redeemed, nil
}

// redeemVote sends the vote balance less the fee to the redeem address of
// the owner. Reports whether a transfer was attempted.
func (im *Imitator) redeemVote(ctx context.Context, vote *storage.Vote) (bool, error) {
	amount, err := im.client.GetBalance(ctx, vote.VoteAddress)
	if err != nil {
		return false, err
	}
	if !amount.GreaterThan(TxFee) {
		return false, nil
	}

	redeemAddress, err := im.client.AddMintRedeemTemplate(ctx, vote.Owner, RedeemNonce)
	if err != nil {
		return false, err
	}

	if err := im.unlockOwner(ctx, vote.Owner, vote.OwnerPrivKey); err != nil {
		return false, err
	}

	if _, err := im.transfer(ctx, vote.VoteAddress, redeemAddress, amount.Sub(TxFee)); err != nil {
		return false, err
	}

	logger.Debug("vote redeem: sent",
		zap.String("vote address", vote.VoteAddress),
		zap.String("redeem address", redeemAddress),
		zap.String("amount", amount.String()),
	)
	return true, nil
}
