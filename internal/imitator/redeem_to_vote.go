package imitator

import (
	"context"

	"github.com/mamchain/mamio/internal/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TransRedeemToVote pledges the redeemed funds of every vote whose re-pledge
// timer is armed and expired back to the vote address. Only the re-pledge
// timer is rescheduled. Returns the number of transfers attempted.
func (im *Imitator) TransRedeemToVote(ctx context.Context) (int, error) {
	logger.Debug("redeem to vote...")

	votes, err := im.storage.GetVotes()
	if err != nil {
		return 0, errors.Wrap(err, "read votes")
	}

	pledged := 0
	for _, vote := range votes {
		now := im.now()
		if vote.NextVoteTime <= 0 || now <= vote.NextVoteTime {
			continue
		}

		nextVoteTime := now + int64(im.random.Between(VoteDelayMin, VoteDelayMax))
		if err := im.storage.UpdateVoteNextVoteTime(vote.VoteAddress, nextVoteTime); err != nil {
			return pledged, errors.Wrap(err, "reschedule vote")
		}

		redeemAddress, err := im.client.AddMintRedeemTemplate(ctx, vote.Owner, RedeemNonce)
		if err != nil {
			return pledged, err
		}

		amount, err := im.client.GetBalance(ctx, redeemAddress)
		if err != nil {
			return pledged, err
		}
		if !amount.GreaterThan(TxFee) {
			continue
		}

		if err := im.unlockOwner(ctx, vote.Owner, vote.OwnerPrivKey); err != nil {
			return pledged, err
		}

		if _, err := im.transfer(ctx, redeemAddress, vote.VoteAddress, amount.Sub(TxFee)); err != nil {
			return pledged, err
		}

		pledged++
		logger.Debug("redeem to vote: sent",
			zap.String("vote address", vote.VoteAddress),
			zap.String("amount", amount.String()),
		)
	}

	logger.Info("redeem to vote... done", zap.Int("count", pledged))
	return pledged, nil
}
