package imitator

import (
	"context"

	"github.com/mamchain/mamio/internal/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SaveVoteAmount stores the current balance of every vote address. The amount
// is informational only, no transition reads it.
func (im *Imitator) SaveVoteAmount(ctx context.Context) (int, error) {
	logger.Debug("save vote amount...")

	votes, err := im.storage.GetVotes()
	if err != nil {
		return 0, errors.Wrap(err, "read votes")
	}

	saved := 0
	for _, vote := range votes {
		amount, err := im.client.GetBalance(ctx, vote.VoteAddress)
		if err != nil {
			return saved, err
		}

		if err := im.storage.UpdateVoteAmount(vote.VoteAddress, amount); err != nil {
			return saved, errors.Wrap(err, "store vote amount")
		}
		saved++
	}

	logger.Info("save vote amount... done", zap.Int("count", saved))
	return saved, nil
}
