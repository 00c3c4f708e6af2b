package imitator

import (
	"github.com/mamchain/mamio/internal/storage"

	"github.com/pkg/errors"
)

var ErrEmptyPool = errors.New("pow mint pool is empty")

// SelectPowMint picks a pledge target from the pow mint pool. The index is
// drawn from [0, n] inclusive and n lands on the last slot, so the last slot
// is drawn twice as often as the others.
func (im *Imitator) SelectPowMint() (*storage.PowMint, error) {
	powMints, err := im.storage.GetPowMints()
	if err != nil {
		return nil, errors.Wrap(err, "read pow mint pool")
	}

	n := len(powMints)
	if n == 0 {
		return nil, ErrEmptyPool
	}

	index := im.random.Between(0, n)
	if index >= n {
		index = n - 1
	}

	return powMints[index], nil
}
