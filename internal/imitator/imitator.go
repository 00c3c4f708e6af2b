package imitator

import (
	"context"
	"time"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/logger"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RootAccount funds new stakers and receives the pow mint sweeps.
type RootAccount struct {
	Address string `mapstructure:"address"`
	PubKey  string `mapstructure:"pubkey"`
	PrivKey string `mapstructure:"privkey"`
}

// unlockKey is what the ledger unlocks the root account by.
func (r RootAccount) unlockKey() string {
	if r.PubKey != "" {
		return r.PubKey
	}
	return r.Address
}

type Imitator struct {
	storage storage.Storage
	client  blockchain.Client
	clock   clock.Clock
	random  Random
	root    RootAccount

	rootReady bool
	probe     func() backoff.BackOff
}

type Option func(*Imitator)

func WithClock(clk clock.Clock) Option {
	return func(im *Imitator) { im.clock = clk }
}

func WithRandom(random Random) Option {
	return func(im *Imitator) { im.random = random }
}

func New(storage storage.Storage, client blockchain.Client, root RootAccount, opts ...Option) *Imitator {
	im := &Imitator{
		storage: storage,
		client:  client,
		clock:   clock.New(),
		random:  NewRandom(),
		root:    root,
		probe: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}

	for _, opt := range opts {
		opt(im)
	}

	return im
}

// Verify probes the ledger before any work is done, retrying a few times so
// that a node still starting up does not abort the process.
func (im *Imitator) Verify(ctx context.Context) error {
	logger.Debug("verifying ledger connection...")

	var height int64
	operation := func() error {
		var err error
		height, err = im.client.GetForkHeight(ctx)
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("ledger not reachable, retrying", zap.Error(err), zap.Duration("wait", wait))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(im.probe(), probeRetries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return errors.Wrap(err, "ledger not reachable")
	}

	logger.Info("verifying ledger connection... done", zap.Int64("fork height", height))
	return nil
}

// ensureRoot imports and unlocks the root key once per run and returns the
// current root balance.
func (im *Imitator) ensureRoot(ctx context.Context) (decimal.Decimal, error) {
	balance, err := im.client.GetBalance(ctx, im.root.Address)
	if err != nil {
		return decimal.Zero, err
	}

	if im.rootReady {
		return balance, nil
	}

	logger.Debug("importing root account...", zap.String("address", im.root.Address))
	if _, err := im.client.ImportPrivKey(ctx, im.root.PrivKey); err != nil {
		return decimal.Zero, errors.Wrap(err, "import root key")
	}

	if err := im.client.UnlockKey(ctx, im.root.unlockKey()); err != nil {
		return decimal.Zero, errors.Wrap(err, "unlock root key")
	}

	im.rootReady = true
	logger.Debug("importing root account... done", zap.String("balance", balance.String()))
	return balance, nil
}

// unlockOwner imports privKey and unlocks address so that funds held by
// templates owned by address can be spent.
func (im *Imitator) unlockOwner(ctx context.Context, address string, privKey string) error {
	if _, err := im.client.ImportPrivKey(ctx, privKey); err != nil {
		return errors.Wrapf(err, "import key of %s", address)
	}

	if err := im.client.UnlockKey(ctx, address); err != nil {
		return errors.Wrapf(err, "unlock %s", address)
	}

	return nil
}

// transfer submits a transfer and reports whether the ledger accepted it.
// Whether an insufficient funds rejection comes back as an error or as
// NoTxID is up to the transfer policy of the client.
func (im *Imitator) transfer(ctx context.Context, from string, to string, amount decimal.Decimal) (bool, error) {
	txID, err := im.client.SendFrom(ctx, from, to, amount)
	if err != nil {
		return false, err
	}
	if txID == blockchain.NoTxID {
		logger.Debug("transfer not submitted", zap.String("from", from), zap.String("to", to), zap.String("amount", amount.String()))
		return false, nil
	}

	logger.Debug("transfer sent", zap.String("txid", txID), zap.String("from", from), zap.String("to", to), zap.String("amount", amount.String()))
	return true, nil
}

func (im *Imitator) now() int64 {
	return im.clock.Now().Unix()
}

func (im *Imitator) Finalize() {
	logger.Info("imitator stopped")
}
