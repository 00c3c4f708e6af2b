package imitator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mamchain/mamio/internal/blockchain"
	"github.com/mamchain/mamio/internal/storage"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	rootAddress = "1root"
	rootPubKey  = "root-pub"
	rootPrivKey = "root-priv"
)

var testNow = time.Unix(1_700_000_000, 0)

type transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// fakeLedger keeps balances in memory and charges TxFee on every transfer.
// With tolerant set it answers insufficient funds the way the tolerant
// transfer policy does.
type fakeLedger struct {
	mu sync.Mutex

	balances  map[string]decimal.Decimal
	transfers []transfer
	imported  []string
	unlocked  []string
	keys      int

	height        int64
	heightErrs    int
	walletBalance decimal.Decimal
	walletErr     error
	sendErr       error
	tolerant      bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]decimal.Decimal)}
}

func (l *fakeLedger) setBalance(address string, amount string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[address] = decimal.RequireFromString(amount)
}

func (l *fakeLedger) balance(address string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[address]
}

func (l *fakeLedger) MakeKeyPair(context.Context) (*blockchain.KeyPair, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys++
	return &blockchain.KeyPair{
		PubKey:  fmt.Sprintf("pub-%d", l.keys),
		PrivKey: fmt.Sprintf("priv-%d", l.keys),
	}, nil
}

func (l *fakeLedger) GetPubKeyAddress(_ context.Context, pubKey string) (string, error) {
	return "1" + pubKey, nil
}

func (l *fakeLedger) ImportPrivKey(_ context.Context, privKey string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.imported = append(l.imported, privKey)
	return "", nil
}

func (l *fakeLedger) UnlockKey(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocked = append(l.unlocked, key)
	return nil
}

func (l *fakeLedger) GetBalance(_ context.Context, address string) (decimal.Decimal, error) {
	return l.balance(address), nil
}

func (l *fakeLedger) GetWalletBalance(context.Context) (decimal.Decimal, error) {
	return l.walletBalance, l.walletErr
}

func (l *fakeLedger) GetForkHeight(context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.heightErrs > 0 {
		l.heightErrs--
		return 0, errors.New("connection refused")
	}
	return l.height, nil
}

func (l *fakeLedger) AddMintTemplate(_ context.Context, spentAddress string, _ decimal.Decimal) (string, error) {
	return mintAddress(spentAddress), nil
}

func (l *fakeLedger) AddMintPledgeTemplate(_ context.Context, owner string, powMint string, rewardMode int) (string, error) {
	return pledgeAddress(owner, powMint, rewardMode), nil
}

func (l *fakeLedger) AddMintRedeemTemplate(_ context.Context, owner string, nonce int64) (string, error) {
	return redeemAddress(owner, nonce), nil
}

func (l *fakeLedger) SendFrom(_ context.Context, from string, to string, amount decimal.Decimal) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.sendErr
	if err == nil && l.balances[from].LessThan(amount.Add(TxFee)) {
		err = errors.Wrap(blockchain.ErrInsufficientFunds, "valuein is not enough")
	}
	if l.tolerant && errors.Is(err, blockchain.ErrInsufficientFunds) {
		return blockchain.NoTxID, nil
	}
	if err != nil {
		return blockchain.NoTxID, err
	}

	l.balances[from] = l.balances[from].Sub(amount).Sub(TxFee)
	l.balances[to] = l.balances[to].Add(amount)
	l.transfers = append(l.transfers, transfer{From: from, To: to, Amount: amount})
	return fmt.Sprintf("tx-%d", len(l.transfers)), nil
}

func mintAddress(spentAddress string) string {
	return fmt.Sprintf("mint(%s)", spentAddress)
}

func pledgeAddress(owner string, powMint string, rewardMode int) string {
	return fmt.Sprintf("pledge(%s,%s,%d)", owner, powMint, rewardMode)
}

func redeemAddress(owner string, nonce int64) string {
	return fmt.Sprintf("redeem(%s,%d)", owner, nonce)
}

// scriptedRandom answers Between with the value registered for the range and
// with min for every other range.
type scriptedRandom map[[2]int]int

func (r scriptedRandom) Between(min int, max int) int {
	if v, ok := r[[2]int{min, max}]; ok {
		return v
	}
	return min
}

// countingStorage counts vote writes and can pretend a different population.
type countingStorage struct {
	storage.Storage

	writes     int
	population *int64
}

func (s *countingStorage) InsertVote(vote *storage.Vote) error {
	s.writes++
	return s.Storage.InsertVote(vote)
}

func (s *countingStorage) UpdateVoteSchedule(voteAddress string, nextRedeemTime int64, nextVoteTime int64) error {
	s.writes++
	return s.Storage.UpdateVoteSchedule(voteAddress, nextRedeemTime, nextVoteTime)
}

func (s *countingStorage) UpdateVoteNextVoteTime(voteAddress string, nextVoteTime int64) error {
	s.writes++
	return s.Storage.UpdateVoteNextVoteTime(voteAddress, nextVoteTime)
}

func (s *countingStorage) UpdateVoteAmount(voteAddress string, amount decimal.Decimal) error {
	s.writes++
	return s.Storage.UpdateVoteAmount(voteAddress, amount)
}

func (s *countingStorage) CountVotes() (int64, error) {
	if s.population != nil {
		return *s.population, nil
	}
	return s.Storage.CountVotes()
}

type fixture struct {
	im     *Imitator
	ledger *fakeLedger
	store  *countingStorage
	clock  *clock.Mock
}

func newFixture(t *testing.T, random Random) *fixture {
	t.Helper()

	gormStorage, err := storage.NewGormStorage(storage.Configuration{
		Driver: storage.SqliteDriver,
		DSN:    filepath.Join(t.TempDir(), "imitator.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gormStorage.Close() })

	mock := clock.NewMock()
	mock.Set(testNow)

	store := &countingStorage{Storage: gormStorage}
	ledger := newFakeLedger()
	im := New(store, ledger,
		RootAccount{Address: rootAddress, PubKey: rootPubKey, PrivKey: rootPrivKey},
		WithClock(mock),
		WithRandom(random),
	)
	im.probe = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }

	return &fixture{im: im, ledger: ledger, store: store, clock: mock}
}

func (f *fixture) addPowMint(t *testing.T, spentAddress string, powAddress string) {
	t.Helper()
	require.NoError(t, f.store.InsertPowMint(&storage.PowMint{
		SpentAddress: spentAddress,
		PowAddress:   powAddress,
		PledgeFee:    decimal.NewFromInt(500),
		SpentPrivKey: spentAddress + "-priv",
	}))
}

func (f *fixture) addVote(t *testing.T, vote *storage.Vote) {
	t.Helper()
	if vote.RewardMode == 0 {
		vote.RewardMode = RewardMode
	}
	require.NoError(t, f.store.Storage.InsertVote(vote))
}

func (f *fixture) votes(t *testing.T) []*storage.Vote {
	t.Helper()
	votes, err := f.store.GetVotes()
	require.NoError(t, err)
	return votes
}

func requireAmount(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}
