package blockchain

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mamchain/mamio/internal/logger"

	"github.com/AccumulateNetwork/jsonrpc2/v15"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Client is the subset of the ledger wallet RPC the imitator drives.
type Client interface {
	MakeKeyPair(ctx context.Context) (*KeyPair, error)
	GetPubKeyAddress(ctx context.Context, pubKey string) (string, error)
	ImportPrivKey(ctx context.Context, privKey string) (string, error)
	UnlockKey(ctx context.Context, key string) error
	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)
	GetWalletBalance(ctx context.Context) (decimal.Decimal, error)
	GetForkHeight(ctx context.Context) (int64, error)
	AddMintTemplate(ctx context.Context, spentAddress string, pledgeFee decimal.Decimal) (string, error)
	AddMintPledgeTemplate(ctx context.Context, owner string, powMint string, rewardMode int) (string, error)
	AddMintRedeemTemplate(ctx context.Context, owner string, nonce int64) (string, error)
	SendFrom(ctx context.Context, from string, to string, amount decimal.Decimal) (string, error)
}

type TransferPolicy = string

const (
	// StrictTransferPolicy returns every rejected transfer as an error.
	StrictTransferPolicy TransferPolicy = "strict"
	// TolerantTransferPolicy logs insufficient funds rejections and reports
	// them as NoTxID without an error.
	TolerantTransferPolicy TransferPolicy = "tolerant"
)

// NoTxID is returned by SendFrom when a transfer was not submitted.
const NoTxID = ""

// Wallet error code the ledger answers with when the inputs do not cover
// amount plus fee.
const insufficientFundsCode = -6

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransfer          = errors.New("transfer rejected")
)

type Configuration struct {
	URL            string         `mapstructure:"url"`
	Passphrase     string         `mapstructure:"passphrase"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	TransferPolicy TransferPolicy `mapstructure:"transfer_policy"`
}

type RPCClient struct {
	url        string
	passphrase string
	policy     TransferPolicy
	client     jsonrpc2.Client
}

func NewRPCClient(configuration Configuration) *RPCClient {
	c := &RPCClient{
		url:        configuration.URL,
		passphrase: configuration.Passphrase,
		policy:     configuration.TransferPolicy,
	}
	c.client.Timeout = configuration.Timeout
	return c
}

func (c *RPCClient) request(ctx context.Context, method string, params, result interface{}) error {
	return c.client.Request(ctx, c.url, method, params, result)
}

func (c *RPCClient) MakeKeyPair(ctx context.Context) (*KeyPair, error) {
	var keyPair KeyPair
	if err := c.request(ctx, "makekeypair", struct{}{}, &keyPair); err != nil {
		return nil, errors.Wrap(err, "makekeypair")
	}

	return &keyPair, nil
}

func (c *RPCClient) GetPubKeyAddress(ctx context.Context, pubKey string) (string, error) {
	var address string
	if err := c.request(ctx, "getpubkeyaddress", getPubKeyAddressParams{PubKey: pubKey}, &address); err != nil {
		return "", errors.Wrap(err, "getpubkeyaddress")
	}

	return address, nil
}

// ImportPrivKey imports a signing key into the ledger wallet. Keys the wallet
// already holds are not an error, the returned public key is empty then.
func (c *RPCClient) ImportPrivKey(ctx context.Context, privKey string) (string, error) {
	var pubKey string
	err := c.request(ctx, "importprivkey", importPrivKeyParams{
		PrivKey:    privKey,
		Passphrase: c.passphrase,
		SyncTx:     true,
	}, &pubKey)
	if err != nil {
		if jerr, ok := rpcError(err); ok && strings.Contains(strings.ToLower(jerr.Message), "already") {
			logger.Debug("importprivkey: key already imported")
			return "", nil
		}
		return "", errors.Wrap(err, "importprivkey")
	}

	return pubKey, nil
}

// UnlockKey unlocks an address or public key. Keys that are already unlocked
// are not an error.
func (c *RPCClient) UnlockKey(ctx context.Context, key string) error {
	var result json.RawMessage
	err := c.request(ctx, "unlockkey", unlockKeyParams{PubKey: key, Passphrase: c.passphrase}, &result)
	if err != nil {
		if jerr, ok := rpcError(err); ok && strings.Contains(strings.ToLower(jerr.Message), "already unlocked") {
			logger.Debug("unlockkey: key already unlocked", zap.String("key", key))
			return nil
		}
		return errors.Wrapf(err, "unlockkey %s", key)
	}

	return nil
}

// GetBalance returns the available balance of address, zero when the ledger
// does not know the address.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var balances []Balance
	err := c.request(ctx, "getbalance", getBalanceParams{Address: address}, &balances)
	if err != nil {
		if jerr, ok := rpcError(err); ok && strings.Contains(strings.ToLower(jerr.Message), "unknown address") {
			return decimal.Zero, nil
		}
		return decimal.Zero, errors.Wrapf(err, "getbalance %s", address)
	}

	if len(balances) != 1 {
		return decimal.Zero, nil
	}

	return balances[0].Avail, nil
}

// GetWalletBalance sums the available balance over every address held by the
// wallet of the node.
func (c *RPCClient) GetWalletBalance(ctx context.Context) (decimal.Decimal, error) {
	var balances []Balance
	if err := c.request(ctx, "getbalance", getBalanceParams{}, &balances); err != nil {
		return decimal.Zero, errors.Wrap(err, "getbalance")
	}

	total := decimal.Zero
	for _, balance := range balances {
		total = total.Add(balance.Avail)
	}

	return total, nil
}

func (c *RPCClient) GetForkHeight(ctx context.Context) (int64, error) {
	var height int64
	if err := c.request(ctx, "getforkheight", getForkHeightParams{}, &height); err != nil {
		return 0, errors.Wrap(err, "getforkheight")
	}

	return height, nil
}

func (c *RPCClient) AddMintTemplate(ctx context.Context, spentAddress string, pledgeFee decimal.Decimal) (string, error) {
	return c.addNewTemplate(ctx, &addNewTemplateParams{
		Type: MintTemplateType,
		Mint: &MintTemplate{Spent: spentAddress, PledgeFee: amountNumber(pledgeFee)},
	})
}

func (c *RPCClient) AddMintPledgeTemplate(ctx context.Context, owner string, powMint string, rewardMode int) (string, error) {
	return c.addNewTemplate(ctx, &addNewTemplateParams{
		Type:       MintPledgeTemplateType,
		MintPledge: &MintPledgeTemplate{Owner: owner, PowMint: powMint, RewardMode: rewardMode},
	})
}

func (c *RPCClient) AddMintRedeemTemplate(ctx context.Context, owner string, nonce int64) (string, error) {
	return c.addNewTemplate(ctx, &addNewTemplateParams{
		Type:       MintRedeemTemplateType,
		MintRedeem: &MintRedeemTemplate{Owner: owner, Nonce: nonce},
	})
}

func (c *RPCClient) addNewTemplate(ctx context.Context, params *addNewTemplateParams) (string, error) {
	var address string
	if err := c.request(ctx, "addnewtemplate", *params, &address); err != nil {
		return "", errors.Wrapf(err, "addnewtemplate %s", params.Type)
	}

	return address, nil
}

func (c *RPCClient) SendFrom(ctx context.Context, from string, to string, amount decimal.Decimal) (string, error) {
	var txID string
	err := c.request(ctx, "sendfrom", sendFromParams{
		From:   from,
		To:     to,
		Amount: amountNumber(amount),
	}, &txID)
	if err == nil {
		return txID, nil
	}

	err = transferError(err)
	if c.policy == TolerantTransferPolicy && errors.Is(err, ErrInsufficientFunds) {
		logger.Warn("sendfrom: transfer skipped",
			zap.String("from", from),
			zap.String("to", to),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return NoTxID, nil
	}

	return NoTxID, errors.Wrapf(err, "sendfrom %s -> %s", from, to)
}

func transferError(err error) error {
	jerr, ok := rpcError(err)
	if !ok {
		return err
	}

	message := strings.ToLower(jerr.Message)
	if int(jerr.Code) == insufficientFundsCode ||
		strings.Contains(message, "insufficient") ||
		strings.Contains(message, "not enough") {
		return errors.Wrap(ErrInsufficientFunds, jerr.Message)
	}

	return errors.Wrap(ErrTransfer, jerr.Message)
}

func rpcError(err error) (jsonrpc2.Error, bool) {
	var jerr jsonrpc2.Error
	if errors.As(err, &jerr) {
		return jerr, true
	}

	var pjerr *jsonrpc2.Error
	if errors.As(err, &pjerr) && pjerr != nil {
		return *pjerr, true
	}

	return jsonrpc2.Error{}, false
}
