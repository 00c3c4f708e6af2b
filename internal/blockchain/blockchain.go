package blockchain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	MintTemplateType       = "mint"
	MintPledgeTemplateType = "mintpledge"
	MintRedeemTemplateType = "mintredeem"
)

type KeyPair struct {
	PubKey  string `json:"pubkey"`
	PrivKey string `json:"privkey"`
}

type Balance struct {
	Fork        string          `json:"fork"`
	Avail       decimal.Decimal `json:"avail"`
	Locked      decimal.Decimal `json:"locked"`
	Unconfirmed decimal.Decimal `json:"unconfirmed"`
}

type MintTemplate struct {
	Spent     string      `json:"spent"`
	PledgeFee json.Number `json:"pledgefee"`
}

type MintPledgeTemplate struct {
	Owner      string `json:"owner"`
	PowMint    string `json:"powmint"`
	RewardMode int    `json:"rewardmode"`
}

type MintRedeemTemplate struct {
	Owner string `json:"owner"`
	Nonce int64  `json:"nonce"`
}

type addNewTemplateParams struct {
	Type       string              `json:"type"`
	Mint       *MintTemplate       `json:"mint,omitempty"`
	MintPledge *MintPledgeTemplate `json:"mintpledge,omitempty"`
	MintRedeem *MintRedeemTemplate `json:"mintredeem,omitempty"`
}

type getPubKeyAddressParams struct {
	PubKey string `json:"pubkey"`
}

type importPrivKeyParams struct {
	PrivKey    string `json:"privkey"`
	Passphrase string `json:"passphrase"`
	SyncTx     bool   `json:"synctx"`
}

type unlockKeyParams struct {
	PubKey     string `json:"pubkey"`
	Passphrase string `json:"passphrase"`
}

type getBalanceParams struct {
	Address string `json:"address,omitempty"`
}

type getForkHeightParams struct {
	Fork string `json:"fork,omitempty"`
}

type sendFromParams struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount json.Number `json:"amount"`
	Type   int         `json:"type"`
}

// Coin precision of the ledger, amounts carry at most six decimals.
const amountPlaces = 6

func amountNumber(amount decimal.Decimal) json.Number {
	return json.Number(amount.Round(amountPlaces).String())
}
