package imitator

import "github.com/shopspring/decimal"

// Network fee charged by the ledger for every transfer.
var TxFee = decimal.RequireFromString("0.01")

// Balances at or below the dust threshold of a pow mint address are left in
// place; sweeps keep the threshold as a reserve.
var PowSweepThreshold = decimal.NewFromInt(1)

const (
	RewardMode  = 1
	RedeemNonce = 1

	PledgeAmountMin = 100
	PledgeAmountMax = 300

	// seconds until the next redeem becomes eligible
	RedeemDelayMin = 30
	RedeemDelayMax = 1800

	// seconds until the next re-pledge becomes eligible
	VoteDelayMin = 180
	VoteDelayMax = 900

	UserWeightMax = 10000

	UserKeyFundAmount = 200

	probeRetries = 5
)
