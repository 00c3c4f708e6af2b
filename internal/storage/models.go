package storage

import "github.com/shopspring/decimal"

type PowMint struct {
	SpentAddress string          `gorm:"column:spentaddress;primaryKey;size:128"`
	PowAddress   string          `gorm:"column:powaddress;size:128"`
	PledgeFee    decimal.Decimal `gorm:"column:pledgefee;type:decimal(20,6);not null"`
	SpentPrivKey string          `gorm:"column:spentprivkey;size:128;not null"`
}

func (PowMint) TableName() string { return "powmint" }

type UserKey struct {
	Address string `gorm:"column:address;primaryKey;size:128"`
	PrivKey string `gorm:"column:privkey;size:128"`
	PubKey  string `gorm:"column:pubkey;size:128"`
	Weight  int    `gorm:"column:weight;default:0"`
}

func (UserKey) TableName() string { return "userkey" }

// Vote is a pledge of Owner against PowMint held at VoteAddress. A zero
// NextVoteTime means the re-pledge timer is not armed yet.
type Vote struct {
	VoteAddress    string          `gorm:"column:voteaddress;primaryKey;size:128"`
	Owner          string          `gorm:"column:owner;size:128;index"`
	PowMint        string          `gorm:"column:powmint;size:128"`
	RewardMode     int             `gorm:"column:rewardmode;not null"`
	OwnerPrivKey   string          `gorm:"column:ownerprivkey;size:128"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(20,6);default:0"`
	NextRedeemTime int64           `gorm:"column:nextredeemtime;default:0"`
	NextVoteTime   int64           `gorm:"column:nextvotetime;default:0"`
}

func (Vote) TableName() string { return "vote" }
