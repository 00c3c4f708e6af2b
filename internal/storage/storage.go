package storage

import "github.com/shopspring/decimal"

type Storage interface {
	// pow mint
	GetPowMints() ([]*PowMint, error)
	CountPowMints() (int64, error)
	InsertPowMint(powMint *PowMint) error

	// user key
	GetUserKeys() ([]*UserKey, error)
	InsertUserKey(userKey *UserKey) error
	DeleteUserKeys() (int64, error)

	// vote
	GetVotes() ([]*Vote, error)
	GetVoteByOwner(owner string) (*Vote, error)
	CountVotes() (int64, error)
	InsertVote(vote *Vote) error
	UpdateVoteSchedule(voteAddress string, nextRedeemTime int64, nextVoteTime int64) error
	UpdateVoteNextVoteTime(voteAddress string, nextVoteTime int64) error
	UpdateVoteAmount(voteAddress string, amount decimal.Decimal) error

	Close() error
}

type Driver = string

const (
	SqliteDriver Driver = "sqlite"
	MysqlDriver  Driver = "mysql"
)

type Configuration struct {
	Driver Driver `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}
