package storage

import (
	"github.com/mamchain/mamio/internal/logger"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(configuration Configuration) (*GormStorage, error) {

	logger.Debug("initializing database...", zap.String("driver", configuration.Driver))

	var dialector gorm.Dialector
	switch configuration.Driver {
	case SqliteDriver:
		dialector = sqlite.Open(configuration.DSN)
	case MysqlDriver:
		dialector = mysql.Open(configuration.DSN)
	default:
		return nil, errors.Errorf("unsupported database driver %q", configuration.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	err = db.AutoMigrate(
		&PowMint{},
		&UserKey{},
		&Vote{},
	)
	if err != nil {
		return nil, errors.Wrap(err, "migrate database")
	}

	logger.Debug("initializing database... done")
	return &GormStorage{
		db: db,
	}, nil
}

func (s *GormStorage) GetPowMints() ([]*PowMint, error) {

	var powMints []*PowMint
	err := s.db.Order("spentaddress").Find(&powMints).Error
	if err != nil {
		return nil, err
	}

	return powMints, nil
}

func (s *GormStorage) CountPowMints() (int64, error) {

	var count int64
	err := s.db.Model(&PowMint{}).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (s *GormStorage) InsertPowMint(powMint *PowMint) error {
	logger.Debug("inserting pow mint...", zap.String("spent address", powMint.SpentAddress))

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spentaddress"}},
		DoUpdates: clause.AssignmentColumns([]string{"powaddress", "pledgefee", "spentprivkey"}),
	}).Create(powMint).Error
	if err != nil {
		return err
	}

	logger.Debug("inserting pow mint... done")
	return nil
}

func (s *GormStorage) GetUserKeys() ([]*UserKey, error) {

	var userKeys []*UserKey
	err := s.db.Order("weight").Find(&userKeys).Error
	if err != nil {
		return nil, err
	}

	return userKeys, nil
}

func (s *GormStorage) InsertUserKey(userKey *UserKey) error {
	logger.Debug("inserting user key...", zap.String("address", userKey.Address))

	err := s.db.Create(userKey).Error
	if err != nil {
		return err
	}

	logger.Debug("inserting user key... done")
	return nil
}

func (s *GormStorage) DeleteUserKeys() (int64, error) {
	logger.Debug("deleting user keys...")

	tx := s.db.Where("1 = 1").Delete(&UserKey{})
	if tx.Error != nil {
		return 0, tx.Error
	}

	logger.Debug("deleting user keys... done", zap.Int64("count", tx.RowsAffected))
	return tx.RowsAffected, nil
}

func (s *GormStorage) GetVotes() ([]*Vote, error) {

	var votes []*Vote
	err := s.db.Order("voteaddress").Find(&votes).Error
	if err != nil {
		return nil, err
	}

	return votes, nil
}

// GetVoteByOwner returns nil without error when owner has not pledged yet.
func (s *GormStorage) GetVoteByOwner(owner string) (*Vote, error) {

	var vote Vote
	err := s.db.Where("owner = ?", owner).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &vote, nil
}

func (s *GormStorage) CountVotes() (int64, error) {

	var count int64
	err := s.db.Model(&Vote{}).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (s *GormStorage) InsertVote(vote *Vote) error {
	logger.Debug("inserting vote...", zap.String("vote address", vote.VoteAddress))

	err := s.db.Create(vote).Error
	if err != nil {
		return err
	}

	logger.Debug("inserting vote... done")
	return nil
}

func (s *GormStorage) UpdateVoteSchedule(voteAddress string, nextRedeemTime int64, nextVoteTime int64) error {

	err := s.db.Model(&Vote{}).
		Where("voteaddress = ?", voteAddress).
		Updates(map[string]interface{}{
			"nextredeemtime": nextRedeemTime,
			"nextvotetime":   nextVoteTime,
		}).Error
	if err != nil {
		return err
	}

	return nil
}

func (s *GormStorage) UpdateVoteNextVoteTime(voteAddress string, nextVoteTime int64) error {

	err := s.db.Model(&Vote{}).
		Where("voteaddress = ?", voteAddress).
		Update("nextvotetime", nextVoteTime).Error
	if err != nil {
		return err
	}

	return nil
}

func (s *GormStorage) UpdateVoteAmount(voteAddress string, amount decimal.Decimal) error {

	err := s.db.Model(&Vote{}).
		Where("voteaddress = ?", voteAddress).
		Update("amount", amount).Error
	if err != nil {
		return err
	}

	return nil
}

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
