package devserver

import (
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// connect opens the dev database. With no DSN configured an in-memory SQLite
// database is used so the server runs with zero setup; a postgres DSN switches
// to a real database.
func connect(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var db *gorm.DB
	var err error
	if dsn == "" {
		db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
	} else {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	}
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&ProfileRow{},
		&PostRow{},
		&CommentRow{},
		&ClubRow{},
		&ClubMemberRow{},
		&FollowRow{},
		&ObjectRow{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
