package database

import (
	"hackreg/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the Postgres connection and migrates the schema. The handle
// is returned rather than kept in a package global so services receive it
// as a dependency and tests can substitute their own.
//
// TranslateError makes unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the services reinterpret as conflicts.
func Init(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Team{}, &models.User{}); err != nil {
		return nil, err
	}

	return db, nil
}
