package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studytrails/trails-service/internal/config"
	"github.com/studytrails/trails-service/internal/models"
)

// InitDatabase opens the PostgreSQL connection and migrates the
// schema.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLevel := logger.Warn
	if cfg.Environment == "development" {
		gormLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access underlying connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Trail{},
		&models.TrailModule{},
		&models.Enrollment{},
		&models.QuizQuestion{},
		&models.ModuleAttempt{},
		&models.StudentAnswer{},
		&models.ProjectSubmission{},
		&models.ProjectReview{},
		&models.StudentProfile{},
		&models.Achievement{},
		&models.StudentAchievement{},
		&models.Certificate{},
		&models.Notification{},
	)
}
