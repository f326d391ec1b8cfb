package database

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pressroom/logger"
	"pressroom/models"
)

func RunMigrations(db *gorm.DB) error {
	logger.Log.Info("running database migrations")

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Log.Error("migrations failed", zap.Error(err))
		return err
	}

	if err := backfillSearchText(db); err != nil {
		logger.Log.Error("search text backfill failed", zap.Error(err))
		return err
	}

	logger.Log.Info("migrations completed")
	return nil
}

// backfillSearchText fills the search column for posts written before it
// existed.
func backfillSearchText(db *gorm.DB) error {
	var posts []models.Post
	if err := db.Where("search_text IS NULL OR search_text = ''").Find(&posts).Error; err != nil {
		return err
	}
	for i := range posts {
		p := &posts[i]
		if err := db.Model(p).UpdateColumn("search_text", p.BuildSearchText()).Error; err != nil {
			return fmt.Errorf("backfill post %d: %w", p.ID, err)
		}
	}
	if len(posts) > 0 {
		logger.Log.Info("search text backfilled", zap.Int("posts", len(posts)))
	}
	return nil
}

// SeedAdmin creates the first staff user when no user exists yet. Empty
// credentials skip seeding.
func SeedAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var existing models.User
	err := db.Order("id ASC").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user := models.User{Username: username, PasswordHash: string(hash), IsStaff: true}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Log.Info("admin user created", zap.String("username", username))
	return nil
}
