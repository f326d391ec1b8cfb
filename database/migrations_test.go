package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pressroom/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db))
	return db
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"users", "tags", "categories", "pages", "posts", "post_tags", "post_attachments", "site_setups", "menu_links"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSeedAdmin(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SeedAdmin(db, "admin", "changeme"))
	require.NoError(t, SeedAdmin(db, "other", "changeme"))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.True(t, users[0].IsStaff)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("changeme")))
}

func TestSeedAdmin_SkippedWithoutCredentials(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SeedAdmin(db, "", ""))

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
}

func TestRunMigrations_BackfillsSearchText(t *testing.T) {
	db := setupTestDB(t)
	post := models.Post{Title: "ÉCOLE", Slug: "ecole", Excerpt: "e"}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Model(&post).UpdateColumn("search_text", "").Error)

	require.NoError(t, RunMigrations(db))

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, "école\ne\n", got.SearchText)
}
