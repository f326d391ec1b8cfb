package site

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pressroom/models"
)

func TestSitemap_ListsOnlyPublished(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	require.NoError(t, db.Create(&models.Post{Title: "a", Slug: "live-post", Excerpt: "e", IsPublished: true}).Error)
	require.NoError(t, db.Create(&models.Post{Title: "b", Slug: "draft-post", Excerpt: "e"}).Error)
	require.NoError(t, db.Create(&models.Page{Title: "About", Slug: "about", IsPublished: true}).Error)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSiteModule(db, "https://example.com").RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/sitemap.xml", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<loc>https://example.com/post/live-post/</loc>")
	assert.Contains(t, body, "<loc>https://example.com/page/about/</loc>")
	assert.NotContains(t, body, "draft-post")
}
