// Package admin is the authenticated JSON surface used by the editing UI.
// Requests are form or multipart posts; responses are JSON.
package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pressroom/analytics"
	"pressroom/content"
	"pressroom/logger"
	"pressroom/models"
)

const sessionUserKey = "user_id"

type AdminModule struct {
	db        *gorm.DB
	content   *content.Pipeline
	analytics *analytics.AnalyticsModule
}

func NewAdminModule(db *gorm.DB, pipeline *content.Pipeline, analyticsModule *analytics.AnalyticsModule) *AdminModule {
	return &AdminModule{
		db:        db,
		content:   pipeline,
		analytics: analyticsModule,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	router.POST("/admin/login", a.login)
	router.POST("/admin/logout", a.logout)

	adminGroup := router.Group("/admin")
	adminGroup.Use(a.requireAuth)
	{
		adminGroup.GET("/me", a.me)

		adminGroup.GET("/tags", a.listTags)
		adminGroup.POST("/tags", a.createTag)
		adminGroup.GET("/tags/:id", a.getTag)
		adminGroup.POST("/tags/:id", a.updateTag)
		adminGroup.DELETE("/tags/:id", a.deleteTag)

		adminGroup.GET("/categories", a.listCategories)
		adminGroup.POST("/categories", a.createCategory)
		adminGroup.GET("/categories/:id", a.getCategory)
		adminGroup.POST("/categories/:id", a.updateCategory)
		adminGroup.DELETE("/categories/:id", a.deleteCategory)

		adminGroup.GET("/pages", a.listPages)
		adminGroup.POST("/pages", a.createPage)
		adminGroup.POST("/pages/bulk-publish", a.bulkPublishPages)
		adminGroup.GET("/pages/:id", a.getPage)
		adminGroup.POST("/pages/:id", a.updatePage)
		adminGroup.DELETE("/pages/:id", a.deletePage)

		adminGroup.GET("/posts", a.listPosts)
		adminGroup.POST("/posts", a.createPost)
		adminGroup.POST("/posts/bulk-publish", a.bulkPublishPosts)
		adminGroup.GET("/posts/:id", a.getPost)
		adminGroup.POST("/posts/:id", a.updatePost)
		adminGroup.DELETE("/posts/:id", a.deletePost)

		adminGroup.GET("/attachments", a.listAttachments)
		adminGroup.POST("/attachments", a.createAttachment)
		adminGroup.DELETE("/attachments/:id", a.deleteAttachment)

		adminGroup.GET("/setup", a.getSetup)
		adminGroup.POST("/setup", a.createSetup)
		adminGroup.POST("/setup/:id", a.updateSetup)
		adminGroup.DELETE("/setup/:id", a.deleteSetup)

		adminGroup.GET("/menu-links", a.listMenuLinks)
		adminGroup.POST("/menu-links", a.createMenuLink)
		adminGroup.POST("/menu-links/:id", a.updateMenuLink)
		adminGroup.DELETE("/menu-links/:id", a.deleteMenuLink)

		adminGroup.GET("/users", a.listUsers)
		adminGroup.POST("/users", a.createUser)
		adminGroup.DELETE("/users/:id", a.deleteUser)

		adminGroup.GET("/analytics", a.visits)
	}
}

func (a *AdminModule) requireAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionUserKey).(uint)
	if !ok || userID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	c.Set("user_id", userID)
	c.Next()
}

func currentUserID(c *gin.Context) uint {
	id, _ := c.Get("user_id")
	uid, _ := id.(uint)
	return uid
}

func (a *AdminModule) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if !checkPasswordHash(password, user.PasswordHash) || !user.IsStaff {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		logger.Log.Error("save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
		return
	}

	logger.Log.Info("admin login", zap.Uint("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()
	c.Status(http.StatusNoContent)
}

func (a *AdminModule) me(c *gin.Context) {
	var user models.User
	if err := a.db.First(&user, currentUserID(c)).Error; err != nil {
		a.fail(c, err, 0)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// fail maps pipeline and storage errors to responses. id is reported when a
// derivative failed after the record was saved.
func (a *AdminModule) fail(c *gin.Context, err error, id uint) {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, content.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, content.ErrSiteSetupExists):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrDerivative):
		logger.Log.Error("image derivative", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record saved but image processing failed", "id": id})
	default:
		logger.Log.Error("admin request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
	_ = c.Error(err)
}

func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": gin.H{field: message}})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(id), true
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
