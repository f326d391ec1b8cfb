// Package site serves the sitemap of everything publicly visible.
package site

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressroom/logger"
	"pressroom/models"
	"pressroom/publication"
)

type SiteModule struct {
	db     *gorm.DB
	domain string
}

func NewSiteModule(db *gorm.DB, domain string) *SiteModule {
	if domain == "" {
		domain = "http://localhost:8080"
	}
	return &SiteModule{db: db, domain: domain}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/sitemap.xml", s.sitemap)
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

func (s *SiteModule) sitemap(c *gin.Context) {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, urlEntry{Loc: s.domain + "/", ChangeFreq: "daily", Priority: "1.0"})

	var posts []models.Post
	err := publication.Published().Apply(s.db.WithContext(c.Request.Context())).
		Order("posts.id DESC").
		Find(&posts).Error
	if err != nil {
		logger.Log.Error("sitemap posts", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        s.domain + "/post/" + p.Slug + "/",
			LastMod:    p.UpdatedAt.Format(time.RFC3339),
			ChangeFreq: "monthly",
			Priority:   "0.6",
		})
	}

	var pages []models.Page
	if err := s.db.WithContext(c.Request.Context()).Where("is_published = ?", true).Find(&pages).Error; err != nil {
		logger.Log.Error("sitemap pages", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	for _, p := range pages {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        s.domain + "/page/" + p.Slug + "/",
			LastMod:    p.UpdatedAt.Format(time.RFC3339),
			ChangeFreq: "monthly",
			Priority:   "0.5",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
