// Package blog serves the public, read-only side of the site.
package blog

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressroom/analytics"
	"pressroom/logger"
	"pressroom/models"
	"pressroom/publication"
)

const setupKey = "site_setup"

type BlogModule struct {
	db     *gorm.DB
	posts  *publication.Service
	visits *analytics.AnalyticsModule
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // editor output is HTML
	),
)

// NewBlogModule wires the public routes. visits may be nil.
func NewBlogModule(db *gorm.DB, posts *publication.Service, visits *analytics.AnalyticsModule) *BlogModule {
	return &BlogModule{db: db, posts: posts, visits: visits}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	public := router.Group("/", b.siteContext())
	{
		public.GET("/", b.index)
		public.GET("/post/:slug/", b.post)
		public.GET("/page/:slug/", b.page)
		public.GET("/created_by/:author_id/", b.createdBy)
		public.GET("/category/:slug/", b.category)
		public.GET("/tag/:slug/", b.tag)
		public.GET("/search/", b.search)
	}
	router.NoRoute(b.siteContext(), func(c *gin.Context) {
		b.notFound(c)
	})
}

// siteContext loads the site setup and its menu once per request.
func (b *BlogModule) siteContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		var setup models.SiteSetup
		err := b.db.WithContext(c.Request.Context()).
			Preload("MenuLinks", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
			Order("id ASC").
			First(&setup).Error
		switch {
		case err == nil:
			c.Set(setupKey, &setup)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			logger.Log.Warn("load site setup", zap.Error(err))
		}
		c.Next()
	}
}

func (b *BlogModule) render(c *gin.Context, status int, name string, data gin.H) {
	if setup, ok := c.Get(setupKey); ok {
		data["setup"] = setup
	}
	c.HTML(status, name, data)
}

func (b *BlogModule) notFound(c *gin.Context) {
	b.render(c, http.StatusNotFound, "error.html", gin.H{
		"page_title": "Not found -",
		"status":     http.StatusNotFound,
		"error":      "The page you are looking for does not exist.",
	})
}

func (b *BlogModule) fail(c *gin.Context, err error) {
	if errors.Is(err, publication.ErrNotFound) {
		b.notFound(c)
		return
	}
	logger.Log.Error("public request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	b.render(c, http.StatusInternalServerError, "error.html", gin.H{
		"page_title": "Error -",
		"status":     http.StatusInternalServerError,
		"error":      "Something went wrong.",
	})
}

func pageNumber(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (b *BlogModule) list(c *gin.Context, f publication.Filter) {
	f.Page = pageNumber(c)
	result, err := b.posts.ListPosts(c.Request.Context(), f)
	if err != nil {
		b.fail(c, err)
		return
	}
	b.render(c, http.StatusOK, "index.html", gin.H{
		"page_title":   result.Title,
		"posts":        result,
		"search_value": result.Query,
	})
}

func (b *BlogModule) index(c *gin.Context) {
	b.list(c, publication.Filter{})
}

func (b *BlogModule) createdBy(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("author_id"), 10, 64)
	if err != nil {
		b.notFound(c)
		return
	}
	author := uint(id)
	b.list(c, publication.Filter{AuthorID: &author})
}

func (b *BlogModule) category(c *gin.Context) {
	b.list(c, publication.Filter{Category: c.Param("slug")})
}

func (b *BlogModule) tag(c *gin.Context) {
	b.list(c, publication.Filter{Tag: c.Param("slug")})
}

// search sends blank queries back to the home page.
func (b *BlogModule) search(c *gin.Context) {
	q := c.Query("q")
	if publication.SanitizeQuery(q) == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	b.list(c, publication.Filter{Search: true, Query: q})
}

func (b *BlogModule) post(c *gin.Context) {
	post, err := b.posts.GetPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		b.fail(c, err)
		return
	}
	b.visits.TrackVisit(c, post.ID)

	b.render(c, http.StatusOK, "post.html", gin.H{
		"page_title": publication.PostTitle(post),
		"post":       post,
		"content":    template.HTML(renderMarkdown(post.Content)),
	})
}

func (b *BlogModule) page(c *gin.Context) {
	page, err := b.posts.GetPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		b.fail(c, err)
		return
	}
	b.render(c, http.StatusOK, "page.html", gin.H{
		"page_title": publication.PageTitle(page),
		"page":       page,
		"content":    template.HTML(renderMarkdown(page.Content)),
	})
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// keep the page readable with the raw content
		return content
	}
	return buf.String()
}
