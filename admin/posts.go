package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pressroom/models"
)

func (a *AdminModule) listPosts(c *gin.Context) {
	var posts []models.Post
	a.list(c, &models.Post{}, &posts, postList)
}

func (a *AdminModule) loadPost(c *gin.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := a.db.WithContext(c.Request.Context()).
		Preload("Tags").
		Preload("Category").
		Preload("CreatedBy").
		Preload("UpdatedBy").
		First(&post, id).Error
	return &post, err
}

// getPost includes the read-only audit trail, the public link and the
// visit count.
func (a *AdminModule) getPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	post, err := a.loadPost(c, id)
	if err != nil {
		a.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post":   post,
		"link":   "/post/" + post.Slug + "/",
		"visits": a.analytics.GetPostVisitCount(post.ID),
	})
}

func (a *AdminModule) createPost(c *gin.Context) {
	post := models.NewPost()
	uid := currentUserID(c)
	post.CreatedByID = &uid
	a.savePost(c, post, http.StatusCreated)
}

func (a *AdminModule) updatePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	post, err := a.loadPost(c, id)
	if err != nil {
		a.fail(c, err, id)
		return
	}
	uid := currentUserID(c)
	post.UpdatedByID = &uid
	a.savePost(c, post, http.StatusOK)
}

func (a *AdminModule) savePost(c *gin.Context, post *models.Post, status int) {
	formString(c, "title", &post.Title)
	formString(c, "slug", &post.Slug)
	formString(c, "excerpt", &post.Excerpt)
	formText(c, "content", &post.Content)
	if err := formBool(c, "is_published", &post.IsPublished); err != nil {
		badRequest(c, "is_published", err.Error())
		return
	}
	if err := formBool(c, "cover_in_post_content", &post.CoverInPostContent); err != nil {
		badRequest(c, "cover_in_post_content", err.Error())
		return
	}
	if err := formOptionalID(c, "category_id", &post.CategoryID); err != nil {
		badRequest(c, "category_id", err.Error())
		return
	}
	if clear, _ := parseBool(c.PostForm("cover_clear")); clear {
		post.Cover = ""
	}

	tagIDs, hasTags, err := formIDs(c, "tags")
	if err != nil {
		badRequest(c, "tags", err.Error())
		return
	}
	if hasTags {
		tagIDs = dedupe(tagIDs)
		tags, err := a.findTags(c, tagIDs)
		if err != nil {
			a.fail(c, err, post.ID)
			return
		}
		if len(tags) != len(tagIDs) {
			badRequest(c, "tags", "unknown tag id")
			return
		}
		post.Tags = tags
	}
	if post.CategoryID != nil {
		var n int64
		a.db.Model(&models.Category{}).Where("id = ?", *post.CategoryID).Count(&n)
		if n == 0 {
			badRequest(c, "category_id", "unknown category")
			return
		}
	}

	cover, done, err := formUpload(c, "cover")
	if err != nil {
		badRequest(c, "cover", err.Error())
		return
	}
	defer done()

	if _, err := a.content.SavePost(c.Request.Context(), post, cover); err != nil {
		a.fail(c, err, post.ID)
		return
	}
	c.JSON(status, post)
}

func (a *AdminModule) findTags(c *gin.Context, ids []uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	err := a.db.WithContext(c.Request.Context()).Where("id IN ?", ids).Find(&tags).Error
	return tags, err
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (a *AdminModule) deletePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.content.DeletePost(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}

// bulkPublishPosts sets is_published on every post in ids, going through
// the save pipeline so audit fields and hooks behave as for a single save.
func (a *AdminModule) bulkPublishPosts(c *gin.Context) {
	ids, published, ok := bulkForm(c)
	if !ok {
		return
	}
	uid := currentUserID(c)

	var posts []models.Post
	if err := a.db.Preload("Tags").Where("id IN ?", ids).Find(&posts).Error; err != nil {
		a.fail(c, err, 0)
		return
	}
	for i := range posts {
		posts[i].IsPublished = published
		posts[i].UpdatedByID = &uid
		if _, err := a.content.SavePost(c.Request.Context(), &posts[i], nil); err != nil {
			a.fail(c, err, posts[i].ID)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(posts)})
}

func (a *AdminModule) bulkPublishPages(c *gin.Context) {
	ids, published, ok := bulkForm(c)
	if !ok {
		return
	}

	var pages []models.Page
	if err := a.db.Where("id IN ?", ids).Find(&pages).Error; err != nil {
		a.fail(c, err, 0)
		return
	}
	for i := range pages {
		pages[i].IsPublished = published
		if _, err := a.content.SavePage(c.Request.Context(), &pages[i]); err != nil {
			a.fail(c, err, pages[i].ID)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(pages)})
}

func bulkForm(c *gin.Context) ([]uint, bool, bool) {
	ids, _, err := formIDs(c, "ids")
	if err != nil || len(ids) == 0 {
		badRequest(c, "ids", "at least one id is required")
		return nil, false, false
	}
	published, err := parseBool(c.PostForm("is_published"))
	if err != nil {
		badRequest(c, "is_published", err.Error())
		return nil, false, false
	}
	return ids, published, true
}
