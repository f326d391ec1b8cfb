package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pressroom/models"
)

func (a *AdminModule) listPages(c *gin.Context) {
	var pages []models.Page
	a.list(c, &models.Page{}, &pages, pageList)
}

func (a *AdminModule) getPage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var page models.Page
	if err := a.db.First(&page, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *AdminModule) createPage(c *gin.Context) {
	a.savePage(c, &models.Page{}, http.StatusCreated)
}

func (a *AdminModule) updatePage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var page models.Page
	if err := a.db.First(&page, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	a.savePage(c, &page, http.StatusOK)
}

func (a *AdminModule) savePage(c *gin.Context, page *models.Page, status int) {
	formString(c, "title", &page.Title)
	formString(c, "slug", &page.Slug)
	formText(c, "content", &page.Content)
	if err := formBool(c, "is_published", &page.IsPublished); err != nil {
		badRequest(c, "is_published", err.Error())
		return
	}

	if _, err := a.content.SavePage(c.Request.Context(), page); err != nil {
		a.fail(c, err, page.ID)
		return
	}
	c.JSON(status, page)
}

func (a *AdminModule) deletePage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.content.DeletePage(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}
