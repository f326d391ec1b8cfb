package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pressroom/models"
)

func (a *AdminModule) listTags(c *gin.Context) {
	var tags []models.Tag
	a.list(c, &models.Tag{}, &tags, tagList)
}

func (a *AdminModule) getTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var tag models.Tag
	if err := a.db.First(&tag, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (a *AdminModule) createTag(c *gin.Context) {
	var tag models.Tag
	formString(c, "name", &tag.Name)
	formString(c, "slug", &tag.Slug)

	if _, err := a.content.SaveTag(c.Request.Context(), &tag); err != nil {
		a.fail(c, err, tag.ID)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (a *AdminModule) updateTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var tag models.Tag
	if err := a.db.First(&tag, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	formString(c, "name", &tag.Name)
	formString(c, "slug", &tag.Slug)

	if _, err := a.content.SaveTag(c.Request.Context(), &tag); err != nil {
		a.fail(c, err, tag.ID)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (a *AdminModule) deleteTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.content.DeleteTag(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *AdminModule) listCategories(c *gin.Context) {
	var categories []models.Category
	a.list(c, &models.Category{}, &categories, categoryList)
}

func (a *AdminModule) getCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var category models.Category
	if err := a.db.First(&category, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (a *AdminModule) createCategory(c *gin.Context) {
	var category models.Category
	formString(c, "name", &category.Name)
	formString(c, "slug", &category.Slug)

	if _, err := a.content.SaveCategory(c.Request.Context(), &category); err != nil {
		a.fail(c, err, category.ID)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (a *AdminModule) updateCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var category models.Category
	if err := a.db.First(&category, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	formString(c, "name", &category.Name)
	formString(c, "slug", &category.Slug)

	if _, err := a.content.SaveCategory(c.Request.Context(), &category); err != nil {
		a.fail(c, err, category.ID)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (a *AdminModule) deleteCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.content.DeleteCategory(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}
