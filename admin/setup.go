package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressroom/models"
)

// getSetup returns the site setup with its menu, and whether another one
// may be created.
func (a *AdminModule) getSetup(c *gin.Context) {
	var setup models.SiteSetup
	err := a.db.Preload("MenuLinks").Order("id ASC").First(&setup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"setup": nil, "can_add": true})
		return
	}
	if err != nil {
		a.fail(c, err, 0)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setup": setup, "can_add": false})
}

func (a *AdminModule) createSetup(c *gin.Context) {
	a.saveSetup(c, models.NewSiteSetup(), http.StatusCreated)
}

func (a *AdminModule) updateSetup(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var setup models.SiteSetup
	if err := a.db.First(&setup, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	a.saveSetup(c, &setup, http.StatusOK)
}

func (a *AdminModule) saveSetup(c *gin.Context, setup *models.SiteSetup, status int) {
	formString(c, "title", &setup.Title)
	formString(c, "description", &setup.Description)
	toggles := map[string]*bool{
		"show_header":      &setup.ShowHeader,
		"show_search":      &setup.ShowSearch,
		"show_menu":        &setup.ShowMenu,
		"show_description": &setup.ShowDescription,
		"show_pagination":  &setup.ShowPagination,
		"show_footer":      &setup.ShowFooter,
	}
	for key, dst := range toggles {
		if err := formBool(c, key, dst); err != nil {
			badRequest(c, key, err.Error())
			return
		}
	}
	if clear, _ := parseBool(c.PostForm("favicon_clear")); clear {
		setup.Favicon = ""
	}

	favicon, done, err := formUpload(c, "favicon")
	if err != nil {
		badRequest(c, "favicon", err.Error())
		return
	}
	defer done()

	if _, err := a.content.SaveSiteSetup(c.Request.Context(), setup, favicon); err != nil {
		a.fail(c, err, setup.ID)
		return
	}
	c.JSON(status, setup)
}

func (a *AdminModule) deleteSetup(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.content.DeleteSiteSetup(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *AdminModule) listMenuLinks(c *gin.Context) {
	var links []models.MenuLink
	a.list(c, &models.MenuLink{}, &links, menuLinkList)
}

func (a *AdminModule) createMenuLink(c *gin.Context) {
	a.saveMenuLink(c, &models.MenuLink{}, http.StatusCreated)
}

func (a *AdminModule) updateMenuLink(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var link models.MenuLink
	if err := a.db.First(&link, id).Error; err != nil {
		a.fail(c, err, id)
		return
	}
	a.saveMenuLink(c, &link, http.StatusOK)
}

func (a *AdminModule) saveMenuLink(c *gin.Context, link *models.MenuLink, status int) {
	formString(c, "text", &link.Text)
	formString(c, "url_or_path", &link.URLOrPath)
	if err := formBool(c, "new_tab", &link.NewTab); err != nil {
		badRequest(c, "new_tab", err.Error())
		return
	}
	if err := formOptionalID(c, "site_setup_id", &link.SiteSetupID); err != nil {
		badRequest(c, "site_setup_id", err.Error())
		return
	}

	if _, err := a.content.SaveMenuLink(c.Request.Context(), link); err != nil {
		a.fail(c, err, link.ID)
		return
	}
	c.JSON(status, link)
}

func (a *AdminModule) deleteMenuLink(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.content.DeleteMenuLink(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *AdminModule) listAttachments(c *gin.Context) {
	var attachments []models.PostAttachment
	a.list(c, &models.PostAttachment{}, &attachments, attachmentList)
}

// createAttachment takes the "file" upload of the rich text editor.
func (a *AdminModule) createAttachment(c *gin.Context) {
	var attachment models.PostAttachment
	formString(c, "name", &attachment.Name)

	file, done, err := formUpload(c, "file")
	if err != nil {
		badRequest(c, "file", err.Error())
		return
	}
	defer done()

	if _, err := a.content.SaveAttachment(c.Request.Context(), &attachment, file); err != nil {
		a.fail(c, err, attachment.ID)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attachment": attachment, "url": "/media/" + attachment.File})
}

func (a *AdminModule) deleteAttachment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.content.DeleteAttachment(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}
