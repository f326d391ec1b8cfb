package content

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pressroom/models"
)

func (p *Pipeline) SaveTag(ctx context.Context, tag *models.Tag) (Outcome, error) {
	out := Outcome{State: Unsaved}
	if err := p.validate("tag", tag); err != nil {
		return out, err
	}
	if err := p.checkSlugFree(ctx, "tag", &models.Tag{}, tag.ID, tag.Slug); err != nil {
		return out, err
	}

	resolveSlug("tag", &tag.Slug, tag.Name)
	out.State = SlugResolved

	if err := p.persist(ctx, "tag", derivative{}, nil, nil, func(tx *gorm.DB) error {
		return tx.Save(tag).Error
	}); err != nil {
		return out, err
	}
	out.State = Persisted
	return out, nil
}

func (p *Pipeline) SaveCategory(ctx context.Context, category *models.Category) (Outcome, error) {
	out := Outcome{State: Unsaved}
	if err := p.validate("category", category); err != nil {
		return out, err
	}
	if err := p.checkSlugFree(ctx, "category", &models.Category{}, category.ID, category.Slug); err != nil {
		return out, err
	}

	resolveSlug("category", &category.Slug, category.Name)
	out.State = SlugResolved

	if err := p.persist(ctx, "category", derivative{}, nil, nil, func(tx *gorm.DB) error {
		return tx.Save(category).Error
	}); err != nil {
		return out, err
	}
	out.State = Persisted
	return out, nil
}

func (p *Pipeline) SavePage(ctx context.Context, page *models.Page) (Outcome, error) {
	out := Outcome{State: Unsaved}
	if err := p.validate("page", page); err != nil {
		return out, err
	}
	if err := p.checkSlugFree(ctx, "page", &models.Page{}, page.ID, page.Slug); err != nil {
		return out, err
	}

	resolveSlug("page", &page.Slug, page.Title)
	out.State = SlugResolved

	if err := p.persist(ctx, "page", derivative{}, nil, nil, func(tx *gorm.DB) error {
		return tx.Save(page).Error
	}); err != nil {
		return out, err
	}
	out.State = Persisted
	return out, nil
}

// SavePost writes post and replaces its tag set with post.Tags. cover, when
// non-nil, becomes the new cover image. created_by/updated_by are the
// caller's business.
func (p *Pipeline) SavePost(ctx context.Context, post *models.Post, cover *Upload) (Outcome, error) {
	out := Outcome{State: Unsaved}
	if err := p.validate("post", post); err != nil {
		return out, err
	}
	if err := p.checkSlugFree(ctx, "post", &models.Post{}, post.ID, post.Slug); err != nil {
		return out, err
	}

	resolveSlug("post", &post.Slug, post.Title)
	out.State = SlugResolved

	before := post.Cover
	if err := p.persist(ctx, "post", coverDerivative, &post.Cover, cover, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		tags := post.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		return tx.Model(post).Association("Tags").Replace(tags)
	}); err != nil {
		post.Cover = before
		return out, err
	}
	out.State = Persisted

	return out, p.refreshDerivative("post", post.ID, coverDerivative, before, post.Cover, &out)
}

// SaveAttachment stores an editor upload. A blank name defaults to the
// stored file name.
func (p *Pipeline) SaveAttachment(ctx context.Context, attachment *models.PostAttachment, file *Upload) (Outcome, error) {
	out := Outcome{State: Unsaved}
	if err := p.validate("attachment", attachment); err != nil {
		return out, err
	}
	if attachment.ID == 0 && file == nil {
		return out, &ValidationError{Entity: "attachment", Fields: fieldError("file", "file_required", "a file is required")}
	}
	out.State = SlugResolved

	before := attachment.File
	if err := p.persist(ctx, "attachment", attachmentDerivative, &attachment.File, file, func(tx *gorm.DB) error {
		if attachment.Name == "" {
			attachment.Name = attachment.File
		}
		return tx.Save(attachment).Error
	}); err != nil {
		attachment.File = before
		return out, err
	}
	out.State = Persisted

	return out, p.refreshDerivative("attachment", attachment.ID, attachmentDerivative, before, attachment.File, &out)
}

// SaveSiteSetup refuses to create a second setup record. Menu links are
// saved through SaveMenuLink.
func (p *Pipeline) SaveSiteSetup(ctx context.Context, setup *models.SiteSetup, favicon *Upload) (Outcome, error) {
	out := Outcome{State: Unsaved}
	if setup.ID == 0 {
		exists, err := p.SiteSetupExists(ctx)
		if err != nil {
			return out, err
		}
		if exists {
			return out, ErrSiteSetupExists
		}
	}
	if favicon != nil {
		// the stored name keeps the upload's extension
		probe := *setup
		probe.Favicon = favicon.Filename
		if err := p.validate("site_setup", &probe); err != nil {
			return out, err
		}
	} else if err := p.validate("site_setup", setup); err != nil {
		return out, err
	}

	out.State = SlugResolved

	before := setup.Favicon
	if err := p.persist(ctx, "site_setup", faviconDerivative, &setup.Favicon, favicon, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Save(setup).Error
	}); err != nil {
		setup.Favicon = before
		return out, err
	}
	out.State = Persisted

	return out, p.refreshDerivative("site_setup", setup.ID, faviconDerivative, before, setup.Favicon, &out)
}

func (p *Pipeline) SiteSetupExists(ctx context.Context) (bool, error) {
	var n int64
	if err := p.db.WithContext(ctx).Model(&models.SiteSetup{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *Pipeline) SaveMenuLink(ctx context.Context, link *models.MenuLink) (Outcome, error) {
	out := Outcome{State: Unsaved}
	if err := p.validate("menu_link", link); err != nil {
		return out, err
	}
	if link.SiteSetupID != nil {
		var n int64
		if err := p.db.WithContext(ctx).Model(&models.SiteSetup{}).Where("id = ?", *link.SiteSetupID).Count(&n).Error; err != nil {
			return out, err
		}
		if n == 0 {
			return out, &ValidationError{Entity: "menu_link", Fields: fieldError("site_setup_id", "unknown_site_setup", "site setup does not exist")}
		}
	}
	out.State = SlugResolved

	if err := p.persist(ctx, "menu_link", derivative{}, nil, nil, func(tx *gorm.DB) error {
		return tx.Save(link).Error
	}); err != nil {
		return out, err
	}
	out.State = Persisted
	return out, nil
}

func (p *Pipeline) DeleteTag(ctx context.Context, id uint) error {
	return p.remove(ctx, "tag", func(tx *gorm.DB) (int64, error) {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
			return 0, err
		}
		res := tx.Delete(&models.Tag{}, id)
		return res.RowsAffected, res.Error
	})
}

// DeleteCategory detaches the category from its posts before removing it.
func (p *Pipeline) DeleteCategory(ctx context.Context, id uint) error {
	return p.remove(ctx, "category", func(tx *gorm.DB) (int64, error) {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return 0, err
		}
		res := tx.Delete(&models.Category{}, id)
		return res.RowsAffected, res.Error
	})
}

func (p *Pipeline) DeletePage(ctx context.Context, id uint) error {
	return p.remove(ctx, "page", func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(&models.Page{}, id)
		return res.RowsAffected, res.Error
	})
}

func (p *Pipeline) DeletePost(ctx context.Context, id uint) error {
	return p.remove(ctx, "post", func(tx *gorm.DB) (int64, error) {
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", id).Error; err != nil {
			return 0, err
		}
		res := tx.Delete(&models.Post{}, id)
		return res.RowsAffected, res.Error
	})
}

func (p *Pipeline) DeleteAttachment(ctx context.Context, id uint) error {
	return p.remove(ctx, "attachment", func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(&models.PostAttachment{}, id)
		return res.RowsAffected, res.Error
	})
}

func (p *Pipeline) DeleteMenuLink(ctx context.Context, id uint) error {
	return p.remove(ctx, "menu_link", func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(&models.MenuLink{}, id)
		return res.RowsAffected, res.Error
	})
}

// DeleteSiteSetup removes the setup together with its menu links.
func (p *Pipeline) DeleteSiteSetup(ctx context.Context, id uint) error {
	return p.remove(ctx, "site_setup", func(tx *gorm.DB) (int64, error) {
		if err := tx.Where("site_setup_id = ?", id).Delete(&models.MenuLink{}).Error; err != nil {
			return 0, err
		}
		res := tx.Delete(&models.SiteSetup{}, id)
		return res.RowsAffected, res.Error
	})
}

// DeleteUser clears the user from the audit columns of every post first.
func (p *Pipeline) DeleteUser(ctx context.Context, id uint) error {
	return p.remove(ctx, "user", func(tx *gorm.DB) (int64, error) {
		if err := tx.Model(&models.Post{}).Where("created_by_id = ?", id).Update("created_by_id", nil).Error; err != nil {
			return 0, err
		}
		if err := tx.Model(&models.Post{}).Where("updated_by_id = ?", id).Update("updated_by_id", nil).Error; err != nil {
			return 0, err
		}
		res := tx.Delete(&models.User{}, id)
		return res.RowsAffected, res.Error
	})
}

func (p *Pipeline) remove(ctx context.Context, entity string, del func(tx *gorm.DB) (int64, error)) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := del(tx)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	p.changed()
	return nil
}
