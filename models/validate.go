package models

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pressroom/images"
)

// Field limits, counted in characters.
const (
	MaxNameLength        = 255
	MaxSlugLength        = 255
	MaxTitleLength       = 65
	MaxExcerptLength     = 150
	MaxDescriptionLength = 255
	MaxMenuTextLength    = 50
	MaxURLOrPathLength   = 2048
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// slugRules accept a blank slug; the save pipeline fills it in afterwards.
func slugRules() []validation.Rule {
	return []validation.Rule{
		validation.RuneLength(0, MaxSlugLength).Error("slug_too_long"),
		validation.Match(slugPattern).Error("invalid_slug_format"),
	}
}

func (t *Tag) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Name,
			validation.Required.Error("name_required"),
			validation.RuneLength(0, MaxNameLength).Error("name_too_long"),
		),
		validation.Field(&t.Slug, slugRules()...),
	)
}

func (c *Category) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name,
			validation.Required.Error("name_required"),
			validation.RuneLength(0, MaxNameLength).Error("name_too_long"),
		),
		validation.Field(&c.Slug, slugRules()...),
	)
}

func (p *Page) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title,
			validation.Required.Error("title_required"),
			validation.RuneLength(0, MaxTitleLength).Error("title_too_long"),
		),
		validation.Field(&p.Slug, slugRules()...),
	)
}

func (p *Post) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title,
			validation.Required.Error("title_required"),
			validation.RuneLength(0, MaxTitleLength).Error("title_too_long"),
		),
		validation.Field(&p.Slug, slugRules()...),
		validation.Field(&p.Excerpt,
			validation.Required.Error("excerpt_required"),
			validation.RuneLength(0, MaxExcerptLength).Error("excerpt_too_long"),
		),
	)
}

func (a *PostAttachment) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.RuneLength(0, MaxNameLength).Error("name_too_long")),
	)
}

func (m *MenuLink) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Text,
			validation.Required.Error("text_required"),
			validation.RuneLength(0, MaxMenuTextLength).Error("text_too_long"),
		),
		validation.Field(&m.URLOrPath,
			validation.Required.Error("url_or_path_required"),
			validation.RuneLength(0, MaxURLOrPathLength).Error("url_or_path_too_long"),
		),
	)
}

func (s *SiteSetup) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Title,
			validation.Required.Error("title_required"),
			validation.RuneLength(0, MaxTitleLength).Error("title_too_long"),
		),
		validation.Field(&s.Description,
			validation.Required.Error("description_required"),
			validation.RuneLength(0, MaxDescriptionLength).Error("description_too_long"),
		),
		validation.Field(&s.Favicon, validation.By(pngRule)),
	)
}

func pngRule(value interface{}) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	return images.ValidatePNG(name)
}
