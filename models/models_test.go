package models

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	require.Error(t, err)
	errs, ok := err.(validation.Errors)
	require.True(t, ok, "expected validation.Errors, got %T", err)
	return errs
}

func TestPostValidate_TitleBoundary(t *testing.T) {
	post := &Post{Title: strings.Repeat("a", MaxTitleLength), Excerpt: "excerpt"}
	assert.NoError(t, post.Validate())

	post.Title += "a"
	errs := fieldErrors(t, post.Validate())
	assert.Contains(t, errs, "title")
}

func TestPostValidate_ExcerptBoundary(t *testing.T) {
	post := &Post{Title: "Title", Excerpt: strings.Repeat("e", MaxExcerptLength)}
	assert.NoError(t, post.Validate())

	post.Excerpt += "e"
	errs := fieldErrors(t, post.Validate())
	assert.Contains(t, errs, "excerpt")
}

func TestPostValidate_CountsCharactersNotBytes(t *testing.T) {
	post := &Post{Title: strings.Repeat("ã", MaxTitleLength), Excerpt: "x"}
	assert.NoError(t, post.Validate())
}

func TestPostValidate_Required(t *testing.T) {
	errs := fieldErrors(t, (&Post{}).Validate())
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "excerpt")
}

func TestPostValidate_Slug(t *testing.T) {
	post := &Post{Title: "t", Excerpt: "e", Slug: "has spaces"}
	errs := fieldErrors(t, post.Validate())
	assert.Contains(t, errs, "slug")

	post.Slug = ""
	assert.NoError(t, post.Validate())

	post.Slug = "ok-slug_1"
	assert.NoError(t, post.Validate())
}

func TestTagAndCategoryValidate_NameBoundary(t *testing.T) {
	tag := &Tag{Name: strings.Repeat("n", MaxNameLength)}
	assert.NoError(t, tag.Validate())
	tag.Name += "n"
	assert.Contains(t, fieldErrors(t, tag.Validate()), "name")

	cat := &Category{Name: strings.Repeat("n", MaxNameLength)}
	assert.NoError(t, cat.Validate())
	cat.Name += "n"
	assert.Contains(t, fieldErrors(t, cat.Validate()), "name")
}

func TestPageValidate_TitleBoundary(t *testing.T) {
	page := &Page{Title: strings.Repeat("p", MaxTitleLength)}
	assert.NoError(t, page.Validate())
	page.Title += "p"
	assert.Contains(t, fieldErrors(t, page.Validate()), "title")
}

func TestMenuLinkValidate(t *testing.T) {
	link := &MenuLink{Text: strings.Repeat("m", MaxMenuTextLength), URLOrPath: "/about/"}
	assert.NoError(t, link.Validate())

	link.Text += "m"
	link.URLOrPath = strings.Repeat("u", MaxURLOrPathLength+1)
	errs := fieldErrors(t, link.Validate())
	assert.Contains(t, errs, "text")
	assert.Contains(t, errs, "url_or_path")
}

func TestSiteSetupValidate_Favicon(t *testing.T) {
	setup := NewSiteSetup()
	setup.Title = "Site"
	setup.Description = "About the site"

	assert.NoError(t, setup.Validate())

	setup.Favicon = "assets/favicon/2024/01/icon.PNG"
	assert.NoError(t, setup.Validate())

	setup.Favicon = "assets/favicon/2024/01/icon.jpg"
	assert.Contains(t, fieldErrors(t, setup.Validate()), "favicon")
}

func TestNewSiteSetup_TogglesOn(t *testing.T) {
	s := NewSiteSetup()
	assert.True(t, s.ShowHeader && s.ShowSearch && s.ShowMenu && s.ShowDescription && s.ShowPagination && s.ShowFooter)
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "jdoe", (&User{Username: "jdoe"}).FullName())
	assert.Equal(t, "John Doe", (&User{Username: "jdoe", FirstName: "John", LastName: "Doe"}).FullName())
}
