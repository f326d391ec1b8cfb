package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pressroom/images"
	"pressroom/metrics"
	"pressroom/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type memStore struct {
	n       int
	deleted []string
}

func (m *memStore) Save(dir, filename string, src io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, src); err != nil {
		return "", err
	}
	m.n++
	return fmt.Sprintf("%s/%d-%s", dir, m.n, filename), nil
}

func (m *memStore) Delete(name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}

type countingResizer struct {
	calls []string
	err   error
}

func (r *countingResizer) Resize(name string, width int, optimize bool, quality int) (images.Result, error) {
	r.calls = append(r.calls, name)
	if r.err != nil {
		return images.Result{}, r.err
	}
	return images.Result{Width: width, Height: width / 2, Format: "jpeg", Resized: true}, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *gorm.DB, *memStore, *countingResizer) {
	db := setupTestDB(t)
	store := &memStore{}
	rz := &countingResizer{}
	return NewPipeline(db, store, rz), db, store, rz
}

func upload(name string) *Upload {
	return &Upload{Filename: name, Body: bytes.NewReader([]byte("data"))}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "UNSAVED", Unsaved.String())
	assert.Equal(t, "SLUG_RESOLVED", SlugResolved.String())
	assert.Equal(t, "PERSISTED", Persisted.String())
	assert.Equal(t, "DERIVATIVE_REFRESHED", DerivativeRefreshed.String())
}

func TestSaveTag_BlankSlugResolved(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	tag := &models.Tag{Name: "Go Lang"}

	out, err := p.SaveTag(context.Background(), tag)

	require.NoError(t, err)
	assert.Equal(t, Persisted, out.State)
	assert.Regexp(t, regexp.MustCompile(`^go-lang-[a-z0-9]{4}$`), tag.Slug)

	var stored models.Tag
	require.NoError(t, db.First(&stored, tag.ID).Error)
	assert.Equal(t, tag.Slug, stored.Slug)
}

func TestSaveCategory_CountsGeneratedSlugs(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	counter := metrics.SlugsGenerated.WithLabelValues("category")
	before := testutil.ToFloat64(counter)

	_, err := p.SaveCategory(context.Background(), &models.Category{Name: "Blank slug"})
	require.NoError(t, err)
	_, err = p.SaveCategory(context.Background(), &models.Category{Name: "Set slug", Slug: "set"})
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestSaveTag_ExplicitSlugKept(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	tag := &models.Tag{Name: "Go", Slug: "golang"}

	_, err := p.SaveTag(context.Background(), tag)
	require.NoError(t, err)
	assert.Equal(t, "golang", tag.Slug)

	tag.Name = "Go renamed"
	_, err = p.SaveTag(context.Background(), tag)
	require.NoError(t, err)
	assert.Equal(t, "golang", tag.Slug)
}

func TestSaveCategory_DuplicateSlugRejected(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	_, err := p.SaveCategory(context.Background(), &models.Category{Name: "News", Slug: "news"})
	require.NoError(t, err)

	_, err = p.SaveCategory(context.Background(), &models.Category{Name: "Other", Slug: "news"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "slug")

	var n int64
	db.Model(&models.Category{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestSavePage_ValidationFailsBeforeWrite(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	page := &models.Page{Title: strings.Repeat("x", models.MaxTitleLength+1)}

	out, err := p.SavePage(context.Background(), page)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Unsaved, out.State)
	assert.Empty(t, page.Slug)

	var n int64
	db.Model(&models.Page{}).Count(&n)
	assert.Zero(t, n)
}

func TestSavePost_CoverResizedOnlyWhenChanged(t *testing.T) {
	p, _, _, rz := newTestPipeline(t)
	post := models.NewPost()
	post.Title = "Hello"
	post.Excerpt = "first post"

	out, err := p.SavePost(context.Background(), post, upload("cover.jpg"))
	require.NoError(t, err)
	assert.Equal(t, DerivativeRefreshed, out.State)
	require.NotNil(t, out.Resize)
	assert.Equal(t, images.CoverWidth, out.Resize.Width)
	require.Len(t, rz.calls, 1)
	assert.Equal(t, post.Cover, rz.calls[0])

	post.Content = "edited"
	out, err = p.SavePost(context.Background(), post, nil)
	require.NoError(t, err)
	assert.Equal(t, Persisted, out.State)
	assert.Nil(t, out.Resize)
	assert.Len(t, rz.calls, 1)

	_, err = p.SavePost(context.Background(), post, upload("other.jpg"))
	require.NoError(t, err)
	assert.Len(t, rz.calls, 2)
}

func TestSavePost_NoCoverNoDerivative(t *testing.T) {
	p, _, _, rz := newTestPipeline(t)
	post := models.NewPost()
	post.Title = "Plain"
	post.Excerpt = "no image"

	out, err := p.SavePost(context.Background(), post, nil)

	require.NoError(t, err)
	assert.Equal(t, Persisted, out.State)
	assert.Empty(t, rz.calls)
}

func TestSavePost_DerivativeFailureKeepsRecord(t *testing.T) {
	p, db, _, rz := newTestPipeline(t)
	rz.err = fmt.Errorf("%w: corrupt", images.ErrProcessing)
	post := models.NewPost()
	post.Title = "Broken cover"
	post.Excerpt = "x"

	out, err := p.SavePost(context.Background(), post, upload("bad.jpg"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDerivative))
	assert.True(t, errors.Is(err, images.ErrProcessing))
	assert.Equal(t, Persisted, out.State)
	assert.NotZero(t, post.ID)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, post.Cover, stored.Cover)
}

func TestSavePost_ReplacesTags(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	a := &models.Tag{Name: "a", Slug: "a"}
	b := &models.Tag{Name: "b", Slug: "b"}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	post := models.NewPost()
	post.Title = "Tagged"
	post.Excerpt = "x"
	post.Tags = []models.Tag{*a, *b}
	_, err := p.SavePost(context.Background(), post, nil)
	require.NoError(t, err)

	post.Tags = []models.Tag{*b}
	_, err = p.SavePost(context.Background(), post, nil)
	require.NoError(t, err)

	var stored models.Post
	require.NoError(t, db.Preload("Tags").First(&stored, post.ID).Error)
	require.Len(t, stored.Tags, 1)
	assert.Equal(t, "b", stored.Tags[0].Slug)
}

func TestSavePost_KeepsExplicitFalseCoverInContent(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	post := models.NewPost()
	post.Title = "No inline cover"
	post.Excerpt = "x"
	post.CoverInPostContent = false

	_, err := p.SavePost(context.Background(), post, nil)
	require.NoError(t, err)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.False(t, stored.CoverInPostContent)
}

func TestSaveAttachment_DefaultsNameAndResizes(t *testing.T) {
	p, _, _, rz := newTestPipeline(t)
	att := &models.PostAttachment{}

	out, err := p.SaveAttachment(context.Background(), att, upload("diagram.png"))

	require.NoError(t, err)
	assert.Equal(t, DerivativeRefreshed, out.State)
	assert.Equal(t, att.File, att.Name)
	assert.Len(t, rz.calls, 1)
}

func TestSaveAttachment_RequiresFile(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)

	_, err := p.SaveAttachment(context.Background(), &models.PostAttachment{Name: "x"}, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "file")
}

func TestSaveSiteSetup_SecondCreateRefused(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	first := models.NewSiteSetup()
	first.Title = "Blog"
	first.Description = "desc"
	_, err := p.SaveSiteSetup(context.Background(), first, nil)
	require.NoError(t, err)

	second := models.NewSiteSetup()
	second.Title = "Other"
	second.Description = "desc"
	_, err = p.SaveSiteSetup(context.Background(), second, nil)
	assert.ErrorIs(t, err, ErrSiteSetupExists)

	invalid := models.NewSiteSetup()
	_, err = p.SaveSiteSetup(context.Background(), invalid, nil)
	assert.ErrorIs(t, err, ErrSiteSetupExists)

	first.Title = "Blog renamed"
	_, err = p.SaveSiteSetup(context.Background(), first, nil)
	assert.NoError(t, err)

	var n int64
	db.Model(&models.SiteSetup{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestSaveSiteSetup_FaviconMustBePNG(t *testing.T) {
	p, _, store, rz := newTestPipeline(t)
	setup := models.NewSiteSetup()
	setup.Title = "Blog"
	setup.Description = "desc"

	_, err := p.SaveSiteSetup(context.Background(), setup, upload("icon.jpg"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, store.n)

	out, err := p.SaveSiteSetup(context.Background(), setup, upload("icon.png"))
	require.NoError(t, err)
	assert.Equal(t, DerivativeRefreshed, out.State)
	assert.Equal(t, images.FaviconWidth, out.Resize.Width)
	assert.Len(t, rz.calls, 1)
}

func TestSaveMenuLink_UnknownSetup(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	id := uint(42)

	_, err := p.SaveMenuLink(context.Background(), &models.MenuLink{Text: "Home", URLOrPath: "/", SiteSetupID: &id})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestOnSaved_RunsAfterSaveAndDelete(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	calls := 0
	p.OnSaved(func() { calls++ })

	tag := &models.Tag{Name: "x"}
	_, err := p.SaveTag(context.Background(), tag)
	require.NoError(t, err)
	require.NoError(t, p.DeleteTag(context.Background(), tag.ID))

	assert.Equal(t, 2, calls)
}

func TestDelete_NotFound(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)

	assert.ErrorIs(t, p.DeletePost(context.Background(), 99), ErrNotFound)
	assert.ErrorIs(t, p.DeleteCategory(context.Background(), 99), ErrNotFound)
}

func TestDeleteCategory_DetachesPosts(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	cat := &models.Category{Name: "News", Slug: "news"}
	require.NoError(t, db.Create(cat).Error)
	post := models.NewPost()
	post.Title = "t"
	post.Excerpt = "e"
	post.CategoryID = &cat.ID
	_, err := p.SavePost(context.Background(), post, nil)
	require.NoError(t, err)

	require.NoError(t, p.DeleteCategory(context.Background(), cat.ID))

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.CategoryID)
}

func TestDeleteUser_ClearsAuditColumns(t *testing.T) {
	p, db, _, _ := newTestPipeline(t)
	user := &models.User{Username: "ana", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	post := models.NewPost()
	post.Title = "t"
	post.Excerpt = "e"
	post.CreatedByID = &user.ID
	post.UpdatedByID = &user.ID
	_, err := p.SavePost(context.Background(), post, nil)
	require.NoError(t, err)

	require.NoError(t, p.DeleteUser(context.Background(), user.ID))

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.CreatedByID)
	assert.Nil(t, stored.UpdatedByID)
}

func TestSavePost_WithRealProcessor(t *testing.T) {
	db := setupTestDB(t)
	storage := images.NewStorage(t.TempDir())
	p := NewPipeline(db, storage, images.NewProcessor(storage))

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 1800, 900))
	for x := 0; x < 1800; x++ {
		img.Set(x, x%900, color.RGBA{R: 200, A: 255})
	}
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	post := models.NewPost()
	post.Title = "Wide cover"
	post.Excerpt = "x"
	out, err := p.SavePost(context.Background(), post, &Upload{Filename: "Wide Cover.JPG", Body: &buf})

	require.NoError(t, err)
	require.NotNil(t, out.Resize)
	assert.True(t, out.Resize.Resized)
	assert.Equal(t, 900, out.Resize.Width)
	assert.Equal(t, 450, out.Resize.Height)
	assert.Regexp(t, `^posts/\d{4}/\d{2}/wide-cover\.jpg$`, post.Cover)
}
