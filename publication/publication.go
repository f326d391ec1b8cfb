// Package publication answers every public read: which posts and pages are
// visible, in what order, a page at a time.
package publication

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pressroom/models"
)

const (
	DefaultPerPage = 9
	searchTitleMax = 30
)

var (
	ErrNotFound = errors.New("not found")

	// ErrEmptyQuery means the search query was blank after sanitizing.
	// Callers fall back to the unfiltered listing.
	ErrEmptyQuery = errors.New("empty search query")
)

// Filter selects posts. Zero values mean "not filtered". Search with a blank
// Query is ErrEmptyQuery.
type Filter struct {
	Page     int
	AuthorID *uint
	Category string
	Tag      string
	Search   bool
	Query    string
}

type PostPage struct {
	Posts       []models.Post
	Number      int
	PerPage     int
	Total       int64
	NumPages    int
	HasNext     bool
	HasPrevious bool
	Title       string

	Author   *models.User
	Category *models.Category
	Tag      *models.Tag
	Query    string
}

func (p *PostPage) NextNumber() int     { return p.Number + 1 }
func (p *PostPage) PreviousNumber() int { return p.Number - 1 }

type Service struct {
	db      *gorm.DB
	perPage int
}

func NewService(db *gorm.DB, perPage int) *Service {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &Service{db: db, perPage: perPage}
}

func (s *Service) PerPage() int { return s.perPage }

// ListPosts returns one page of published posts, newest first. A page past
// the end is empty, not an error. Author, category and tag filters that match
// nothing are ErrNotFound.
func (s *Service) ListPosts(ctx context.Context, f Filter) (*PostPage, error) {
	result := &PostPage{Title: "Home -"}
	preds := []Predicate{Published()}

	if f.AuthorID != nil {
		var author models.User
		if err := s.db.WithContext(ctx).First(&author, *f.AuthorID).Error; err != nil {
			return nil, notFound(err)
		}
		preds = append(preds, CreatedBy(author.ID))
		result.Author = &author
		result.Title = "Posts by " + author.FullName() + " - "
	}

	if f.Category != "" {
		var category models.Category
		if err := s.db.WithContext(ctx).Where("slug = ?", f.Category).First(&category).Error; err != nil {
			return nil, notFound(err)
		}
		preds = append(preds, InCategory(f.Category))
		result.Category = &category
		result.Title = category.Name + " - Category - "
	}

	if f.Tag != "" {
		preds = append(preds, Tagged(f.Tag))
	}

	if f.Search {
		q := SanitizeQuery(f.Query)
		if q == "" {
			return nil, ErrEmptyQuery
		}
		preds = append(preds, Matching(q))
		result.Query = q
		result.Title = truncateRunes(result.Query, searchTitleMax) + " - Search - "
	}

	base := s.db.WithContext(ctx).Model(&models.Post{})
	for _, p := range preds {
		base = p.Apply(base)
	}
	base = base.Session(&gorm.Session{})

	if err := base.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	if result.Total == 0 && (f.Category != "" || f.Tag != "") {
		return nil, ErrNotFound
	}

	if f.Tag != "" {
		tag, err := s.resolveTag(ctx, f.Tag, preds)
		if err != nil {
			return nil, err
		}
		result.Tag = tag
		result.Title = tag.Name + " - Tag - "
	}

	s.paginate(result, f.Page)
	err := base.
		Preload("Category").
		Preload("Tags").
		Preload("CreatedBy").
		Order("posts.id DESC").
		Limit(s.perPage).
		Offset((result.Number - 1) * s.perPage).
		Find(&result.Posts).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveTag finds the tag's display name through the matched posts, so a
// tag attached only to drafts never resolves.
func (s *Service) resolveTag(ctx context.Context, slug string, preds []Predicate) (*models.Tag, error) {
	matched := s.db.WithContext(ctx).Model(&models.Post{}).Select("posts.id")
	for _, p := range preds {
		matched = p.Apply(matched)
	}

	var tag models.Tag
	err := s.db.WithContext(ctx).
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("tags.slug = ? AND post_tags.post_id IN (?)", slug, matched).
		First(&tag).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

func (s *Service) paginate(p *PostPage, number int) {
	if number < 1 {
		number = 1
	}
	p.Number = number
	p.PerPage = s.perPage
	p.NumPages = int((p.Total + int64(s.perPage) - 1) / int64(s.perPage))
	if p.NumPages < 1 {
		p.NumPages = 1
	}
	p.HasNext = number < p.NumPages
	p.HasPrevious = number > 1
}

// GetPost returns a published post by slug.
func (s *Service) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := Published().Apply(s.db.WithContext(ctx)).
		Preload("Category").
		Preload("Tags").
		Preload("CreatedBy").
		Where("posts.slug = ?", slug).
		First(&post).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// GetPage returns a published page by slug.
func (s *Service) GetPage(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	err := s.db.WithContext(ctx).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&page).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &page, nil
}

func PostTitle(p *models.Post) string { return p.Title + " - Post - " }
func PageTitle(p *models.Page) string { return p.Title + " - Page - " }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
