package publication

import (
	"strings"

	"gorm.io/gorm"
)

// Predicate narrows a posts query. Predicates compose with AND.
type Predicate interface {
	Apply(tx *gorm.DB) *gorm.DB
}

type PredicateFunc func(tx *gorm.DB) *gorm.DB

func (f PredicateFunc) Apply(tx *gorm.DB) *gorm.DB { return f(tx) }

// Published is the publish gate. Every listing starts with it.
func Published() Predicate {
	return PredicateFunc(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("posts.is_published = ?", true)
	})
}

func CreatedBy(userID uint) Predicate {
	return PredicateFunc(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("posts.created_by_id = ?", userID)
	})
}

func InCategory(slug string) Predicate {
	return PredicateFunc(func(tx *gorm.DB) *gorm.DB {
		sub := tx.Session(&gorm.Session{NewDB: true}).
			Table("categories").Select("id").Where("slug = ?", slug)
		return tx.Where("posts.category_id IN (?)", sub)
	})
}

func Tagged(slug string) Predicate {
	return PredicateFunc(func(tx *gorm.DB) *gorm.DB {
		sub := tx.Session(&gorm.Session{NewDB: true}).
			Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug = ?", slug)
		return tx.Where("posts.id IN (?)", sub)
	})
}

// Matching does a case-insensitive substring match of an already sanitized
// query over title, excerpt and content, through the lowercased search_text
// column. Sanitized queries carry no LIKE wildcards.
func Matching(query string) Predicate {
	return PredicateFunc(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("posts.search_text LIKE ?", "%"+strings.ToLower(query)+"%")
	})
}
