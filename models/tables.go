package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string `gorm:"size:150" json:"first_name"`
	LastName     string `gorm:"size:150" json:"last_name"`
	Email        string `gorm:"size:254" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // never serialized
	IsStaff      bool   `gorm:"not null;default:false" json:"is_staff"`
}

// FullName is "first last" when a first name is set, the username otherwise.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	Slug string `gorm:"size:255;uniqueIndex;not null" json:"slug"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	Slug string `gorm:"size:255;uniqueIndex;not null" json:"slug"`
}

type Page struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:65;not null" json:"title"`
	Slug        string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	IsPublished bool      `gorm:"not null;default:false;index" json:"is_published"`
	Content     string    `gorm:"type:text" json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Post is a blog entry. Cover holds the stored media name, empty when the
// post has no cover.
type Post struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Title              string    `gorm:"size:65;not null" json:"title"`
	Slug               string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Excerpt            string    `gorm:"size:150;not null" json:"excerpt"`
	IsPublished        bool      `gorm:"not null;default:false;index" json:"is_published"`
	Content            string    `gorm:"type:text" json:"content"`
	Cover              string    `gorm:"size:255" json:"cover"`
	CoverInPostContent bool      `gorm:"not null" json:"cover_in_post_content"`
	SearchText         string    `gorm:"type:text" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	CreatedByID *uint     `gorm:"index" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
	UpdatedByID *uint     `gorm:"index" json:"updated_by_id"`
	UpdatedBy   *User     `gorm:"foreignKey:UpdatedByID;constraint:OnDelete:SET NULL" json:"updated_by,omitempty"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Tags        []Tag     `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags"`
}

// PostAttachment is a file uploaded from the rich text editor.
type PostAttachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255" json:"name"`
	File       string    `gorm:"size:255;not null" json:"file"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

type MenuLink struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Text        string `gorm:"size:50;not null" json:"text"`
	URLOrPath   string `gorm:"column:url_or_path;size:2048;not null" json:"url_or_path"`
	NewTab      bool   `gorm:"not null;default:false" json:"new_tab"`
	SiteSetupID *uint  `gorm:"index" json:"site_setup_id"`
}

// SiteSetup is meant to exist at most once; the admin surface refuses a
// second one, storage does not.
type SiteSetup struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:65;not null" json:"title"`
	Description     string     `gorm:"size:255;not null" json:"description"`
	ShowHeader      bool       `gorm:"not null" json:"show_header"`
	ShowSearch      bool       `gorm:"not null" json:"show_search"`
	ShowMenu        bool       `gorm:"not null" json:"show_menu"`
	ShowDescription bool       `gorm:"not null" json:"show_description"`
	ShowPagination  bool       `gorm:"not null" json:"show_pagination"`
	ShowFooter      bool       `gorm:"not null" json:"show_footer"`
	Favicon         string     `gorm:"size:255" json:"favicon"`
	MenuLinks       []MenuLink `gorm:"constraint:OnDelete:CASCADE" json:"menu_links"`
}

// NewPost returns a Post with the field defaults an empty admin form starts from.
func NewPost() *Post {
	return &Post{CoverInPostContent: true}
}

// BuildSearchText lowercases title, excerpt and content into one string.
// Case folding happens here because SQLite's LOWER only folds ASCII.
func (p *Post) BuildSearchText() string {
	return strings.ToLower(p.Title + "\n" + p.Excerpt + "\n" + p.Content)
}

func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.SearchText = p.BuildSearchText()
	return nil
}

// NewSiteSetup returns a SiteSetup with every display toggle on.
func NewSiteSetup() *SiteSetup {
	return &SiteSetup{
		ShowHeader:      true,
		ShowSearch:      true,
		ShowMenu:        true,
		ShowDescription: true,
		ShowPagination:  true,
		ShowFooter:      true,
	}
}

// All lists every table model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Category{},
		&Page{},
		&Post{},
		&PostAttachment{},
		&SiteSetup{},
		&MenuLink{},
	}
}
