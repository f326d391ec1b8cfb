// Package analytics records post detail views in a separate database and
// reports visit counts to the admin surface.
package analytics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressroom/logger"
)

const (
	visitorCookie = "pressroom_visitor_id"
	visitorMaxAge = 60 * 60 * 24 * 365 * 2
	revisitWindow = 30 * time.Minute
)

// PostVisit is one counted view of a post detail page.
type PostVisit struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	PostID    uint   `gorm:"not null;index"`
	CookieID  string `gorm:"not null;index"`
	IP        string `gorm:"not null"`
	Language  *string
	Browser   *string
	CreatedAt time.Time `gorm:"index"`
}

type AnalyticsModule struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnalyticsModule returns nil when db is nil; every method treats a nil
// module as disabled.
func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		logger.Log.Info("analytics disabled, no database configured")
		return nil
	}
	if err := db.AutoMigrate(&PostVisit{}); err != nil {
		logger.Log.Error("migrate post_visits", zap.Error(err))
		return nil
	}
	return &AnalyticsModule{db: db, now: time.Now}
}

// TrackVisit records a view of postID unless the same visitor already
// viewed it within the last 30 minutes.
func (a *AnalyticsModule) TrackVisit(c *gin.Context, postID uint) {
	if a == nil {
		return
	}

	cookieID := a.visitorID(c)
	now := a.now().UTC()

	var recent int64
	a.db.Model(&PostVisit{}).
		Where("cookie_id = ? AND post_id = ? AND created_at > ?", cookieID, postID, now.Add(-revisitWindow)).
		Count(&recent)
	if recent > 0 {
		return
	}

	visit := PostVisit{
		PostID:    postID,
		CookieID:  cookieID,
		IP:        clientIP(c),
		Language:  language(c.GetHeader("Accept-Language")),
		Browser:   browser(c.Request.UserAgent()),
		CreatedAt: now,
	}
	if err := a.db.Create(&visit).Error; err != nil {
		logger.Log.Warn("save post visit", zap.Uint("post_id", postID), zap.Error(err))
	}
}

func (a *AnalyticsModule) visitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookie); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(visitorCookie, id, visitorMaxAge, "/", "", false, true)
	return id
}

func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func browser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}
	ua := strings.ToLower(userAgent)
	var name string
	// more specific engines first
	switch {
	case strings.Contains(ua, "edg"):
		name = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		name = "Opera"
	case strings.Contains(ua, "chrome"):
		name = "Chrome"
	case strings.Contains(ua, "safari"):
		name = "Safari"
	case strings.Contains(ua, "firefox"):
		name = "Firefox"
	default:
		name = "Other"
	}
	return &name
}

// language keeps the most preferred entry of an Accept-Language header.
func language(header string) *string {
	if header == "" {
		return nil
	}
	lang := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	return &lang
}

type DayVisits struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PostVisits struct {
	PostID uint  `json:"post_id"`
	Count  int64 `json:"count"`
}

func (a *AnalyticsModule) GetPostVisitCount(postID uint) int64 {
	if a == nil {
		return 0
	}
	var count int64
	a.db.Model(&PostVisit{}).Where("post_id = ?", postID).Count(&count)
	return count
}

// GetVisitsByDay returns one entry per day for the last days days, oldest
// first, with zero for days without visits.
func (a *AnalyticsModule) GetVisitsByDay(days int) []DayVisits {
	if a == nil || days < 1 {
		return []DayVisits{}
	}
	// visits are stored and bucketed in UTC
	now := a.now().UTC()

	var results []DayVisits
	a.db.Model(&PostVisit{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", now.AddDate(0, 0, -days)).
		Group("DATE(created_at)").
		Scan(&results)

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Date] = r.Count
	}

	out := make([]DayVisits, days)
	for i := range out {
		date := now.AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")
		out[i] = DayVisits{Date: date, Count: counts[date]}
	}
	return out
}

// GetTopPosts returns the most visited posts of the last days days.
func (a *AnalyticsModule) GetTopPosts(days, limit int) []PostVisits {
	if a == nil {
		return []PostVisits{}
	}
	var results []PostVisits
	a.db.Model(&PostVisit{}).
		Select("post_id, COUNT(*) as count").
		Where("created_at >= ?", a.now().UTC().AddDate(0, 0, -days)).
		Group("post_id").
		Order("count DESC").
		Limit(limit).
		Scan(&results)
	return results
}
