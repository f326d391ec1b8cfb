package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pressroom/models"
)

type postVisitsRow struct {
	PostID    uint   `json:"post_id"`
	PostTitle string `json:"post_title"`
	Count     int64  `json:"count"`
}

// visits reports daily visits for the last 15 days and the ten most
// visited posts of the last 30.
func (a *AdminModule) visits(c *gin.Context) {
	if a.analytics == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	top := a.analytics.GetTopPosts(30, 10)
	rows := make([]postVisitsRow, 0, len(top))
	for _, t := range top {
		row := postVisitsRow{PostID: t.PostID, Count: t.Count, PostTitle: "(deleted post)"}
		var post models.Post
		if err := a.db.Select("id", "title").First(&post, t.PostID).Error; err == nil {
			row.PostTitle = post.Title
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":   true,
		"by_day":    a.analytics.GetVisitsByDay(15),
		"top_posts": rows,
	})
}
