package admin

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// listOptions describes an admin changelist: page size, the columns the
// q parameter searches and the query parameters usable as exact filters.
type listOptions struct {
	perPage int
	search  []string
	filters map[string]string
	preload []string
}

var (
	tagList      = listOptions{perPage: 10, search: []string{"name", "slug"}}
	categoryList = listOptions{perPage: 10, search: []string{"name", "slug"}}
	pageList     = listOptions{
		perPage: 50,
		search:  []string{"slug", "title", "content"},
		filters: map[string]string{"is_published": "is_published"},
	}
	postList = listOptions{
		perPage: 50,
		search:  []string{"slug", "title", "excerpt", "content"},
		filters: map[string]string{"is_published": "is_published", "category": "category_id"},
		preload: []string{"CreatedBy", "Category"},
	}
	attachmentList = listOptions{perPage: 50, search: []string{"name", "file"}}
	menuLinkList   = listOptions{perPage: 50, search: []string{"text", "url_or_path"}}
	userList       = listOptions{perPage: 50, search: []string{"username", "first_name", "last_name", "email"}}
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchTerms ANDs every whitespace separated term; a term matches when any
// search column contains it, or when it equals the id.
func searchTerms(tx *gorm.DB, q string, columns []string) *gorm.DB {
	for _, term := range strings.Fields(q) {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		conds := make([]string, 0, len(columns)+1)
		args := make([]interface{}, 0, len(columns)+1)
		for _, col := range columns {
			conds = append(conds, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
			args = append(args, like)
		}
		if id, err := strconv.ParseUint(term, 10, 64); err == nil {
			conds = append(conds, "id = ?")
			args = append(args, id)
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	return tx
}

func applyFilters(c *gin.Context, tx *gorm.DB, filters map[string]string) *gorm.DB {
	for param, column := range filters {
		raw, ok := c.GetQuery(param)
		if !ok || raw == "" {
			continue
		}
		if b, err := strconv.ParseBool(raw); err == nil && column == "is_published" {
			tx = tx.Where(column+" = ?", b)
			continue
		}
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			tx = tx.Where(column+" = ?", id)
		}
	}
	return tx
}

// list writes one page of model rows, newest id first, into dest.
func (a *AdminModule) list(c *gin.Context, model interface{}, dest interface{}, opts listOptions) {
	tx := a.db.WithContext(c.Request.Context()).Model(model)
	tx = searchTerms(tx, c.Query("q"), opts.search)
	tx = applyFilters(c, tx, opts.filters)
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		a.fail(c, err, 0)
		return
	}

	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	query := tx.Order("id DESC").Limit(opts.perPage).Offset((page - 1) * opts.perPage)
	for _, rel := range opts.preload {
		query = query.Preload(rel)
	}
	if err := query.Find(dest).Error; err != nil {
		a.fail(c, err, 0)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   dest,
		"page":      page,
		"per_page":  opts.perPage,
		"total":     total,
		"num_pages": int(math.Max(1, math.Ceil(float64(total)/float64(opts.perPage)))),
	})
}
