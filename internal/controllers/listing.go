package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type scope = func(*gorm.DB) *gorm.DB

const maxListLimit = 200

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// listQuery carries the data-table parameters shared by every list endpoint:
// limit, page, all, sort_by, sort_dir, q, plus entity specific filters.
type listQuery struct {
	All     bool
	Limit   int
	Page    int
	SortCol string
	SortDir string
	Q       string

	scopes  []scope
	orders  []string
	filters gin.H
}

func newListQuery(c *gin.Context, sortable ...string) *listQuery {
	lq := &listQuery{
		All:     strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1",
		Limit:   20,
		Page:    1,
		Q:       strings.TrimSpace(c.Query("q")),
		filters: gin.H{},
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lq.Limit = min(n, maxListLimit)
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lq.Page = n
		}
	}

	lq.SortDir = strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if lq.SortDir != "ASC" && lq.SortDir != "DESC" {
		lq.SortDir = "DESC"
	}
	lq.SortCol = "created_at"
	sortBy := strings.ToLower(c.Query("sort_by"))
	for _, col := range append(sortable, "created_at", "updated_at") {
		if col == sortBy {
			lq.SortCol = col
			break
		}
	}
	return lq
}

// Scope adds an unconditional restriction that is not reported in meta.
func (lq *listQuery) Scope(s scope) {
	lq.scopes = append(lq.scopes, s)
}

// OrderFirst puts expr ahead of the requested sort, e.g. pinned rows on top.
func (lq *listQuery) OrderFirst(expr string) {
	lq.orders = append(lq.orders, expr)
}

// Search matches q case-insensitively against any of cols. Wildcards in q
// match literally.
func (lq *listQuery) Search(cols ...string) {
	if lq.Q == "" || len(cols) == 0 {
		return
	}
	like := "%" + likeEscaper.Replace(strings.ToLower(lq.Q)) + "%"
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col))
		args = append(args, like)
	}
	cond := "(" + strings.Join(parts, " OR ") + ")"
	lq.Scope(func(db *gorm.DB) *gorm.DB { return db.Where(cond, args...) })
	lq.filters["q"] = lq.Q
}

// Equal filters col by the query parameter param when present.
func (lq *listQuery) Equal(c *gin.Context, param, col string) {
	v := strings.TrimSpace(c.Query(param))
	if v == "" {
		return
	}
	lq.Scope(func(db *gorm.DB) *gorm.DB { return db.Where(col+" = ?", v) })
	lq.filters[param] = v
}

// Bool filters col by a true/false query parameter.
func (lq *listQuery) Bool(c *gin.Context, param, col string) error {
	v := strings.TrimSpace(strings.ToLower(c.Query(param)))
	var b bool
	switch v {
	case "":
		return nil
	case "true", "1":
		b = true
	case "false", "0":
		b = false
	default:
		return fmt.Errorf("invalid %s value", param)
	}
	lq.Scope(func(db *gorm.DB) *gorm.DB { return db.Where(col+" = ?", b) })
	lq.filters[param] = v
	return nil
}

// DateRange applies the inclusive from/to (YYYY-MM-DD) parameters to col.
// Text columns holding YYYY-MM-DD compare as strings; timestamp columns use the
// [from 00:00, to+1 00:00) window in loc.
func (lq *listQuery) DateRange(c *gin.Context, col string, textColumn bool, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	for _, param := range []string{"from", "to"} {
		v := strings.TrimSpace(c.Query(param))
		if v == "" {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return fmt.Errorf("invalid %s date, expected YYYY-MM-DD", param)
		}
		var cond string
		var arg any
		switch {
		case param == "from" && textColumn:
			cond, arg = col+" >= ?", v
		case param == "to" && textColumn:
			cond, arg = col+" <= ?", v
		case param == "from":
			cond, arg = col+" >= ?", day.UTC()
		default:
			cond, arg = col+" < ?", day.AddDate(0, 0, 1).UTC()
		}
		lq.Scope(func(db *gorm.DB) *gorm.DB { return db.Where(cond, arg) })
		lq.filters[param] = v
	}
	return nil
}

func (lq *listQuery) apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(lq.scopes...)
}

func (lq *listQuery) meta(total int64) gin.H {
	meta := gin.H{"total": total, "all": lq.All}
	if !lq.All {
		meta["limit"] = lq.Limit
		meta["page"] = lq.Page
		meta["sort_by"] = lq.SortCol
		meta["sort_dir"] = lq.SortDir
	}
	for k, v := range lq.filters {
		meta[k] = v
	}
	return meta
}

// respondList counts and pages T with the query's scopes and writes the
// {"data","meta"} envelope.
func respondList[T any](c *gin.Context, db *gorm.DB, lq *listQuery) {
	var total int64
	if err := lq.apply(db.Model(new(T))).Count(&total).Error; err != nil {
		internalError(c, "count records", err)
		return
	}

	rows := make([]T, 0)
	q := lq.apply(db.Model(new(T)))
	for _, o := range lq.orders {
		q = q.Order(o)
	}
	q = q.Order(fmt.Sprintf("%s %s", lq.SortCol, lq.SortDir)).Order("id")
	if !lq.All {
		q = q.Offset((lq.Page - 1) * lq.Limit).Limit(lq.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		internalError(c, "list records", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "meta": lq.meta(total)})
}
