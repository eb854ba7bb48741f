package videos

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vidshare/backend/pkg/apperr"
)

// sortColumns maps accepted sort field names to video columns.
var sortColumns = map[string]string{
	"title":      "title",
	"views":      "views",
	"duration":   "duration",
	"likes":      "likes",
	"dislikes":   "dislikes",
	"createdat":  "created_at",
	"created_at": "created_at",
	"updatedat":  "updated_at",
	"updated_at": "updated_at",
}

// Sort is a validated ordering for a listing.
type Sort struct {
	Column string // empty selects the default newest-first order
	Desc   bool
}

// ListFilter is a validated listing request ready to be run against the store.
type ListFilter struct {
	OwnerID       *uuid.UUID
	Username      string
	Query         string
	PublishedOnly bool
	Sort          Sort
	Limit         int
	Offset        int
}

// ParseSort validates a sort field and direction. Direction accepts asc, desc, 1 and -1;
// it defaults to ascending when a field is given and is ignored without one.
func ParseSort(field, direction string) (Sort, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	direction = strings.ToLower(strings.TrimSpace(direction))
	if field == "" {
		return Sort{}, nil
	}
	col, ok := sortColumns[field]
	if !ok {
		return Sort{}, apperr.InvalidInput(fmt.Sprintf("unsupported sort field %q", field))
	}
	s := Sort{Column: col}
	switch direction {
	case "", "asc", "1":
	case "desc", "-1":
		s.Desc = true
	default:
		return Sort{}, apperr.InvalidInput(fmt.Sprintf("unsupported sort direction %q", direction))
	}
	return s, nil
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// buildWhere returns the WHERE clause (with leading space, or empty) and its arguments.
func buildWhere(f ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.OwnerID != nil {
		add("v.owner_id = $%d", *f.OwnerID)
	}
	if f.Username != "" {
		add("u.username = $%d", strings.ToLower(f.Username))
	}
	if f.Query != "" {
		add(`v.title ILIKE $%d ESCAPE '\'`, "%"+escapeLike(f.Query)+"%")
	}
	if f.PublishedOnly {
		conds = append(conds, "v.is_published")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildOrderBy(s Sort) string {
	if s.Column == "" {
		return " ORDER BY v.created_at DESC, v.seq DESC"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY v.%s %s, v.seq ASC", s.Column, dir)
}

const listFrom = ` FROM videos v INNER JOIN users u ON u.id = v.owner_id`

const detailColumns = `v.id, v.owner_id, v.title, v.description, v.video_url, v.video_key, v.thumbnail_url, v.thumbnail_key,
	v.duration, v.views, v.likes, v.dislikes, v.is_published, v.created_at, v.updated_at,
	u.id, u.username, u.full_name, u.avatar_url`

// buildListSQL returns the count query and the page query for f. Both share the same
// arguments except the page query, which appends LIMIT and OFFSET.
func buildListSQL(f ListFilter) (countSQL, pageSQL string, args []interface{}) {
	where, args := buildWhere(f)
	countSQL = "SELECT COUNT(*)" + listFrom + where
	n := len(args)
	pageSQL = "SELECT " + detailColumns + listFrom + where + buildOrderBy(f.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	return countSQL, pageSQL, args
}

// totalPages returns ceil(total/pageSize).
func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
