package store

import "gorm.io/gorm"

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Page[T any] struct {
	Rows     []T   `json:"rows"`
	PageNum  int   `json:"pageNum"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"hasNext"`
}

type PageQuery struct {
	Num    int
	Size   int
	Select string
	Order  string
}

func normalizePage(num, size int) (int, int) {
	if num < 1 {
		num = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return num, size
}

// Paginate counts base, then fetches one page of it. base must not carry
// an ORDER BY or a SELECT list; pass those in q so the count stays valid.
func Paginate[T any](base *gorm.DB, q PageQuery) (Page[T], error) {
	num, size := normalizePage(q.Num, q.Size)
	page := Page[T]{PageNum: num, PageSize: size, Rows: []T{}}

	if err := base.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return page, err
	}
	// past the last page; also keeps (num-1)*size from overflowing
	pages := (page.Total + int64(size) - 1) / int64(size)
	if int64(num) > pages {
		return page, nil
	}

	rows := base.Session(&gorm.Session{})
	if q.Select != "" {
		rows = rows.Select(q.Select)
	}
	if q.Order != "" {
		rows = rows.Order(q.Order)
	}
	if err := rows.Offset((num - 1) * size).Limit(size).Scan(&page.Rows).Error; err != nil {
		return page, err
	}

	page.HasNext = int64(num) < pages
	return page, nil
}
