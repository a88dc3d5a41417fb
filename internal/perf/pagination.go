package perf

import (
	"errors"

	"gorm.io/gorm"
)

// MaxPerPage 为单页条目数上限，超过即被收敛到该值。
const MaxPerPage = 100

// ErrBadPage 表示分页参数非法（page 或 per_page 小于 1）。
var ErrBadPage = errors.New("page and per_page must be positive integers")

// Pagination 为列表响应统一携带的分页元数据。
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// ClampPage 校验并收敛分页参数：非正数报错，per_page 上限 100。
func ClampPage(page, perPage int) (int, int, error) {
	if page < 1 || perPage < 1 {
		return 0, 0, ErrBadPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage, nil
}

// Paginate 在查询上执行 count + offset/limit，结果写入 dest。
// 调用方需已通过 ClampPage 校验参数。
func Paginate(q *gorm.DB, page, perPage int, dest any) (Pagination, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Pagination{}, err
	}
	if err := q.Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error; err != nil {
		return Pagination{}, err
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1 && total > 0,
	}, nil
}
