package etprimitive

// 分页默认值
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination 分页参数
type Pagination struct {
	Page  int
	Limit int
	Total int64
}

// NewPagination 规范化分页参数，非法值回退到默认值
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset 查询偏移量
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
