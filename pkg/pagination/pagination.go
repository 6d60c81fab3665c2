package pagination

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"quill/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Range 闭区间 [Start, End]，与 react-admin 的 range 参数一致
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Sort 排序参数
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"` // ASC / DESC
}

// ListQuery 列表查询参数
type ListQuery struct {
	Range  Range
	Sort   Sort
	Filter map[string]interface{}
}

// 分页配置
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Limit 每页条数
func (r Range) Limit() int {
	return r.End - r.Start + 1
}

// Offset 偏移量
func (r Range) Offset() int {
	return r.Start
}

// DefaultListQuery 默认查询：前10条，按创建时间倒序
func DefaultListQuery() ListQuery {
	return ListQuery{
		Range:  Range{Start: 0, End: DefaultPageSize - 1},
		Sort:   Sort{Field: "createdAt", Order: "DESC"},
		Filter: map[string]interface{}{},
	}
}

// WithFilter 返回附加了过滤条件的副本，原查询不变
func (q ListQuery) WithFilter(key string, value interface{}) ListQuery {
	filter := make(map[string]interface{}, len(q.Filter)+1)
	for k, v := range q.Filter {
		filter[k] = v
	}
	filter[key] = value
	q.Filter = filter
	return q
}

// ParseListQuery 从请求中解析 range/sort/filter（JSON字符串），兼容 page/page_size
func ParseListQuery(c *gin.Context) (ListQuery, error) {
	query := DefaultListQuery()

	if raw := c.Query("range"); raw != "" {
		var bounds []int
		if err := json.Unmarshal([]byte(raw), &bounds); err != nil || len(bounds) != 2 {
			return query, errors.BadRequest("请求参数错误", errors.Detail{
				Parameter: "range",
				Issue:     `range must be a valid JSON stringified array. Example: "[0, 9]"`,
			})
		}
		rng, err := NewRange(bounds[0], bounds[1])
		if err != nil {
			return query, errors.BadRequest("请求参数错误", errors.Detail{Parameter: "range", Issue: err.Error()})
		}
		query.Range = rng
	} else if c.Query("page") != "" || c.Query("page_size") != "" {
		query.Range = rangeFromPage(c.DefaultQuery("page", "1"), c.DefaultQuery("page_size", "10"))
	}

	if raw := c.Query("sort"); raw != "" {
		var pair []string
		if err := json.Unmarshal([]byte(raw), &pair); err != nil || len(pair) != 2 {
			return query, errors.BadRequest("请求参数错误", errors.Detail{
				Parameter: "sort",
				Issue:     `sort must be a valid JSON stringified array. Example: "["title", "ASC"]"`,
			})
		}
		order := strings.ToUpper(pair[1])
		if order != "ASC" && order != "DESC" {
			return query, errors.BadRequest("请求参数错误", errors.Detail{Parameter: "sort", Issue: "order must be ASC or DESC"})
		}
		query.Sort = Sort{Field: pair[0], Order: order}
	}

	if raw := c.Query("filter"); raw != "" {
		filter := map[string]interface{}{}
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			return query, errors.BadRequest("请求参数错误", errors.Detail{
				Parameter: "filter",
				Issue:     `filter must be a valid JSON stringified object. Example: "{"field": "value"}"`,
			})
		}
		query.Filter = filter
	}

	return query, nil
}

// NewRange 校验并构造区间
func NewRange(start, end int) (Range, error) {
	if start < 0 || end < start {
		return Range{}, fmt.Errorf("range must satisfy 0 <= start <= end")
	}
	if end-start+1 > MaxPageSize {
		end = start + MaxPageSize - 1
	}
	return Range{Start: start, End: end}, nil
}

func rangeFromPage(pageStr, pageSizeStr string) Range {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = DefaultPage
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	start := (page - 1) * pageSize
	return Range{Start: start, End: start + pageSize - 1}
}

// ContentRange 生成 Content-Range 头，如 "content 0-9/57"
func ContentRange(resource string, rng Range, total int64) string {
	return fmt.Sprintf("%s %d-%d/%d", resource, rng.Start, rng.End, total)
}
