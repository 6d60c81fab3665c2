package services

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"quill/pkg/errors"
	"quill/pkg/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchFilterKey 全文搜索过滤键（react-admin 约定 q）
const SearchFilterKey = "q"

// FieldMap 对外字段名 → 数据库列名，同时作为过滤/排序白名单
type FieldMap map[string]string

// Repository 通用 gorm 仓储：列表、计数、按ID查询
type Repository[T any] struct {
	db            *gorm.DB
	fields        FieldMap
	searchColumns []string
}

// NewRepository 创建仓储
func NewRepository[T any](db *gorm.DB, fields FieldMap, searchColumns ...string) *Repository[T] {
	return &Repository[T]{db: db, fields: fields, searchColumns: searchColumns}
}

// DB 带上下文的会话
func (r *Repository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Scope 应用过滤条件，未知字段返回 400
func (r *Repository[T]) Scope(ctx context.Context, filter map[string]interface{}) (*gorm.DB, error) {
	query := r.DB(ctx).Model(new(T))
	for key, value := range filter {
		if key == SearchFilterKey && len(r.searchColumns) > 0 {
			term, ok := value.(string)
			if !ok {
				return nil, errors.BadRequest("请求参数错误", errors.Detail{Parameter: "filter", Issue: "q must be a string"})
			}
			if term == "" {
				continue
			}
			conds := make([]string, 0, len(r.searchColumns))
			args := make([]interface{}, 0, len(r.searchColumns))
			for _, column := range r.searchColumns {
				conds = append(conds, column+" ILIKE ?")
				args = append(args, "%"+term+"%")
			}
			query = query.Where("("+strings.Join(conds, " OR ")+")", args...)
			continue
		}

		column, ok := r.fields[key]
		if !ok {
			return nil, errors.BadRequest("请求参数错误", errors.Detail{
				Parameter: "filter",
				Issue:     fmt.Sprintf("unknown filter field %q", key),
			})
		}

		switch {
		case value == nil:
			query = query.Where(clause.Eq{Column: clause.Column{Name: column}, Value: nil})
		case reflect.TypeOf(value).Kind() == reflect.Map:
			return nil, invalidFilterValue(key)
		case reflect.TypeOf(value).Kind() == reflect.Slice:
			values := toValues(value)
			for _, v := range values {
				if !isScalar(v) {
					return nil, invalidFilterValue(key)
				}
			}
			query = query.Where(clause.IN{Column: clause.Column{Name: column}, Values: values})
		default:
			query = query.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
		}
	}
	return query, nil
}

// List 按查询条件分页；计数与数据使用同一过滤条件
func (r *Repository[T]) List(ctx context.Context, q pagination.ListQuery) ([]T, int64, error) {
	order, err := r.order(q.Sort)
	if err != nil {
		return nil, 0, err
	}

	query, err := r.Scope(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]T, 0, q.Range.Limit())
	err = query.Order(order).
		Offset(q.Range.Offset()).
		Limit(q.Range.Limit()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get 根据ID获取记录，软删除记录视为不存在
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	if err := r.DB(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Create 创建记录
func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	return r.DB(ctx).Omit(clause.Associations).Create(item).Error
}

// Save 保存记录全部字段
func (r *Repository[T]) Save(ctx context.Context, item *T) error {
	return r.DB(ctx).Omit(clause.Associations).Save(item).Error
}

// Delete 删除记录（模型含 DeletedAt 时为软删除）
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	result := r.DB(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository[T]) order(sort pagination.Sort) (clause.OrderByColumn, error) {
	column, ok := r.fields[sort.Field]
	if !ok {
		return clause.OrderByColumn{}, errors.BadRequest("请求参数错误", errors.Detail{
			Parameter: "sort",
			Issue:     fmt.Sprintf("unknown sort field %q", sort.Field),
		})
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   strings.EqualFold(sort.Order, "DESC"),
	}, nil
}

// isScalar 过滤值只能是标量或 null
func isScalar(value interface{}) bool {
	if value == nil {
		return true
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return false
	}
	return true
}

func invalidFilterValue(key string) error {
	return errors.BadRequest("请求参数错误", errors.Detail{
		Parameter: "filter",
		Issue:     fmt.Sprintf("filter field %q must be a scalar or an array of scalars", key),
	})
}

func toValues(value interface{}) []interface{} {
	v := reflect.ValueOf(value)
	values := make([]interface{}, v.Len())
	for i := 0; i < v.Len(); i++ {
		values[i] = v.Index(i).Interface()
	}
	return values
}
