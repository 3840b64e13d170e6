// Package admin 提供一个受限的数据库表浏览器：
// 只允许访问显式列入白名单的表，永远不把调用方提供的标识符拼入 SQL。
package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

var (
	// ErrTableNotAllowed 表示目标表不在白名单内。
	ErrTableNotAllowed = errors.New("table not allowed")
	// ErrNotFound 表示目标记录不存在。
	ErrNotFound = errors.New("record not found")
	// ErrNoWritableColumns 表示载荷中没有任何可写列。
	ErrNoWritableColumns = errors.New("no writable columns in payload")
)

// allowedTables 是可浏览的表白名单。值标记该表是否有整数主键 id，
// 按 id 的更新/删除只对这类表开放。
var allowedTables = map[string]bool{
	"users":              true,
	"skills":             true,
	"skill_categories":   true,
	"experiences":        true,
	"education":          true,
	"projects":           true,
	"contacts":           true,
	"socials":            true,
	"resumes":            true,
	"resume_skills":      false,
	"resume_experiences": false,
	"resume_education":   false,
	"resume_projects":    false,
}

// 任何表都不允许通过浏览器改写这些列。
var readOnlyColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// Column 描述一列的结构信息。
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

// Store 是面向白名单表的原始行 CRUD。
// 它只操作裸行，不经过聚合层逻辑，但外键约束仍然生效。
type Store struct {
	db *gorm.DB
}

// NewStore 构造 Store。
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tables 返回全部可浏览表名，字典序。
func (s *Store) Tables() []string {
	names := make([]string, 0, len(allowedTables))
	for name := range allowedTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema 返回一张表的列结构。
func (s *Store) Schema(ctx context.Context, table string) ([]Column, error) {
	if _, ok := allowedTables[table]; !ok {
		return nil, ErrTableNotAllowed
	}

	types, err := s.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("column types for %s: %w", table, err)
	}

	columns := make([]Column, 0, len(types))
	for _, ct := range types {
		nullable, _ := ct.Nullable()
		primary, _ := ct.PrimaryKey()
		columns = append(columns, Column{
			Name:       ct.Name(),
			Type:       ct.DatabaseTypeName(),
			Nullable:   nullable,
			PrimaryKey: primary,
		})
	}
	return columns, nil
}

// Rows 返回一张表的全部记录。
func (s *Store) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	if _, ok := allowedTables[table]; !ok {
		return nil, ErrTableNotAllowed
	}

	rows := []map[string]any{}
	if err := s.db.WithContext(ctx).Table(table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return rows, nil
}

// Insert 向表中插入一行，载荷先按真实列名与只读列过滤。
// 返回新行 id（无 id 列的关联表返回 0）。
func (s *Store) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	hasID, ok := allowedTables[table]
	if !ok {
		return 0, ErrTableNotAllowed
	}

	filtered, err := s.filterWritable(ctx, table, values)
	if err != nil {
		return 0, err
	}

	var newID int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(table).Create(&filtered).Error; err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		if hasID {
			// 表名来自白名单，拼接是安全的。
			if err := tx.Raw("SELECT MAX(id) FROM " + table).Scan(&newID).Error; err != nil {
				return fmt.Errorf("read new id from %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// Update 按 id 更新一行；只对有 id 主键的表开放。
func (s *Store) Update(ctx context.Context, table string, id int64, values map[string]any) error {
	hasID, ok := allowedTables[table]
	if !ok || !hasID {
		return ErrTableNotAllowed
	}

	filtered, err := s.filterWritable(ctx, table, values)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(filtered)
	if result.Error != nil {
		return fmt.Errorf("update %s: %w", table, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 按 id 删除一行；只对有 id 主键的表开放。
func (s *Store) Delete(ctx context.Context, table string, id int64) error {
	hasID, ok := allowedTables[table]
	if !ok || !hasID {
		return ErrTableNotAllowed
	}

	result := s.db.WithContext(ctx).Exec("DELETE FROM "+table+" WHERE id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete from %s: %w", table, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// filterWritable 把载荷裁剪到表里真实存在且非只读的列。
func (s *Store) filterWritable(ctx context.Context, table string, values map[string]any) (map[string]any, error) {
	columns, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}

	writable := map[string]bool{}
	for _, col := range columns {
		if !readOnlyColumns[col.Name] {
			writable[col.Name] = true
		}
	}

	filtered := map[string]any{}
	for name, value := range values {
		if writable[name] {
			filtered[name] = value
		}
	}
	if len(filtered) == 0 {
		return nil, ErrNoWritableColumns
	}
	return filtered, nil
}
