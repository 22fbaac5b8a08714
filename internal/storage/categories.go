package storage

import (
	"context"
	"fmt"

	"finwallet/internal/core"
)

func (q *Queries) GetCategory(ctx context.Context, name string) (core.Category, error) {
	var c core.Category
	if err := q.get(ctx, &c, `SELECT name FROM categories WHERE name = ?`, name); err != nil {
		return core.Category{}, wrapErr(fmt.Sprintf("get category %q", name), err)
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	categories := []core.Category{}
	if err := q.selectAll(ctx, &categories, `SELECT name FROM categories ORDER BY name ASC`); err != nil {
		return nil, wrapErr("list categories", err)
	}
	return categories, nil
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.exec(ctx, `INSERT INTO categories (name) VALUES (?)`, c.Name)
	return wrapErr(fmt.Sprintf("create category %q", c.Name), err)
}

func (q *Queries) RenameCategory(ctx context.Context, oldName, newName string) error {
	res, err := q.exec(ctx, `UPDATE categories SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return wrapErr(fmt.Sprintf("rename category %q", oldName), err)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("rename category %q: %w", oldName, core.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteCategory(ctx context.Context, name string) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("delete category %q", name), err)
	}
	return rowsAffected(res), nil
}
