package repository

import (
	"context"
	"database/sql"

	"github.com/thirdeyesoft/portal-backend/internal/model"
)

// CatalogRepo serves the storefront content tables: products and services.
// These are plain CRUD rows with no cross-entity invariants.
type CatalogRepo struct{ DB *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

func (r *CatalogRepo) ListProducts(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	q := "SELECT id,name,description,price,image_url,is_active,created_at,updated_at FROM products"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (name, description, price, image_url, is_active) VALUES (?,?,?,?,?)",
		p.Name, p.Description, p.Price, p.ImageURL, p.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) UpdateProduct(ctx context.Context, p model.Product) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, description=?, price=?, image_url=?, is_active=? WHERE id=?",
		p.Name, p.Description, p.Price, p.ImageURL, p.IsActive, p.ID)
	return checkAffected(res, err)
}

func (r *CatalogRepo) DeleteProduct(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	return checkAffected(res, err)
}

func (r *CatalogRepo) ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	q := "SELECT id,title,description,image_url,is_active,created_at,updated_at FROM services"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.ImageURL,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) CreateService(ctx context.Context, s *model.Service) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO services (title, description, image_url, is_active) VALUES (?,?,?,?)",
		s.Title, s.Description, s.ImageURL, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) UpdateService(ctx context.Context, s model.Service) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE services SET title=?, description=?, image_url=?, is_active=? WHERE id=?",
		s.Title, s.Description, s.ImageURL, s.IsActive, s.ID)
	return checkAffected(res, err)
}

func (r *CatalogRepo) DeleteService(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM services WHERE id=?", id)
	return checkAffected(res, err)
}

// checkAffected folds the Exec error and a zero-rows result into one error.
func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
