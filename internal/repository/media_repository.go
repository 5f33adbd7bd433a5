package repository

import (
	"context"
	"database/sql"

	"github.com/thirdeyesoft/portal-backend/internal/model"
)

// MediaRepo serves the editorial content tables: gallery items, news posts
// and the rasi palan horoscope column.
type MediaRepo struct{ DB *sql.DB }

func NewMediaRepo(db *sql.DB) *MediaRepo { return &MediaRepo{DB: db} }

func (r *MediaRepo) ListGallery(ctx context.Context, activeOnly bool) ([]model.GalleryItem, error) {
	q := "SELECT id,title,category,image_url,is_active,created_at,updated_at FROM gallery_items"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.GalleryItem
	for rows.Next() {
		var g model.GalleryItem
		if err := rows.Scan(&g.ID, &g.Title, &g.Category, &g.ImageURL,
			&g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *MediaRepo) CreateGalleryItem(ctx context.Context, g *model.GalleryItem) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO gallery_items (title, category, image_url, is_active) VALUES (?,?,?,?)",
		g.Title, g.Category, g.ImageURL, g.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

func (r *MediaRepo) DeleteGalleryItem(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM gallery_items WHERE id=?", id)
	return checkAffected(res, err)
}

func (r *MediaRepo) ListNews(ctx context.Context, activeOnly bool) ([]model.News, error) {
	q := "SELECT id,title,content,image_url,published_at,is_active,created_at,updated_at FROM news"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY published_at DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.News
	for rows.Next() {
		var n model.News
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.ImageURL, &n.PublishedAt,
			&n.IsActive, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *MediaRepo) CreateNews(ctx context.Context, n *model.News) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO news (title, content, image_url, published_at, is_active) VALUES (?,?,?,?,?)",
		n.Title, n.Content, n.ImageURL, n.PublishedAt, n.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

func (r *MediaRepo) UpdateNews(ctx context.Context, n model.News) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE news SET title=?, content=?, image_url=?, published_at=?, is_active=? WHERE id=?",
		n.Title, n.Content, n.ImageURL, n.PublishedAt, n.IsActive, n.ID)
	return checkAffected(res, err)
}

func (r *MediaRepo) DeleteNews(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM news WHERE id=?", id)
	return checkAffected(res, err)
}

func (r *MediaRepo) ListRasiPalan(ctx context.Context, activeOnly bool) ([]model.RasiPalan, error) {
	q := "SELECT id,rasi,content,period_start,period_end,is_active,created_at,updated_at FROM rasi_palan"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY period_start DESC, rasi"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RasiPalan
	for rows.Next() {
		var p model.RasiPalan
		if err := rows.Scan(&p.ID, &p.Rasi, &p.Content, &p.PeriodStart, &p.PeriodEnd,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *MediaRepo) CreateRasiPalan(ctx context.Context, p *model.RasiPalan) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rasi_palan (rasi, content, period_start, period_end, is_active) VALUES (?,?,?,?,?)",
		p.Rasi, p.Content, p.PeriodStart, p.PeriodEnd, p.IsActive)
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

func (r *MediaRepo) DeleteRasiPalan(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM rasi_palan WHERE id=?", id)
	return checkAffected(res, err)
}
