package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/thirdeyesoft/portal-backend/internal/model"
)

// MemberRepo covers the business directory: members and the marketplace
// listings they publish.
type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

const memberCols = "id,user_id,full_name,phone,business_name,category,location,is_active,created_at,updated_at"

func (r *MemberRepo) List(ctx context.Context, activeOnly bool) ([]model.Member, error) {
	q := "SELECT " + memberCols + " FROM members"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.FullName, &m.Phone, &m.BusinessName,
			&m.Category, &m.Location, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MemberRepo) GetByID(ctx context.Context, id string) (model.Member, error) {
	var m model.Member
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+memberCols+" FROM members WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.UserID, &m.FullName, &m.Phone, &m.BusinessName,
			&m.Category, &m.Location, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO members (id, user_id, full_name, phone, business_name, category, location, is_active)
		 VALUES (?,?,?,?,?,?,?,?)`,
		m.ID, m.UserID, m.FullName, m.Phone, m.BusinessName, m.Category, m.Location, m.IsActive)
	return err
}

func (r *MemberRepo) Update(ctx context.Context, m model.Member) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE members SET full_name=?, phone=?, business_name=?, category=?, location=?, is_active=?
		 WHERE id=?`,
		m.FullName, m.Phone, m.BusinessName, m.Category, m.Location, m.IsActive, m.ID)
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

// OwnerOf returns the user_id that owns a member record.  Handlers use it
// for the owner-or-admin gate on writes.
func (r *MemberRepo) OwnerOf(ctx context.Context, memberID string) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM members WHERE id=? LIMIT 1", memberID).Scan(&userID)
	return userID, err
}

// ----- marketplace listings -----

const listingCols = "id,member_id,title,description,price,image_url,is_active,created_at,updated_at"

func (r *MemberRepo) ListServices(ctx context.Context, memberID string) ([]model.MemberService, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+listingCols+" FROM member_services WHERE member_id=? ORDER BY created_at DESC", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.MemberService
	for rows.Next() {
		var s model.MemberService
		if err := rows.Scan(&s.ID, &s.MemberID, &s.Title, &s.Description, &s.Price,
			&s.ImageURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *MemberRepo) CreateService(ctx context.Context, s *model.MemberService) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO member_services (member_id, title, description, price, image_url, is_active)
		 VALUES (?,?,?,?,?,?)`,
		s.MemberID, s.Title, s.Description, s.Price, s.ImageURL, s.IsActive)
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

func (r *MemberRepo) UpdateService(ctx context.Context, s model.MemberService) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE member_services SET title=?, description=?, price=?, image_url=?, is_active=?
		 WHERE id=?`,
		s.Title, s.Description, s.Price, s.ImageURL, s.IsActive, s.ID)
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

func (r *MemberRepo) DeleteService(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM member_services WHERE id=?", id)
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

// ServiceOwner resolves the user that owns a listing, through its member.
func (r *MemberRepo) ServiceOwner(ctx context.Context, serviceID uint64) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		`SELECT m.user_id FROM member_services s JOIN members m ON m.id = s.member_id
		 WHERE s.id=? LIMIT 1`, serviceID).Scan(&userID)
	return userID, err
}
