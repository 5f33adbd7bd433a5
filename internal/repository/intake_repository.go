package repository

import (
	"context"
	"database/sql"

	"github.com/thirdeyesoft/portal-backend/internal/model"
)

// IntakeRepo stores the unauthenticated inbound tables: signup enquiries
// and contact messages.  Both are append-mostly; admins read and prune them.
type IntakeRepo struct{ DB *sql.DB }

func NewIntakeRepo(db *sql.DB) *IntakeRepo { return &IntakeRepo{DB: db} }

func (r *IntakeRepo) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO registrations (full_name, phone, registration_type, notes) VALUES (?,?,?,?)",
		reg.FullName, reg.Phone, reg.RegistrationType, reg.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reg.ID = uint64(id)
	return nil
}

func (r *IntakeRepo) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,full_name,phone,registration_type,notes,created_at FROM registrations ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.FullName, &reg.Phone, &reg.RegistrationType,
			&reg.Notes, &reg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (r *IntakeRepo) DeleteRegistration(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM registrations WHERE id=?", id)
	return checkAffected(res, err)
}

func (r *IntakeRepo) CreateContactMessage(ctx context.Context, m *model.ContactMessage) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contact_messages (name, phone, subject, message) VALUES (?,?,?,?)",
		m.Name, m.Phone, m.Subject, m.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

func (r *IntakeRepo) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,phone,subject,message,created_at FROM contact_messages ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *IntakeRepo) DeleteContactMessage(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM contact_messages WHERE id=?", id)
	return checkAffected(res, err)
}
