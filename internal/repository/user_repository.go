package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thirdeyesoft/portal-backend/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewAccount collects everything a registration inserts.  PasswordHash and
// PasswordEnc are computed by the handler (bcrypt + vault) so the repository
// stays pure SQL.  Matrimony is nil unless the registration type asked for a
// matrimony profile.
type NewAccount struct {
	Phone        string
	Email        string
	FullName     string
	PasswordHash string
	PasswordEnc  string
	Matrimony    *MatrimonyInput
}

// MatrimonyInput carries the extra fields a matrimony registration supplies.
type MatrimonyInput struct {
	Gender     string
	Occupation string
	Location   string
	ImageURL   string
	Details    model.MatrimonyDetails
}

// CreateAccount inserts the user, its profile, the default role and, for
// matrimony registrations, the matrimony profile, all in one transaction.
// Any failure rolls the whole registration back.  Returns the new user's ID.
func (r *UserRepo) CreateAccount(ctx context.Context, acc NewAccount) (userID string, err error) {
	acc.Phone = strings.TrimSpace(acc.Phone)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			userID = ""
		}
	}()

	userID = uuid.NewString()
	var email sql.NullString
	if acc.Email != "" {
		email = sql.NullString{String: acc.Email, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, phone, email, password_hash, password_enc) VALUES (?,?,?,?,?)",
		userID, acc.Phone, email, acc.PasswordHash, acc.PasswordEnc)
	if err != nil {
		if isDuplicate(err) {
			err = ErrPhoneExists
		}
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO profiles (user_id, full_name, phone) VALUES (?,?,?)",
		userID, acc.FullName, acc.Phone)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_roles (id, user_id, role) VALUES (?,?,?)",
		uuid.NewString(), userID, model.RoleUser)
	if err != nil {
		return "", err
	}

	if m := acc.Matrimony; m != nil {
		var details []byte
		details, err = m.Details.Encode()
		if err != nil {
			return "", err
		}
		age := model.AgeFromDOB(m.Details.DOB, time.Now().UTC())
		_, err = tx.ExecContext(ctx,
			`INSERT INTO matrimony_profiles
			 (id, user_id, full_name, age, gender, occupation, location, contact_phone, image_url, is_active, details)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			uuid.NewString(), userID, acc.FullName, age, m.Gender, m.Occupation,
			m.Location, acc.Phone, m.ImageURL, true, details)
		if err != nil {
			return "", err
		}
	}

	return userID, nil
}

// GetByPhone fetches a user by its login phone.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.scanOne(ctx, "SELECT id,phone,email,password_hash,password_enc,is_active,created_at,updated_at FROM users WHERE phone=? LIMIT 1", strings.TrimSpace(phone))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(ctx, "SELECT id,phone,email,password_hash,password_enc,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Phone, &email, &u.PasswordHash, &u.PasswordEnc, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if email.Valid {
		u.Email = email.String
	}
	return u, err
}

// RolesFor loads all role tags held by a user.
func (r *UserRepo) RolesFor(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT role FROM user_roles WHERE user_id=? ORDER BY role", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UpdateCredentials replaces both stored forms of the password in a single
// statement, keeping the hash and the vault ciphertext in step.
func (r *UserRepo) UpdateCredentials(ctx context.Context, userID, hash, enc string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_enc=? WHERE id=?", hash, enc, userID)
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

// ProfileFor loads the generic profile row of a user.
func (r *UserRepo) ProfileFor(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,full_name,phone,created_at,updated_at FROM profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.UserID, &p.FullName, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns every user, newest first.  Used by the admin user browser.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,phone,email,password_hash,password_enc,is_active,created_at,updated_at FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var (
			u     model.User
			email sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Phone, &email, &u.PasswordHash, &u.PasswordEnc, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			u.Email = email.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
