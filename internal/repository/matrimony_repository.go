package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/thirdeyesoft/portal-backend/internal/model"
)

// CredentialEncoder turns a plaintext password into its two stored forms:
// the bcrypt hash used for verification and the vault ciphertext kept for
// admin recovery.  The repository takes it as a dependency so that credential
// derivation stays out of SQL code and the sync path is testable.
type CredentialEncoder interface {
	Encode(plain string) (hash, enc string, err error)
}

// MatrimonyRepo provides CRUD for matrimony profiles plus the credential
// synchronization that profile updates imply for the owning user.
type MatrimonyRepo struct{ DB *sql.DB }

func NewMatrimonyRepo(db *sql.DB) *MatrimonyRepo { return &MatrimonyRepo{DB: db} }

// MatrimonyUpdate describes a partial profile update.  Nil pointers leave the
// column untouched.  Password, when non-empty, is an explicit credential
// override; otherwise a changed Details.DOB re-derives the password.
type MatrimonyUpdate struct {
	FullName     *string
	Gender       *string
	Occupation   *string
	Location     *string
	ContactPhone *string
	ImageURL     *string
	IsActive     *bool
	Password     string
	Details      *model.MatrimonyDetails
}

// SyncResult reports which credential-bearing fields an update touched.
type SyncResult struct {
	UserID          string
	PhoneChanged    bool
	PasswordChanged bool
}

const matrimonyCols = "id,user_id,full_name,age,gender,occupation,location,contact_phone,image_url,is_active,details,created_at,updated_at"

// List returns matrimony profiles, optionally restricted to active ones.
func (r *MatrimonyRepo) List(ctx context.Context, activeOnly bool) ([]model.MatrimonyProfile, error) {
	q := "SELECT " + matrimonyCols + " FROM matrimony_profiles"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.MatrimonyProfile
	for rows.Next() {
		p, err := scanMatrimony(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches one profile.
func (r *MatrimonyRepo) GetByID(ctx context.Context, id string) (model.MatrimonyProfile, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+matrimonyCols+" FROM matrimony_profiles WHERE id=? LIMIT 1", id)
	return scanMatrimony(row.Scan)
}

// GetByUserID fetches the profile owned by a user.  Used by the
// DOB-verified password reset flow.
func (r *MatrimonyRepo) GetByUserID(ctx context.Context, userID string) (model.MatrimonyProfile, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+matrimonyCols+" FROM matrimony_profiles WHERE user_id=? ORDER BY created_at LIMIT 1", userID)
	return scanMatrimony(row.Scan)
}

// Create inserts a profile directly (outside registration).  Age is derived
// from the details' date of birth.
func (r *MatrimonyRepo) Create(ctx context.Context, p *model.MatrimonyProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	details, err := p.Details.Encode()
	if err != nil {
		return err
	}
	p.Age = model.AgeFromDOB(p.Details.DOB, time.Now().UTC())
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO matrimony_profiles
		 (id, user_id, full_name, age, gender, occupation, location, contact_phone, image_url, is_active, details)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.FullName, p.Age, p.Gender, p.Occupation, p.Location,
		p.ContactPhone, p.ImageURL, p.IsActive, details)
	return err
}

// ApplyUpdate performs a profile update together with whatever user-row
// changes it implies, inside one transaction.  A changed contact phone is
// propagated to users.phone; a new password (explicit field, or a changed
// date of birth under the DOB-as-password convention) is encoded and written
// to users.password_hash/password_enc.  Either everything commits or nothing
// does, so the profile and the login row can never drift apart.
func (r *MatrimonyRepo) ApplyUpdate(ctx context.Context, id string, upd MatrimonyUpdate, enc CredentialEncoder) (res SyncResult, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			res = SyncResult{}
		}
	}()

	var (
		currentPhone string
		rawDetails   []byte
	)
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, contact_phone, details FROM matrimony_profiles WHERE id=? FOR UPDATE",
		id).Scan(&res.UserID, &currentPhone, &rawDetails)
	if err != nil {
		return res, err
	}
	current, err := model.DecodeDetails(rawDetails)
	if err != nil {
		return res, err
	}

	// Stage the profile column updates.
	set := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)
	stage := func(col string, v interface{}) {
		set = append(set, col+"=?")
		args = append(args, v)
	}
	if upd.FullName != nil {
		stage("full_name", *upd.FullName)
	}
	if upd.Gender != nil {
		stage("gender", *upd.Gender)
	}
	if upd.Occupation != nil {
		stage("occupation", *upd.Occupation)
	}
	if upd.Location != nil {
		stage("location", *upd.Location)
	}
	if upd.ContactPhone != nil {
		stage("contact_phone", *upd.ContactPhone)
	}
	if upd.ImageURL != nil {
		stage("image_url", *upd.ImageURL)
	}
	if upd.IsActive != nil {
		stage("is_active", *upd.IsActive)
	}

	newDOB := ""
	if upd.Details != nil {
		var encoded []byte
		encoded, err = upd.Details.Encode()
		if err != nil {
			return res, err
		}
		stage("details", encoded)
		stage("age", model.AgeFromDOB(upd.Details.DOB, time.Now().UTC()))
		newDOB = upd.Details.DOB
	}

	if len(set) > 0 {
		q := "UPDATE matrimony_profiles SET " + set[0]
		for _, s := range set[1:] {
			q += ", " + s
		}
		q += " WHERE id=?"
		args = append(args, id)
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return res, err
		}
	}

	// Stage the user-row updates implied by the profile change.
	userSet := make([]string, 0, 3)
	userArgs := make([]interface{}, 0, 4)
	if upd.ContactPhone != nil && *upd.ContactPhone != currentPhone {
		userSet = append(userSet, "phone=?")
		userArgs = append(userArgs, *upd.ContactPhone)
		res.PhoneChanged = true
	}
	if pw, ok := model.NextPassword(current.DOB, newDOB, upd.Password); ok {
		var hash, cipher string
		hash, cipher, err = enc.Encode(pw)
		if err != nil {
			return res, err
		}
		userSet = append(userSet, "password_hash=?", "password_enc=?")
		userArgs = append(userArgs, hash, cipher)
		res.PasswordChanged = true
	}
	if len(userSet) > 0 {
		q := "UPDATE users SET " + userSet[0]
		for _, s := range userSet[1:] {
			q += ", " + s
		}
		q += " WHERE id=?"
		userArgs = append(userArgs, res.UserID)
		if _, err = tx.ExecContext(ctx, q, userArgs...); err != nil {
			if isDuplicate(err) {
				err = ErrPhoneExists
			}
			return res, err
		}
	}

	return res, nil
}

// Delete removes a profile.  Admin-only at the handler layer.
func (r *MatrimonyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM matrimony_profiles WHERE id=?", id)
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

func scanMatrimony(scan func(...interface{}) error) (model.MatrimonyProfile, error) {
	var (
		p        model.MatrimonyProfile
		imageURL sql.NullString
		details  []byte
	)
	err := scan(&p.ID, &p.UserID, &p.FullName, &p.Age, &p.Gender, &p.Occupation,
		&p.Location, &p.ContactPhone, &imageURL, &p.IsActive, &details,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if imageURL.Valid {
		p.ImageURL = imageURL.String
	}
	p.Details, err = model.DecodeDetails(details)
	return p, err
}
