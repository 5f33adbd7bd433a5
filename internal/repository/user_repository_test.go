package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirdeyesoft/portal-backend/internal/model"
)

func setupUserRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *UserRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewUserRepo(db)
}

var userCols = []string{"id", "phone", "email", "password_hash", "password_enc", "is_active", "created_at", "updated_at"}

func TestCreateAccountMember(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "9000000001", nil, "hash", "enc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(sqlmock.AnyArg(), "Asha", "9000000001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.CreateAccount(context.Background(), NewAccount{
		Phone:        " 9000000001 ",
		FullName:     "Asha",
		PasswordHash: "hash",
		PasswordEnc:  "enc",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountMatrimonyInsertsProfile(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_roles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO matrimony_profiles").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Priya", sqlmock.AnyArg(), "female",
			"", "", "9000000002", "", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.CreateAccount(context.Background(), NewAccount{
		Phone:        "9000000002",
		FullName:     "Priya",
		PasswordHash: "hash",
		PasswordEnc:  "enc",
		Matrimony: &MatrimonyInput{
			Gender:  "female",
			Details: model.MatrimonyDetails{DOB: "1994-05-20"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountDuplicatePhone(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectRollback()

	_, err := repo.CreateAccount(context.Background(), NewAccount{
		Phone: "9000000001", PasswordHash: "h", PasswordEnc: "e",
	})
	assert.ErrorIs(t, err, ErrPhoneExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountRollsBackOnProfileFailure(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.CreateAccount(context.Background(), NewAccount{
		Phone: "9000000001", PasswordHash: "h", PasswordEnc: "e",
	})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountSurfacesCommitFailure(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_roles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("deadlock on commit"))

	id, err := repo.CreateAccount(context.Background(), NewAccount{
		Phone: "9000000001", PasswordHash: "h", PasswordEnc: "e",
	})
	assert.Error(t, err)
	assert.Empty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByPhone(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE phone=").
		WithArgs("9000000001").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("uid-1", "9000000001", nil, "hash", "enc", true, now, now))

	u, err := repo.GetByPhone(context.Background(), "9000000001")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", u.ID)
	assert.Equal(t, "", u.Email)
	assert.True(t, u.IsActive)
}

func TestGetByPhoneNotFound(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE phone=").
		WithArgs("9000000009").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByPhone(context.Background(), "9000000009")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRolesFor(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT role FROM user_roles").
		WithArgs("uid-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin").AddRow("user"))

	roles, err := repo.RolesFor(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "user"}, roles)
}

func TestUpdateCredentials(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("hash", "enc", "uid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateCredentials(context.Background(), "uid-1", "hash", "enc"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCredentialsUnknownUser(t *testing.T) {
	db, mock, repo := setupUserRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("hash", "enc", "uid-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCredentials(context.Background(), "uid-9", "hash", "enc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
