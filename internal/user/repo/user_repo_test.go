package repo

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowtree/userhub/internal/reqerror"
)

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func reqStatus(t *testing.T, err error) int {
	t.Helper()
	var re *reqerror.ReqError
	require.ErrorAs(t, err, &re)
	return re.Status
}

func strptr(s string) *string { return &s }

var (
	signupQuery = regexp.QuoteMeta(`SELECT sp_sign_up($1, $2, $3)`)
	loginQuery  = regexp.QuoteMeta(`SELECT return_code, user_id FROM sp_login($1, $2, $3)`)
	editQuery   = regexp.QuoteMeta(`SELECT sp_edit_user($1, $2, $3, $4)`)
	findQuery   = regexp.QuoteMeta(`SELECT user_id, username, email FROM t_users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)`)
	listQuery = regexp.QuoteMeta(`SELECT user_id, username, email FROM t_users`)
)

func TestAddUserReturnCodes(t *testing.T) {
	tests := []struct {
		name       string
		code       any
		wantStatus int
	}{
		{name: "success", code: 0, wantStatus: 0},
		{name: "missing fields", code: -1, wantStatus: http.StatusBadRequest},
		{name: "email exists", code: -2, wantStatus: http.StatusConflict},
		{name: "username exists", code: -3, wantStatus: http.StatusConflict},
		{name: "internal", code: -4, wantStatus: http.StatusInternalServerError},
		{name: "unknown code", code: 42, wantStatus: http.StatusInternalServerError},
		{name: "null code", code: nil, wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(signupQuery).
				WithArgs(strptr("alice"), "a@b.com", "hash").
				WillReturnRows(sqlmock.NewRows([]string{"sp_sign_up"}).AddRow(tt.code))

			err := repo.AddUser(context.Background(), "a@b.com", strptr("alice"), "hash")
			if tt.wantStatus == 0 {
				require.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantStatus, reqStatus(t, err))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLoginReturnCodes(t *testing.T) {
	digest := bytes.Repeat([]byte{0x01}, 64)

	tests := []struct {
		name       string
		code       any
		userID     any
		wantID     int64
		wantStatus int
	}{
		{name: "success", code: 0, userID: int64(7), wantID: 7},
		{name: "success without user id fails fast", code: 0, userID: nil, wantStatus: http.StatusInternalServerError},
		{name: "invalid credentials", code: -1, userID: nil, wantStatus: http.StatusUnauthorized},
		{name: "database error", code: -2, userID: nil, wantStatus: http.StatusInternalServerError},
		{name: "unknown code", code: -9, userID: nil, wantStatus: http.StatusInternalServerError},
		{name: "null code", code: nil, userID: nil, wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(loginQuery).
				WithArgs("alice", "secret1", digest).
				WillReturnRows(sqlmock.NewRows([]string{"return_code", "user_id"}).AddRow(tt.code, tt.userID))

			id, err := repo.Login(context.Background(), "alice", "secret1", digest)
			if tt.wantStatus == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			} else {
				assert.Equal(t, tt.wantStatus, reqStatus(t, err))
			}
		})
	}
}

func TestLoginQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(loginQuery).WillReturnError(errors.New("boom"))

	_, err := repo.Login(context.Background(), "alice", "pw", []byte{0x01})
	assert.ErrorContains(t, err, "execute sp_login")
}

func TestEditUserReturnCodes(t *testing.T) {
	digest := bytes.Repeat([]byte{0x02}, 64)

	tests := []struct {
		name       string
		code       any
		wantStatus int
	}{
		{name: "success", code: 0, wantStatus: 0},
		{name: "invalid token", code: -1, wantStatus: http.StatusUnauthorized},
		{name: "username exists", code: -2, wantStatus: http.StatusConflict},
		{name: "email exists", code: -3, wantStatus: http.StatusConflict},
		{name: "internal", code: -4, wantStatus: http.StatusInternalServerError},
		{name: "unknown code", code: 99, wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(editQuery).
				WithArgs(digest, strptr("newname"), nil, nil).
				WillReturnRows(sqlmock.NewRows([]string{"sp_edit_user"}).AddRow(tt.code))

			err := repo.EditUser(context.Background(), digest, strptr("newname"), nil, nil)
			if tt.wantStatus == 0 {
				require.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantStatus, reqStatus(t, err))
			}
		})
	}
}

func TestFindUserNoMatchIsNil(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(findQuery).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "email"}))

	users, err := repo.FindUser(context.Background(), nil, strptr("a@b.com"))
	require.NoError(t, err)
	assert.Nil(t, users)
}

func TestFindUserMatches(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(findQuery).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "email"}).
			AddRow(int64(3), "Alice", "a@b.com"))

	users, err := repo.FindUser(context.Background(), strptr("alice"), nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(3), users[0].ID)
	assert.Equal(t, "a@b.com", users[0].Email)
}

func TestFindUserRequiresIdentifier(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.FindUser(context.Background(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, reqStatus(t, err))
}

func TestListUsersEmptySlice(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "email"}))

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestListUsers(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "email"}).
			AddRow(int64(1), "alice", "a@b.com").
			AddRow(int64(2), nil, "b@c.com"))

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Nil(t, users[1].Username)
}
