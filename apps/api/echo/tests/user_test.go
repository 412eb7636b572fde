package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/sheets"
	inmemsheets "github.com/trezcool/shule/storage/sheets/inmem"
)

func TestHome(t *testing.T) {
	app := setup(t)
	rec := app.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to "+app.conf.AppName)
}

func TestLogin(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name  string
		email string
		want  LoginResponse
	}{
		{"active user", " ANN@school.io ", LoginResponse{State: user.StateLoggedIn, Email: "ann@school.io", Name: "Ann"}},
		{"active user without name", "bob@school.io", LoginResponse{State: user.StateLoggedIn, Email: "bob@school.io", Name: "bob"}},
		{"inactive user", "carl@school.io", LoginResponse{State: user.StatePendingSignup, Email: "carl@school.io", Name: "Carl", Known: true}},
		{"unknown user", "dan@school.io", LoginResponse{State: user.StatePendingSignup, Email: "dan@school.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/v1/login", "", marshallObj(t, user.LoginRequest{Email: tt.email}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res LoginResponse
			decode(t, rec, &res)
			assert.NotEmpty(t, res.Token)
			res.Token = ""
			assert.Equal(t, tt.want, res)
		})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name:     "invalid email",
			method:   http.MethodPost,
			path:     "/v1/login",
			body:     marshallObj(t, user.LoginRequest{Email: "ann"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "enter a valid email"}),
		},
		{
			name:     "blank email",
			method:   http.MethodPost,
			path:     "/v1/login",
			body:     marshallObj(t, user.LoginRequest{Email: "   "}),
			wantCode: http.StatusBadRequest,
		},
	})
}

// An unreachable users table reads as empty: everybody is sent to the signup form.
func TestLoginStoreUnavailable(t *testing.T) {
	app := setup(t)
	app.backend.FailNext(inmemsheets.OpReadAll,
		&sheets.TransientError{Op: "read all", Err: assert.AnError},
		&sheets.TransientError{Op: "read all", Err: assert.AnError},
		&sheets.TransientError{Op: "read all", Err: assert.AnError},
	)
	rec := app.do(http.MethodPost, "/v1/login", "", marshallObj(t, user.LoginRequest{Email: "ann@school.io"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	decode(t, rec, &res)
	assert.Equal(t, user.StatePendingSignup, res.State)
	assert.False(t, res.Known)
	assert.Equal(t, 3, app.backend.Calls(inmemsheets.OpReadAll))
}

func TestMe(t *testing.T) {
	app := setup(t)
	annToken := app.login(t, "ann@school.io")
	danToken := app.login(t, "dan@school.io")

	runHTTPTests(t, app, []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/me",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "pending session",
			method:   http.MethodGet,
			path:     "/v1/me",
			token:    danToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "logged in",
			method:   http.MethodGet,
			path:     "/v1/me",
			token:    annToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, MeResponse{Email: "ann@school.io", Name: "Ann", Role: user.RoleStudent, TestsPassed: 0}),
		},
	})

	t.Run("deactivated since login", func(t *testing.T) {
		app.backend.Seed(sheets.TableUsers, sheets.Schemas[sheets.TableUsers], []string{"ann@school.io", "Ann", "student", "no"})
		rec := app.do(http.MethodGet, "/v1/me", annToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestExpiredToken(t *testing.T) {
	app := setup(t)
	claims := app.auth.SessionClaims(user.LoginResult{
		Email: "ann@school.io",
		State: user.StateLoggedIn,
		User:  user.User{Email: "ann@school.io", Role: user.RoleStudent, IsActive: true},
	})
	claims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	token, err := app.auth.GenerateToken(claims)
	require.NoError(t, err)

	rec := app.do(http.MethodGet, "/v1/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignup(t *testing.T) {
	app := setup(t)
	annToken := app.login(t, "ann@school.io")
	danToken := app.login(t, "dan@school.io")
	carlToken := app.login(t, "carl@school.io")

	t.Run("logged in session", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/signup", annToken, marshallObj(t, SignupData{Name: "Ann"}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid group", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/signup", danToken, marshallObj(t, SignupData{Name: "Dan", Group: "middle"}))
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "group")
		assert.Len(t, app.backend.Rows(sheets.TableSignup), 0)
	})

	t.Run("unknown user", func(t *testing.T) {
		// the failed attempt above must not burn the token
		rec := app.do(http.MethodPost, "/v1/signup", danToken, marshallObj(t, SignupData{Name: "Dan", Group: "младшая", Comment: "hi"}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rows := app.backend.Rows(sheets.TableSignup)
		require.Len(t, rows, 2) // header + request
		assert.Equal(t, []string{"Dan", "dan@school.io", `{"group":"junior","comment":"hi"}`}, rows[1][1:])

		sent := app.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "admin@school.io", sent[0].To[0].Address)
		assert.Contains(t, sent[0].Subject, "dan@school.io")
	})

	t.Run("replayed token", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/signup", danToken, marshallObj(t, SignupData{Name: "Dan"}))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Len(t, app.backend.Rows(sheets.TableSignup), 2)
	})

	t.Run("known user defaults to its name", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/signup", carlToken, marshallObj(t, SignupData{}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rows := app.backend.Rows(sheets.TableSignup)
		require.Len(t, rows, 3)
		assert.Equal(t, "Carl", rows[2][1])
		assert.Len(t, app.mailSvc.SentMessages(), 2)
	})
}
