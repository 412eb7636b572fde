package sheets_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/sheets"
	"github.com/trezcool/shule/storage/sheets/inmem"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store, backend, _ := setup(t)
	backend.Seed(sheets.TableUsers,
		sheets.Schemas[sheets.TableUsers],
		[]string{"Ann@School.io", " Ann ", "", "Да"},
		[]string{"bob@school.io", "Bob", "teacher", "no"},
	)
	repo := sheets.NewUserRepository(store)

	usr, err := repo.GetUserByEmail(ctx, "ann@school.io")
	require.NoError(t, err)
	assert.Equal(t, user.User{Email: "ann@school.io", Name: "Ann", Role: user.RoleStudent, IsActive: true}, usr)

	usr, err = repo.GetUserByEmail(ctx, "bob@school.io")
	require.NoError(t, err)
	assert.False(t, usr.IsActive)

	_, err = repo.GetUserByEmail(ctx, "carl@school.io")
	assert.Equal(t, user.ErrNotFound, err)

	_, err = repo.CreateUser(ctx, user.User{Email: "carl@school.io", Name: "Carl", Role: user.RoleAdmin, IsActive: true})
	require.NoError(t, err)
	usr, err = repo.GetUserByEmail(ctx, "CARL@school.io")
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsAdmin())
}

func TestUserRepository_EmailExists(t *testing.T) {
	ctx := context.Background()
	store, backend, _ := setup(t)
	backend.Seed(sheets.TableUsers, sheets.Schemas[sheets.TableUsers], []string{"ann@school.io", "Ann", "", "yes"})
	repo := sheets.NewUserRepository(store)

	ok, err := repo.EmailExists(ctx, " ANN@school.io")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.EmailExists(ctx, "bob@school.io")
	require.NoError(t, err)
	assert.False(t, ok)

	// an unreadable table is not an empty one
	backend.FailNext(inmemsheets.OpReadAll, errTransient, errTransient, errTransient)
	_, err = repo.EmailExists(ctx, "ann@school.io")
	assert.True(t, sheets.IsTransient(err), "failed! got %v", err)
}

func TestSignupRepository(t *testing.T) {
	store, backend, _ := setup(t)
	repo := sheets.NewSignupRepository(store)

	req := user.SignupRequest{
		Name: "Dan", Email: "dan@school.io", Group: "junior", Comment: "please",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, repo.CreateSignupRequest(context.Background(), req))

	rows := backend.Rows(sheets.TableSignup)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-01-02T03:04:05Z", "Dan", "dan@school.io", `{"group":"junior","comment":"please"}`}, rows[1])
}

func TestQuestionRepository(t *testing.T) {
	store, backend, _ := setup(t)
	backend.Seed(sheets.TableTests,
		[]string{"Subject", "QID", "Question", "A", "B", "C", "D", "Correct"},
		[]string{"Math", "1", "1+1?", "1", "2", "3", "4", "B"},
	)
	rows, err := sheets.NewQuestionRepository(store).QueryQuestionRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	q, err := quiz.NormalizeRow(rows[0], 1)
	require.NoError(t, err)
	assert.Equal(t, "math", q.Subject)
	assert.Equal(t, "b", q.Correct)
}

func TestResultRepository(t *testing.T) {
	ctx := context.Background()
	store, backend, _ := setup(t)
	repo := sheets.NewResultRepository(store)

	rec := quiz.Record{
		Timestamp: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Email:     "ann@school.io",
		Result:    quiz.Result{Subject: "math", Score: 2, Total: 3, Answers: quiz.Answers{"1": "a"}},
	}
	require.NoError(t, repo.CreateResult(ctx, rec))
	rec.Answers = nil
	require.NoError(t, repo.CreateResult(ctx, rec))

	rows := backend.Rows(sheets.TableResults)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-05-06T07:08:09Z", "ann@school.io", "math", "2", "3", `{"1":"a"}`}, rows[1])
	assert.Equal(t, "{}", rows[2][5])

	n, err := repo.CountResultsByEmail(ctx, "ANN@school.io")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
