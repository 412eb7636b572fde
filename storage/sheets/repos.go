package sheets

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	store *Store
}

var (
	_ user.Repository         = (*userRepository)(nil)
	_ user.SignupRepository   = (*signupRepository)(nil)
	_ quiz.QuestionRepository = (*questionRepository)(nil)
	_ quiz.ResultRepository   = (*resultRepository)(nil)
)

func NewUserRepository(store *Store) user.Repository {
	return &userRepository{store: store}
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row, ok, err := repo.store.FindUser(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return rowToUser(row), nil
}

func (repo *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok, err := repo.store.FindUserStrict(ctx, email)
	return ok, err
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	values := []string{usr.Email, usr.Name, usr.Role, core.FormatBool(usr.IsActive)}
	if err := repo.store.AppendRow(ctx, TableUsers, values); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func rowToUser(row Row) user.User {
	role := core.CleanString(row.Get("role"), true /* lower */)
	if role == "" {
		role = user.RoleStudent
	}
	return user.User{
		Email:    core.CleanString(row.Get("email"), true /* lower */),
		Name:     core.CleanString(row.Get("name")),
		Role:     role,
		IsActive: core.ParseBool(row.Get("active")),
	}
}

type signupRepository struct {
	store *Store
}

func NewSignupRepository(store *Store) user.SignupRepository {
	return &signupRepository{store: store}
}

func (repo *signupRepository) CreateSignupRequest(ctx context.Context, req user.SignupRequest) error {
	payload, err := json.Marshal(req.Payload())
	if err != nil {
		return errors.Wrap(err, "encoding signup payload")
	}
	values := []string{core.FormatTimestamp(req.CreatedAt), req.Name, req.Email, string(payload)}
	return repo.store.AppendRow(ctx, TableSignup, values)
}

type questionRepository struct {
	store *Store
}

func NewQuestionRepository(store *Store) quiz.QuestionRepository {
	return &questionRepository{store: store}
}

func (repo *questionRepository) QueryQuestionRows(ctx context.Context) ([]quiz.RawRow, error) {
	rows, err := repo.store.GetRows(ctx, TableTests)
	if err != nil {
		return nil, err
	}
	raw := make([]quiz.RawRow, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, quiz.RawRow(row))
	}
	return raw, nil
}

type resultRepository struct {
	store *Store
}

func NewResultRepository(store *Store) quiz.ResultRepository {
	return &resultRepository{store: store}
}

func (repo *resultRepository) CreateResult(ctx context.Context, rec quiz.Record) error {
	answers := rec.Answers
	if answers == nil {
		answers = quiz.Answers{}
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return errors.Wrap(err, "encoding answers")
	}
	values := []string{
		core.FormatTimestamp(rec.Timestamp),
		rec.Email,
		rec.Subject,
		strconv.Itoa(rec.Score),
		strconv.Itoa(rec.Total),
		string(payload),
	}
	return repo.store.AppendRow(ctx, TableResults, values)
}

func (repo *resultRepository) CountResultsByEmail(ctx context.Context, email string) (int, error) {
	return repo.store.CountForEmail(ctx, TableResults, email)
}
