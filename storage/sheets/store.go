package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// DefaultRetryDelays is the wait before each attempt: three attempts in total.
var DefaultRetryDelays = []time.Duration{0, 300 * time.Millisecond, 800 * time.Millisecond}

// sleepFunc waits for `d` or until ctx is done. mockable
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Store is the record store: named tables of rows over a spreadsheet Backend.
// It is safe for concurrent use as long as the Backend is.
type Store struct {
	backend Backend
	delays  []time.Duration
	logger  core.Logger

	ensured sync.Map // {table: struct{}}
}

type Options struct {
	Backend     Backend
	RetryDelays []time.Duration // DefaultRetryDelays when empty
	Logger      core.Logger
}

func NewStore(opts Options) *Store {
	delays := opts.RetryDelays
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}
	return &Store{backend: opts.Backend, delays: delays, logger: opts.Logger}
}

// retry runs `fn` over the delay schedule while it fails with a *TransientError.
// Any other error stops the schedule. Exhausted retries return the last transient error.
func (s *Store) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i, delay := range s.delays {
		if serr := sleepFunc(ctx, delay); serr != nil {
			return serr
		}
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}
		if i < len(s.delays)-1 {
			s.logger.Warn(fmt.Sprintf("%s: attempt %d/%d failed, retrying", op, i+1, len(s.delays)), err)
		}
	}
	return err
}

// EnsureTable creates table `name` with `header` if missing, and writes the header
// when row 1 is empty. A table with content in row 1 is left untouched.
func (s *Store) EnsureTable(ctx context.Context, name string, header []string) error {
	var exists bool
	err := s.retry(ctx, "sheet exists "+name, func() (err error) {
		exists, err = s.backend.SheetExists(ctx, name)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "checking table %s", name)
	}

	if !exists {
		err = s.retry(ctx, "add sheet "+name, func() error {
			return s.backend.AddSheet(ctx, name, len(header))
		})
		if err != nil && errors.Cause(err) != ErrSheetExists {
			return errors.Wrapf(err, "creating table %s", name)
		}
	}

	var first []string
	err = s.retry(ctx, "read header "+name, func() (err error) {
		first, err = s.backend.ReadRow(ctx, name, 1)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "reading header of %s", name)
	}
	if !isBlank(first) {
		s.ensured.Store(name, struct{}{})
		return nil
	}

	err = s.retry(ctx, "write header "+name, func() error {
		return s.backend.WriteHeader(ctx, name, header)
	})
	if err != nil {
		return errors.Wrapf(err, "writing header of %s", name)
	}
	s.ensured.Store(name, struct{}{})
	return nil
}

// EnsureTables ensures every known table.
func (s *Store) EnsureTables(ctx context.Context) error {
	for _, name := range Tables {
		if err := s.EnsureTable(ctx, name, Schemas[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensure(ctx context.Context, table string) error {
	if _, ok := s.ensured.Load(table); ok {
		return nil
	}
	header, ok := Schemas[table]
	if !ok {
		return &PermanentError{Op: "ensure " + table, Err: errors.New("unknown table")}
	}
	return s.EnsureTable(ctx, table, header)
}

// withTable runs `fn` against `table`, ensuring it first. A table that vanished since it
// was ensured is created again and `fn` runs once more.
func (s *Store) withTable(ctx context.Context, table string, fn func() error) error {
	if err := s.ensure(ctx, table); err != nil {
		return err
	}
	err := fn()
	if err == nil || !IsNotFound(err) {
		return err
	}

	s.logger.Warn(fmt.Sprintf("table %s is gone, creating it again", table), err)
	s.ensured.Delete(table)
	if err := s.ensure(ctx, table); err != nil {
		return err
	}
	return fn()
}

// AppendRow appends one row to `table`, creating the table first if needed.
func (s *Store) AppendRow(ctx context.Context, table string, values []string) error {
	err := s.withTable(ctx, table, func() error {
		return s.retry(ctx, "append "+table, func() error {
			return s.backend.AppendRow(ctx, table, values)
		})
	})
	if err != nil {
		s.logger.Error(fmt.Sprintf("appending to %s failed", table), err)
		return errors.Wrapf(err, "appending to %s", table)
	}
	return nil
}

// GetRows returns the data rows of `table`. When the backend stays unavailable
// after every retry, an empty slice is returned with a nil error.
func (s *Store) GetRows(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.GetRowsStrict(ctx, table)
	if err != nil && IsTransient(err) {
		s.logger.Warn(fmt.Sprintf("reading %s: backend unavailable, serving no rows", table), err)
		return []Row{}, nil
	}
	return rows, err
}

// GetRowsStrict is GetRows without the degraded mode: exhausted retries return the
// transient error. Use it where an empty table would be taken for a fact.
func (s *Store) GetRowsStrict(ctx context.Context, table string) ([]Row, error) {
	var values [][]string
	err := s.withTable(ctx, table, func() error {
		return s.retry(ctx, "read "+table, func() (err error) {
			values, err = s.backend.ReadAll(ctx, table)
			return err
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", table)
	}
	return toRows(values), nil
}

// FindUser returns the `users` row whose email matches, ignoring case and surrounding spaces.
// It reads through GetRows, so an unavailable table finds nobody.
func (s *Store) FindUser(ctx context.Context, email string) (Row, bool, error) {
	rows, err := s.GetRows(ctx, TableUsers)
	if err != nil {
		return nil, false, err
	}
	row, ok := findEmail(rows, email)
	return row, ok, nil
}

// FindUserStrict is FindUser over GetRowsStrict.
func (s *Store) FindUserStrict(ctx context.Context, email string) (Row, bool, error) {
	rows, err := s.GetRowsStrict(ctx, TableUsers)
	if err != nil {
		return nil, false, err
	}
	row, ok := findEmail(rows, email)
	return row, ok, nil
}

func findEmail(rows []Row, email string) (Row, bool) {
	email = core.CleanString(email, true /* lower */)
	for _, row := range rows {
		if core.CleanString(row.Get("email"), true /* lower */) == email {
			return row, true
		}
	}
	return nil, false
}

// CountForEmail counts the rows of `table` whose email matches, ignoring case.
func (s *Store) CountForEmail(ctx context.Context, table, email string) (int, error) {
	rows, err := s.GetRows(ctx, table)
	if err != nil {
		return 0, err
	}
	var n int
	for _, row := range rows {
		if strings.EqualFold(core.CleanString(row.Get("email")), core.CleanString(email)) {
			n++
		}
	}
	return n, nil
}
