package inmemsheets

import (
	"context"
	"sync"

	"github.com/trezcool/shule/storage/sheets"
)

// Operations, for fault injection and call counting.
const (
	OpSheetExists = "SheetExists"
	OpAddSheet    = "AddSheet"
	OpReadRow     = "ReadRow"
	OpWriteHeader = "WriteHeader"
	OpAppendRow   = "AppendRow"
	OpReadAll     = "ReadAll"
)

// Backend keeps sheets in memory. Appends are atomic.
type Backend struct {
	mutex  sync.RWMutex
	sheets map[string][][]string
	faults map[string][]error // {op: queued errors}
	calls  map[string]int
}

var _ sheets.Backend = (*Backend)(nil)

func NewBackend() *Backend {
	return &Backend{
		sheets: make(map[string][][]string),
		faults: make(map[string][]error),
		calls:  make(map[string]int),
	}
}

// Seed replaces sheet `name` with `rows`, header included.
func (b *Backend) Seed(name string, rows ...[]string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.sheets[name] = copyRows(rows)
}

// Drop deletes sheet `name`, as an editor would.
func (b *Backend) Drop(name string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.sheets, name)
}

// Rows returns a copy of sheet `name`, header included.
func (b *Backend) Rows(name string) [][]string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return copyRows(b.sheets[name])
}

// FailNext makes the next len(errs) calls to `op` fail with errs, in order.
func (b *Backend) FailNext(op string, errs ...error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.faults[op] = append(b.faults[op], errs...)
}

// Calls returns the number of calls to `op`, failed ones included.
func (b *Backend) Calls(op string) int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.calls[op]
}

// enter counts the call and pops the next queued fault. Must hold the write lock.
func (b *Backend) enter(ctx context.Context, op string) error {
	b.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if q := b.faults[op]; len(q) > 0 {
		b.faults[op] = q[1:]
		return q[0]
	}
	return nil
}

func (b *Backend) SheetExists(ctx context.Context, name string) (bool, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.enter(ctx, OpSheetExists); err != nil {
		return false, err
	}
	_, ok := b.sheets[name]
	return ok, nil
}

func (b *Backend) AddSheet(ctx context.Context, name string, _ int) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.enter(ctx, OpAddSheet); err != nil {
		return err
	}
	if _, ok := b.sheets[name]; ok {
		return sheets.ErrSheetExists
	}
	b.sheets[name] = [][]string{}
	return nil
}

func (b *Backend) ReadRow(ctx context.Context, name string, n int) ([]string, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.enter(ctx, OpReadRow); err != nil {
		return nil, err
	}
	rows, ok := b.sheets[name]
	if !ok {
		return nil, &sheets.NotFoundError{Name: name}
	}
	if n < 1 || n > len(rows) {
		return []string{}, nil
	}
	return append([]string(nil), rows[n-1]...), nil
}

func (b *Backend) WriteHeader(ctx context.Context, name string, header []string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.enter(ctx, OpWriteHeader); err != nil {
		return err
	}
	rows, ok := b.sheets[name]
	if !ok {
		return &sheets.NotFoundError{Name: name}
	}
	h := append([]string(nil), header...)
	if len(rows) == 0 {
		b.sheets[name] = [][]string{h}
	} else {
		rows[0] = h
	}
	return nil
}

func (b *Backend) AppendRow(ctx context.Context, name string, values []string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.enter(ctx, OpAppendRow); err != nil {
		return err
	}
	if _, ok := b.sheets[name]; !ok {
		return &sheets.NotFoundError{Name: name}
	}
	b.sheets[name] = append(b.sheets[name], append([]string(nil), values...))
	return nil
}

func (b *Backend) ReadAll(ctx context.Context, name string) ([][]string, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.enter(ctx, OpReadAll); err != nil {
		return nil, err
	}
	rows, ok := b.sheets[name]
	if !ok {
		return nil, &sheets.NotFoundError{Name: name}
	}
	return copyRows(rows), nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}
