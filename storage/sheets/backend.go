package sheets

import "context"

// Backend is the transport to a spreadsheet. Every error it returns is a
// *TransientError, *PermanentError, *NotFoundError, ErrSheetExists or a context error.
type Backend interface {
	SheetExists(ctx context.Context, name string) (bool, error)
	// AddSheet creates a sheet sized for `cols` columns. Returns ErrSheetExists if it is already there.
	AddSheet(ctx context.Context, name string, cols int) error
	// ReadRow returns row `n` (1-based), empty if the row is blank.
	ReadRow(ctx context.Context, name string, n int) ([]string, error)
	WriteHeader(ctx context.Context, name string, header []string) error
	// AppendRow adds `values` after the last row. A row is either fully written or not at all.
	AppendRow(ctx context.Context, name string, values []string) error
	// ReadAll returns every row of the sheet, header included.
	ReadAll(ctx context.Context, name string) ([][]string, error)
}
