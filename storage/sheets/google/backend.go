package gsheets

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/trezcool/shule/core"
	store "github.com/trezcool/shule/storage/sheets"
)

// new sheets are created with this many rows
const defaultRowCount = 1000

var spreadsheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetID accepts a spreadsheet URL or a bare ID.
func SpreadsheetID(s string) string {
	s = core.CleanString(s)
	if m := spreadsheetIDRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// Backend talks to one spreadsheet through the Sheets v4 API.
type Backend struct {
	svc *sheets.Service
	id  string
}

var _ store.Backend = (*Backend)(nil)

// NewBackend authenticates with service account credentials, from a file or inline JSON.
func NewBackend(ctx context.Context, conf core.SheetsConfig) (*Backend, error) {
	id := SpreadsheetID(conf.Spreadsheet)
	if id == "" {
		return nil, errors.New("no spreadsheet configured")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case conf.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(conf.CredentialsJSON)))
	case conf.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(conf.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets service")
	}
	return &Backend{svc: svc, id: id}, nil
}

func (b *Backend) SheetExists(ctx context.Context, name string) (bool, error) {
	ss, err := b.svc.Spreadsheets.Get(b.id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, classify("get spreadsheet", b.id, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return true, nil
		}
	}
	return false, nil
}

func (b *Backend) AddSheet(ctx context.Context, name string, cols int) error {
	if cols < 1 {
		cols = 1
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: name,
					GridProperties: &sheets.GridProperties{
						RowCount:    defaultRowCount,
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	_, err := b.svc.Spreadsheets.BatchUpdate(b.id, req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(gerr.Message), "already exists") {
			return store.ErrSheetExists
		}
		return classify("add sheet", name, err)
	}
	return nil
}

func (b *Backend) ReadRow(ctx context.Context, name string, n int) ([]string, error) {
	vr, err := b.svc.Spreadsheets.Values.Get(b.id, fmt.Sprintf("%s!%d:%d", quote(name), n, n)).Context(ctx).Do()
	if err != nil {
		return nil, classify("read row", name, err)
	}
	if len(vr.Values) == 0 {
		return []string{}, nil
	}
	return toStrings(vr.Values[0]), nil
}

func (b *Backend) WriteHeader(ctx context.Context, name string, header []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(header)}}
	_, err := b.svc.Spreadsheets.Values.Update(b.id, quote(name)+"!1:1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classify("write header", name, err)
	}
	return nil
}

// AppendRow writes cells as RAW so user input is never evaluated as a formula.
func (b *Backend) AppendRow(ctx context.Context, name string, values []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(values)}}
	_, err := b.svc.Spreadsheets.Values.Append(b.id, quote(name)+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classify("append row", name, err)
	}
	return nil
}

func (b *Backend) ReadAll(ctx context.Context, name string) ([][]string, error) {
	vr, err := b.svc.Spreadsheets.Values.Get(b.id, quote(name)).Context(ctx).Do()
	if err != nil {
		return nil, classify("read all", name, err)
	}
	rows := make([][]string, 0, len(vr.Values))
	for _, r := range vr.Values {
		rows = append(rows, toStrings(r))
	}
	return rows, nil
}

// classify maps an API error to the record store taxonomy.
func classify(op, name string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return &store.TransientError{Op: op, Err: err}
		case gerr.Code == http.StatusNotFound:
			return &store.NotFoundError{Name: name}
		case gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range"):
			return &store.NotFoundError{Name: name} // missing sheet
		case gerr.Code == http.StatusUnauthorized:
			// rejected credentials fail every later call too
			return core.NewShutdownError("record store credentials rejected", &store.PermanentError{Op: op, Err: err})
		default:
			return &store.PermanentError{Op: op, Err: err}
		}
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return &store.TransientError{Op: op, Err: err}
	}
	return &store.PermanentError{Op: op, Err: err}
}

// quote renders a sheet name for A1 notation.
func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func toStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = fmt.Sprint(c)
		}
	}
	return out
}
