package sheets

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrSheetExists = errors.New("sheet already exists") // AddSheet lost a creation race
)

// TransientError is a failure worth retrying: rate limiting, 5xx, network trouble.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: transient: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError will fail again if retried: bad request, permission denied.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("%s: permanent: %v", e.Op, e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// NotFoundError is returned when the spreadsheet or a sheet cannot be found.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found", e.Name) }

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
