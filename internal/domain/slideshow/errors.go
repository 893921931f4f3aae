package slideshow

import "errors"

// ErrInvalidRecord is returned when a record cannot be decoded at all.
// Malformed slides never produce this error; they are kept and diagnosed at render time.
var ErrInvalidRecord = errors.New("invalid slideshow record")

// InvalidRecordError wraps the decode failure of a record.
type InvalidRecordError struct {
	Err error
}

func (e *InvalidRecordError) Error() string {
	return ErrInvalidRecord.Error() + ": " + e.Err.Error()
}

func (e *InvalidRecordError) Unwrap() error { return e.Err }

// Is matches ErrInvalidRecord.
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}
