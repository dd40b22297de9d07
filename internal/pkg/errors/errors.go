package errors

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid")
	ErrConflict  = errors.New("conflict")
	ErrTooMany   = errors.New("too many requests")
	ErrInternal  = errors.New("internal")
	ErrIntegrity = errors.New("storage integrity violation")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}
