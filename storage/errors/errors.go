package errors

import "errors"

// UnknownTable is returned when a table name has no schema entry.
type UnknownTable struct {
	msg string
}

func NewUnknownTable(msg string) error {
	return &UnknownTable{msg: msg}
}

func (e *UnknownTable) Error() string {
	return e.msg
}

func IsUnknownTable(err error) bool {
	var e *UnknownTable
	return errors.As(err, &e)
}

// InvalidSaveMode is returned when a store does not support the requested
// save mode.
type InvalidSaveMode struct {
	msg string
}

func NewInvalidSaveMode(msg string) error {
	return &InvalidSaveMode{msg: msg}
}

func (e *InvalidSaveMode) Error() string {
	return e.msg
}

func IsInvalidSaveMode(err error) bool {
	var e *InvalidSaveMode
	return errors.As(err, &e)
}
