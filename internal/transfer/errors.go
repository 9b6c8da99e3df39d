package transfer

import (
	"errors"
	"fmt"
)

var (
	ErrChannelClosed     = errors.New("channel closed")
	ErrChannelNotOpen    = errors.New("channel not open")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrSizeMismatch      = errors.New("received more bytes than announced")
	ErrSourceShort       = errors.New("source ended before the announced size")
	ErrSenderUsed        = errors.New("sender already used")
	ErrBufferTimeout     = errors.New("buffer drain timeout")
	ErrTimeout           = errors.New("timeout")
)

// TransferError annotates an error with the operation and, when known,
// the file it concerned.
type TransferError struct {
	Op      string
	File    string
	Err     error
	Details string
}

// Error renders "op [file]: err [(details)]". It is also the reason
// string stored in the ledger for failed transfers.
func (e *TransferError) Error() string {
	msg := e.Op
	if e.File != "" {
		msg += " " + e.File
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Err)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

func NewFileError(op, file string, err error) *TransferError {
	return &TransferError{Op: op, File: file, Err: err}
}

func WrapError(op string, err error, details string) *TransferError {
	return &TransferError{Op: op, Err: err, Details: details}
}
