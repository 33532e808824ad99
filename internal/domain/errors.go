package domain

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error classification.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeSpamRejected        Code = "SPAM_REJECTED"
	CodeConflict            Code = "CONFLICT"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
	CodeWalletNotFound      Code = "WALLET_NOT_FOUND"
	CodeWalletAlreadyExists Code = "WALLET_ALREADY_EXISTS"
	CodeSelfTransfer        Code = "SELF_TRANSFER"
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeTransferFailed      Code = "TRANSFER_FAILED"
	CodeStorage             Code = "STORAGE_ERROR"
)

// Error is a classified domain failure. Message is safe to show to clients;
// Err holds the underlying cause and is never rendered by the HTTP layer.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrSpamRejected        = &Error{Code: CodeSpamRejected, Message: "invalid email address. please use a valid email address"}
	ErrConflict            = &Error{Code: CodeConflict, Message: "resource already exists"}
	ErrUserNotFound        = &Error{Code: CodeUserNotFound, Message: "user not found"}
	ErrWalletNotFound      = &Error{Code: CodeWalletNotFound, Message: "wallet not found"}
	ErrWalletAlreadyExists = &Error{Code: CodeWalletAlreadyExists, Message: "user already has a wallet"}
	ErrSelfTransfer        = &Error{Code: CodeSelfTransfer, Message: "cannot transfer funds to yourself"}
	ErrInvalidAmount       = &Error{Code: CodeInvalidAmount, Message: "amount must be a positive number"}
	ErrInsufficientBalance = &Error{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrTransferFailed      = &Error{Code: CodeTransferFailed, Message: "failed to transfer funds. please try again later"}
	ErrStorage             = &Error{Code: CodeStorage, Message: "storage failure. please try again later"}
)

// Newf builds a classified error with a formatted client-facing message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under code with a client-facing message.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the classification of err, or "" for unclassified errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the client-facing message of a classified error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
