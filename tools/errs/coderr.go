package errs

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CodeError carries a stable numeric code alongside the message so handlers
// can map failures onto wire events without string matching.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	parts := make([]string, 0, 3)
	parts = append(parts, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	return strings.Join(parts, " ")
}

// WithDetail returns a copy carrying extra context; the original sentinel
// stays untouched so errors.Is keeps working.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// Is matches by code, so a detailed copy matches its sentinel.
func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !stderrors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// Wrap annotates err with a message and a stack, delegating to pkg/errors.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message and a stack.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// New builds a plain stack-carrying error for cases without a code.
func New(msg string) error { return errors.New(msg) }

// Is reports whether err matches target, unwrapping as needed.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }
