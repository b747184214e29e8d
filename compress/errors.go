package compress

import (
	"errors"
	"fmt"
)

// Kind classifies a failed compression request.
type Kind int

const (
	// KindBadInput covers documents that can never succeed as submitted:
	// an unknown preset or a PDF that PDFium cannot load.
	KindBadInput Kind = iota + 1

	// KindInternal covers everything else: storage, PDFium and save failures.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad_input"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%v] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func BadInput(op string, err error) error {
	return &Error{Kind: KindBadInput, Op: op, Err: err}
}

func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error count as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsBadInput(err error) bool {
	return err != nil && KindOf(err) == KindBadInput
}
