package storage

import (
	"context"
	"errors"

	"github.com/example/vocabhat/pkg/vocab"
)

// Thin wrappers around vocab.NewError so repository methods read the same
// way Core's own methods do, instead of spelling out vocab.NewError(...)
// with the full Kind constant at every call site.

func vocabNotFound(op string, err error) error {
	return vocab.NewError(op, vocab.KindNotFound, err)
}

func vocabConflict(op string, err error) error {
	return vocab.NewError(op, vocab.KindConflict, err)
}

func vocabExhausted(op string, err error) error {
	return vocab.NewError(op, vocab.KindExhausted, err)
}

// vocabInternal wraps a driver/query error as KindInternal, except a
// context deadline or cancellation, which every DB call site routes through
// here and which callers need to distinguish from a genuine storage fault.
func vocabInternal(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return vocab.NewError(op, vocab.KindDeadlineExceeded, err)
	}
	return vocab.NewError(op, vocab.KindInternal, err)
}
