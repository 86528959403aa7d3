package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/whisky55/rede-social/store"
)

type Kind string

const (
	KindValidation  Kind = "validation"
	KindPermission  Kind = "permission"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
)

// Error est l'erreur métier renvoyée par le Service.
// errors.Is(err, ErrNotFound) compare uniquement le Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrPermission  = &Error{Kind: KindPermission}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrUnavailable = &Error{Kind: KindUnavailable}
)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Retryable indique si l'appelant peut rejouer la requête telle quelle
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func permissionf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermission, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// KindOf renvoie le Kind d'une erreur; une erreur inconnue est traitée comme une panne
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// storeError traduit une erreur de l'adaptateur pour le document nommé
func storeError(err error, what string) error {
	var e *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return err
	case errors.Is(err, store.ErrNotFound):
		return notFoundf("%s not found", what)
	case errors.Is(err, store.ErrConflict):
		return &Error{Kind: KindConflict, Msg: what + " was modified concurrently", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return unavailable("store timeout", err)
	case errors.Is(err, context.Canceled):
		return unavailable("request canceled", err)
	}
	return unavailable("store failure", err)
}
