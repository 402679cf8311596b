package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 返回给调用方的错误分类
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindConflict          ErrorKind = "CONFLICT"
	KindUpstream          ErrorKind = "UPSTREAM_ERROR"
	KindConfiguration     ErrorKind = "CONFIGURATION_ERROR"
	KindResourceExhausted ErrorKind = "RESOURCE_EXHAUSTED"
	KindRouting           ErrorKind = "ROUTING_ERROR"
	KindInternal          ErrorKind = "INTERNAL"
)

// 统一错误对象（store / 生成服务 → dispatcher）；Status 只在上游 HTTP 失败时有值
type Error struct {
	Kind   ErrorKind
	Msg    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 kind 比较：errors.Is(err, domain.ErrNotFound)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Status == 0 && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrUpstream          = &Error{Kind: KindUpstream}
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrResourceExhausted = &Error{Kind: KindResourceExhausted}
	ErrRouting           = &Error{Kind: KindRouting}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(k Kind, id string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %q not found", k, id)}
}

func Conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Msg: msg, Err: err}
}

// Upstream status 为 0 表示不是 HTTP 状态码导致的失败
func Upstream(status int, msg string, err error) error {
	return &Error{Kind: KindUpstream, Msg: msg, Status: status, Err: err}
}

func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)}
}

func Exhausted(msg string, err error) error {
	return &Error{Kind: KindResourceExhausted, Msg: msg, Err: err}
}

func Routing(op string) error {
	return &Error{Kind: KindRouting, Msg: fmt.Sprintf("unknown operation %q", op)}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// AsError 未知错误统一归为 INTERNAL
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
