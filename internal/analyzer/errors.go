package analyzer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 分析失败的类别
type ErrorKind string

const (
	// KindParse 模型返回的不是合法 JSON
	KindParse ErrorKind = "parse_error"
	// KindValidation JSON 缺少字段或字段类型错误
	KindValidation ErrorKind = "validation_error"
	// KindProvider 模型调用本身失败（配额错误除外）
	KindProvider ErrorKind = "provider_error"
)

// Error 分析失败，Message 可直接展示给用户
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 返回错误类别，非分析错误返回空串
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// ErrTitleUnavailable 标题提取失败，调用方应使用时间戳占位标题
var ErrTitleUnavailable = errors.New("job title unavailable")

// IsQuotaError 错误文本包含 "quota"(不区分大小写) 或 "429" 视为配额耗尽
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(strings.ToLower(msg), "quota") || strings.Contains(msg, "429")
}
