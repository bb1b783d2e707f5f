package processor

import (
	"errors"
	"fmt"
)

// 基础错误类型
var (
	ErrInvalidInput    = errors.New("输入不合法")
	ErrUnsupportedFile = errors.New("不支持的文件类型")
	ErrEmptyText       = errors.New("无法从文件中提取文本")
)

// ProcessError 带操作和文件信息的错误
type ProcessError struct {
	Op      string
	File    string
	BaseErr error
	Detail  string
}

func (e *ProcessError) Error() string {
	if e.File != "" {
		if e.Detail != "" {
			return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.File, e.Detail)
		}
		return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.File)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s): %s", e.BaseErr, e.Op, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s)", e.BaseErr, e.Op)
}

func (e *ProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newInputError(op, detail string) error {
	return &ProcessError{Op: op, BaseErr: ErrInvalidInput, Detail: detail}
}

func newUnsupportedError(op, file, detail string) error {
	return &ProcessError{Op: op, File: file, BaseErr: ErrUnsupportedFile, Detail: detail}
}

func newEmptyTextError(op, file string) error {
	return &ProcessError{Op: op, File: file, BaseErr: ErrEmptyText}
}
