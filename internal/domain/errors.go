package domain

import (
	"errors"
	"fmt"
)

// 领域错误（HTTP 层据此映射状态码）
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalid          = errors.New("invalid input")
	ErrIdentityConflict = errors.New("identity conflict")
)

// kindError 带分类的错误：Error() 只返回具体信息，errors.Is 可匹配分类
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Invalidf 输入不合法（导入时记为行错误，手工操作时映射为 400）
func Invalidf(format string, args ...any) error {
	return &kindError{kind: ErrInvalid, msg: fmt.Sprintf(format, args...)}
}

// Conflictf 与现有数据冲突
func Conflictf(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// NotFoundf 目标不存在
func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// IdentityConflictf 自然键已绑定到不兼容的实体
func IdentityConflictf(format string, args ...any) error {
	return &kindError{kind: ErrIdentityConflict, msg: fmt.Sprintf(format, args...)}
}

// IsRowError 是否只影响单行（不中断整个导入）
func IsRowError(err error) bool {
	return errors.Is(err, ErrInvalid) || errors.Is(err, ErrIdentityConflict)
}
