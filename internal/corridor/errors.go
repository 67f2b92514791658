package corridor

import (
	"errors"
	"fmt"
)

// ValidationError 表示输入不合法（几何为空、buffer/budget 非正数等）。
// 校验失败立即返回，不做任何部分工作。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation 判断 err 是否为输入校验错误，路由层据此映射 400。
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
