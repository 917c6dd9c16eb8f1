package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示引用的实体不存在或状态不符。
	ErrNotFound = errors.New("not found")
	// ErrValidation 表示输入不合法，具体原因通过 %w 包装附带。
	ErrValidation = errors.New("validation failed")
	// ErrConflict 表示唯一键冲突。
	ErrConflict = errors.New("already exists")
	// ErrAggregationFailed 表示报表聚合过程中任意查询失败，调用方只会得到这个不透明错误。
	ErrAggregationFailed = errors.New("failed to load analytics")

	ErrPostNotFound       = fmt.Errorf("post %w", ErrNotFound)
	ErrPostNotPublished   = fmt.Errorf("post not published: %w", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category %w", ErrNotFound)
	ErrSubscriberNotFound = fmt.Errorf("subscriber %w", ErrNotFound)
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
