package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicate 违反唯一约束（重复报名、重复订阅行、重复事件）
var ErrDuplicate = errors.New("duplicate key")

// translateError maps driver-specific unique violations onto ErrDuplicate.
// gorm's TranslateError covers most drivers; the string checks catch MySQL
// 1062 and sqlite when translation is off.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "1062") || strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint failed") {
		return ErrDuplicate
	}
	return err
}

// IsNotFound 记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
