package database

import (
	"gorm.io/gorm"

	"github.com/qs3c/academy_server/internal/model"
)

// Models 需要迁移的全部模型
var Models = []interface{}{
	&model.User{},
	&model.Athlete{},
	&model.Session{},
	&model.Registration{},
	&model.Subscription{},
	&model.BillingEvent{},
}

// Migrate 建表并创建唯一索引。报名、订阅与事件去重依赖这些索引
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}
