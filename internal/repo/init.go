package repo

import (
	"github.com/coinsentry/tracker-agent/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.PriceAlert{})
}
