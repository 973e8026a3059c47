package entity

import (
	"time"
)

// PriceAlert 一次显著价格变动记录
type PriceAlert struct {
	Id          int64  `gorm:"primaryKey;autoIncrement"`
	Symbol      string `gorm:"index"`
	PrevPrice   string
	NewPrice    string
	ChangeRatio float64
	Direction   string    `gorm:"index"`
	CreatedAt   time.Time `gorm:"index"`
}

const (
	AlertDirectionUp   = "up"
	AlertDirectionDown = "down"
)
