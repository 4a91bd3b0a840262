package model

import "time"

// 注文ステータスの変更履歴。追記専用。
// 実際に変わったときだけ1行追加する（作成時のpendingでは書かない）。
type OrderHistory struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64       `gorm:"not null;index" json:"order_id"`
	Status      OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	ActorUserID *int64      `gorm:"index" json:"actor_user_id,omitempty"`
	Notes       string      `gorm:"type:varchar(500)" json:"notes"`
	CreatedAt   time.Time   `gorm:"not null;index;autoCreateTime" json:"created_at"`
}

func (OrderHistory) TableName() string {
	return "order_history"
}
