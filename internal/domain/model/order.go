package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 許可される遷移だけを列挙する。
// completed / cancelled は終端で、ここに出てこない。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// 終端ステータスか（以後の遷移は不可）
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// 注文。TotalAmountは作成時に確定し、以後変更しない。
// Statusの変更はAdminOrderUsecaseの遷移チェックを必ず通す。
type Order struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64       `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount     int64       `gorm:"not null" json:"total_amount"`
	ShippingAddress string      `gorm:"type:varchar(500);not null" json:"shipping_address"`
	PaymentMethod   string      `gorm:"type:varchar(50);not null" json:"payment_method"`
	Notes           string      `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time   `gorm:"not null;autoCreateTime" json:"order_date"`
	UpdatedAt       time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
