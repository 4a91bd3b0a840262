package model

import "time"

// 在庫変動の種別
type InventoryEvent string

const (
	//注文による消費
	InventoryEventOrder InventoryEvent = "order"

	//入荷・キャンセル等による在庫戻し
	InventoryEventRestock InventoryEvent = "restock"

	//管理者による手動調整
	InventoryEventAdjustment InventoryEvent = "adjustment"

	//在庫僅少マーカー（delta=0、before==after）
	InventoryEventLowStock InventoryEvent = "low_stock"
)

// 在庫台帳。追記専用。
// 不変条件: 商品ごとの最新行のAfterQuantityは products.stock と一致し、
// Quantity（符号付きdelta）の累計は 現在庫 - 初期在庫 と一致する。
type InventoryLog struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID      int64          `gorm:"not null;index" json:"product_id"`
	EventType      InventoryEvent `gorm:"type:varchar(20);not null;index" json:"event_type"`
	Quantity       int64          `gorm:"not null" json:"quantity"`
	BeforeQuantity int64          `gorm:"not null" json:"before_quantity"`
	AfterQuantity  int64          `gorm:"not null" json:"after_quantity"`
	OrderID        *int64         `gorm:"index" json:"order_id,omitempty"`
	Description    string         `gorm:"type:varchar(500)" json:"description"`
	CreatedAt      time.Time      `gorm:"not null;index;autoCreateTime" json:"created_at"`
}
