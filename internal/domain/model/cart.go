package model

import "time"

// カートの1行。数量は常に1以上（0以下になった行は削除される）。
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// セッションに紐づくカート。DBには置かず、CartStoreが保持する。
// カタログ情報（価格・商品名）は持たない。表示用の価格解決も
// 注文確定時の価格確定も、必ずその時点のカタログを読む。
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// productIDの行のindexを返す。無ければ-1。
func (c *Cart) FindLine(productID int64) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
