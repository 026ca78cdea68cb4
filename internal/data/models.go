package data

import "time"

// Customer is a shopper; membership_level and city drive the segment report.
type Customer struct {
	CustomerID      uint   `gorm:"column:customer_id;primaryKey"`
	Name            string `gorm:"size:100"`
	Email           string `gorm:"size:100;uniqueIndex"`
	MembershipLevel string `gorm:"size:20;index"`
	City            string `gorm:"size:50;index"`
}

// Product is a catalogue entry priced in the shop currency.
type Product struct {
	ProductID uint    `gorm:"column:product_id;primaryKey"`
	Name      string  `gorm:"size:100"`
	Category  string  `gorm:"size:50;index"`
	Price     float64 `gorm:"type:decimal(10,2)"`
}

// Order belongs to one customer and carries its precomputed total.
type Order struct {
	OrderID     uint      `gorm:"column:order_id;primaryKey"`
	CustomerID  uint      `gorm:"index"`
	TotalAmount float64   `gorm:"type:decimal(10,2)"`
	OrderDate   time.Time `gorm:"index"`
}

// OrderItem is one product line within an order.
type OrderItem struct {
	OrderItemID uint    `gorm:"column:order_item_id;primaryKey"`
	OrderID     uint    `gorm:"index"`
	ProductID   uint    `gorm:"index"`
	Quantity    int
	UnitPrice   float64 `gorm:"type:decimal(10,2)"`
}

func (Customer) TableName() string  { return "customers" }
func (Product) TableName() string   { return "products" }
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }
