package data

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// ErrNothingToSeed is returned when there are no customers or products to build orders from.
var ErrNothingToSeed = errors.New("seed: customers and products must be populated first")

// SeedConfig controls how many synthetic orders are added on top of the script data.
type SeedConfig struct {
	Orders    int
	BatchSize int
	// MaxItems bounds the number of lines per synthetic order.
	MaxItems int
}

// SeedOrders tops the dataset up with Orders synthetic orders built from the
// existing customers and products. The random source is fixed, so two runs
// against the same base data produce the same rows.
func SeedOrders(ctx context.Context, db *gorm.DB, cfg SeedConfig) (int, error) {
	if cfg.Orders <= 0 {
		return 0, nil
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 4
	}

	var customers []uint
	if err := db.WithContext(ctx).Model(&Customer{}).Pluck("customer_id", &customers).Error; err != nil {
		return 0, err
	}
	var products []Product
	if err := db.WithContext(ctx).Find(&products).Error; err != nil {
		return 0, err
	}
	if len(customers) == 0 || len(products) == 0 {
		return 0, ErrNothingToSeed
	}

	rnd := rand.New(rand.NewSource(42))
	now := time.Now()
	created := 0

	for created < cfg.Orders {
		n := cfg.BatchSize
		if left := cfg.Orders - created; left < n {
			n = left
		}

		orders, lines := buildSyntheticBatch(n, customers, products, cfg.MaxItems, rnd, now)
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&orders).Error; err != nil {
				return err
			}
			items := make([]OrderItem, 0, len(orders)*cfg.MaxItems)
			for i := range orders {
				for _, item := range lines[i] {
					item.OrderID = orders[i].OrderID
					items = append(items, item)
				}
			}
			return tx.Create(&items).Error
		})
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func buildSyntheticBatch(n int, customers []uint, products []Product, maxItems int, rnd *rand.Rand, now time.Time) ([]Order, [][]OrderItem) {
	orders := make([]Order, n)
	lines := make([][]OrderItem, n)
	for i := 0; i < n; i++ {
		count := rnd.Intn(maxItems) + 1
		items := make([]OrderItem, count)
		var total float64
		for j := range items {
			p := products[rnd.Intn(len(products))]
			items[j] = OrderItem{
				ProductID: p.ProductID,
				Quantity:  rnd.Intn(3) + 1,
				UnitPrice: p.Price,
			}
			total += float64(items[j].Quantity) * p.Price
		}
		orders[i] = Order{
			CustomerID:  customers[rnd.Intn(len(customers))],
			TotalAmount: math.Round(total*100) / 100,
			OrderDate:   now.Add(-time.Duration(rnd.Intn(365*24)) * time.Hour),
		}
		lines[i] = items
	}
	return orders, lines
}
