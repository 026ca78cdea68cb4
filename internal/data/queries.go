package data

// Report is a fixed analytical query exposed under its own route.
type Report struct {
	Name        string
	Description string
	Query       string
}

// Snapshots maps the accepted table tokens to their fixed statements.
var Snapshots = map[string]string{
	"customers":  "SELECT * FROM customers LIMIT 50",
	"orders":     "SELECT * FROM orders LIMIT 50",
	"products":   "SELECT * FROM products LIMIT 50",
	"orderItems": "SELECT * FROM order_items LIMIT 50",
}

// SnapshotNames lists the snapshot tokens in display order.
var SnapshotNames = []string{"customers", "orders", "products", "orderItems"}

// SnapshotQuery returns the statement for an allow-listed table token.
func SnapshotQuery(name string) (string, bool) {
	q, ok := Snapshots[name]
	return q, ok
}

// Reports is the static route table for the analytical queries.
var Reports = []Report{
	{
		Name:        "assignment1",
		Description: "Top 10 customers by total amount spent.",
		Query: `
        SELECT
            customers.name AS customer_name,
            customers.email AS customer_email,
            SUM(orders.total_amount) AS total_amount_spent
        FROM customers
        JOIN orders USING (customer_id)
        GROUP BY customers.customer_id
        ORDER BY total_amount_spent DESC
        LIMIT 10`,
	},
	{
		Name:        "assignment2",
		Description: "Order count, revenue and average line value per product category.",
		Query: `
        SELECT
            products.category AS category_name,
            COUNT(DISTINCT orders.order_id) AS total_orders,
            ROUND(SUM(order_items.quantity * order_items.unit_price), 2) AS total_revenue,
            ROUND(AVG(order_items.quantity * order_items.unit_price), 2) AS average_order_value
        FROM products
        JOIN order_items USING (product_id)
        JOIN orders USING (order_id)
        GROUP BY products.category
        ORDER BY total_revenue DESC`,
	},
	{
		Name:        "assignment3",
		Description: "Order statistics per membership level and city, including orders per customer.",
		Query: `
        SELECT
            membership_level,
            city,
            COUNT(order_id) AS total_orders,
            ROUND(AVG(total_amount), 2) AS average_order_value,
            COUNT(DISTINCT customers.customer_id) AS number_of_customers,
            ROUND(COUNT(order_id)*1.0 / COUNT(DISTINCT customers.customer_id), 2) AS orders_per_customer
        FROM customers
        LEFT JOIN orders USING (customer_id)
        GROUP BY membership_level, city`,
	},
	{
		Name:        "assignment4",
		Description: "Products selling above their category average, ranked by percentage above.",
		Query: `
        SELECT
            p.name AS product_name,
            p.category,
            ROUND(SUM(oi.quantity * oi.unit_price), 2) AS total_sales,
            ROUND(avg_sales, 2) AS category_average,
            ROUND((SUM(oi.quantity * oi.unit_price) - avg_sales) / avg_sales * 100, 2) AS percentage_above
        FROM products p
        JOIN order_items oi ON p.product_id = oi.product_id
        JOIN (
            SELECT
                category,
                AVG(oi.quantity * oi.unit_price) AS avg_sales
            FROM products p
            JOIN order_items oi ON p.product_id = oi.product_id
            GROUP BY category
        ) AS category_avg ON p.category = category_avg.category
        GROUP BY p.product_id, p.category, avg_sales
        HAVING SUM(oi.quantity * oi.unit_price) > avg_sales
        ORDER BY percentage_above DESC`,
	},
}

// FindReport looks a report up by route name.
func FindReport(name string) (Report, bool) {
	for _, r := range Reports {
		if r.Name == name {
			return r, true
		}
	}
	return Report{}, false
}
