package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"retaillab/internal/data"
	"retaillab/internal/db"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	var (
		initDB      = flag.Bool("init", false, "drop, recreate and seed the schema before running reports")
		scriptPath  = flag.String("init-script", "sql/init.sql", "schema/seed script used by -init")
		extraOrders = flag.Int("orders", 0, "number of synthetic orders to add on top of the seed data")
		batchSize   = flag.Int("batch", 500, "batch size for synthetic order inserts")
		reportList  = flag.String("reports", "all", "comma separated report names to run, or all / none")
		tableName   = flag.String("table", "", "print a snapshot of one table (customers, orders, products, orderItems)")
		showExplain = flag.Bool("explain", false, "print EXPLAIN output for each report")
		showRows    = flag.Bool("rows", true, "print the rows returned by each report")
	)
	flag.Parse()

	reports, err := selectReports(*reportList)
	if err != nil {
		log.Fatal(err)
	}

	cfg := db.FromEnv()
	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect to MySQL: %v", err)
	}
	conn, err := db.Wrap(gdb)
	if err != nil {
		log.Fatalf("failed to acquire session: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	if *initDB {
		start := time.Now()
		script, err := data.LoadScript(*scriptPath)
		if err != nil {
			log.Fatal(err)
		}
		counts, err := data.Bootstrap(ctx, conn.DB, script)
		if err != nil {
			log.Fatalf("initialization failed: %v", err)
		}
		log.Printf("database initialized from %s in %s", *scriptPath, time.Since(start))
		logCounts(counts)
	}

	if *extraOrders > 0 {
		start := time.Now()
		n, err := data.SeedOrders(ctx, conn.DB, data.SeedConfig{Orders: *extraOrders, BatchSize: *batchSize})
		if err != nil {
			log.Fatalf("failed to seed synthetic orders after %d: %v", n, err)
		}
		log.Printf("added %d synthetic orders in %s", n, time.Since(start))
		if err := logDatasetStats(ctx, conn.DB); err != nil {
			log.Printf("failed to collect dataset stats: %v", err)
		}
	}

	if *tableName != "" {
		query, ok := data.SnapshotQuery(*tableName)
		if !ok {
			log.Fatalf("unknown table %q; valid tables: %s", *tableName, strings.Join(data.SnapshotNames, ", "))
		}
		set, err := data.FetchRecords(ctx, conn.DB, query)
		if err != nil {
			log.Fatalf("snapshot %s: %v", *tableName, err)
		}
		fmt.Printf("\n%s (%d rows)\n", *tableName, len(set.Rows))
		if err := printResultSet(os.Stdout, set); err != nil {
			log.Printf("failed to render %s: %v", *tableName, err)
		}
	}

	if len(reports) == 0 {
		return
	}

	results := data.RunReports(ctx, conn.DB, reports, *showExplain)

	if *showExplain {
		for _, res := range results {
			if res.Err != nil {
				log.Printf("[report: %s] skipped explain due to error: %v", res.Name, res.Err)
				continue
			}
			log.Printf("[report: %s] %s", res.Name, res.Description)
			for _, line := range res.Explain {
				log.Printf("  %s", line)
			}
		}
	}

	if *showRows {
		for _, res := range results {
			if res.Err != nil {
				continue
			}
			fmt.Printf("\n%s: %s\n", res.Name, res.Description)
			if err := printResultSet(os.Stdout, res.Result); err != nil {
				log.Printf("failed to render %s: %v", res.Name, err)
			}
		}
	}

	fmt.Println()
	if err := printResultsTable(os.Stdout, results); err != nil {
		log.Printf("failed to render summary: %v", err)
	}
}

func selectReports(list string) ([]data.Report, error) {
	switch strings.TrimSpace(list) {
	case "", "none":
		return nil, nil
	case "all":
		return data.Reports, nil
	}

	var reports []data.Report
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		rep, ok := data.FindReport(name)
		if !ok {
			return nil, fmt.Errorf("unknown report %q", name)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func logCounts(counts data.TableCounts) {
	for _, table := range []string{"customers", "products", "orders", "order_items"} {
		log.Printf("  %-12s %d rows", table, counts[table])
	}
}

func logDatasetStats(ctx context.Context, gdb *gorm.DB) error {
	counts, err := data.CountTables(ctx, gdb)
	if err != nil {
		return err
	}
	logCounts(counts)
	return nil
}

func printResultSet(w io.Writer, set data.ResultSet) error {
	rows := make([][]string, 0, len(set.Rows))
	for _, rec := range set.Rows {
		row := make([]string, len(set.Columns))
		for i, col := range set.Columns {
			row[i] = formatValue(rec[col])
		}
		rows = append(rows, row)
	}

	table := tablewriter.NewWriter(w)
	table.Header(set.Columns)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func printResultsTable(w io.Writer, results []data.ReportResult) error {
	rows := make([][]string, 0, len(results))
	for i, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERR: " + res.Err.Error()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			res.Name,
			truncateText(res.Description, 40),
			res.Duration.String(),
			fmt.Sprintf("%d", len(res.Result.Rows)),
			status,
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "report", "description", "duration", "rows", "status"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case decimal.Decimal:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func truncateText(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit > len(runes) {
		limit = len(runes)
	}
	return string(runes[:limit]) + "…"
}
