package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ReportResult captures timing, rows and explain output for a report.
type ReportResult struct {
	Name        string
	Description string
	Duration    time.Duration
	Result      ResultSet
	Explain     []string
	Err         error
}

// RunReports executes each report in order. A failing report does not stop
// the ones after it.
func RunReports(ctx context.Context, db *gorm.DB, reports []Report, explain bool) []ReportResult {
	results := make([]ReportResult, 0, len(reports))
	for _, r := range reports {
		res := ReportResult{Name: r.Name, Description: r.Description}

		start := time.Now()
		set, err := FetchRecords(ctx, db, r.Query)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Duration = time.Since(start)
		res.Result = set

		if explain {
			lines, err := ExplainQuery(ctx, db, r.Query)
			if err == nil {
				res.Explain = lines
			} else {
				res.Explain = []string{fmt.Sprintf("failed to collect EXPLAIN: %v", err)}
			}
		}

		results = append(results, res)
	}
	return results
}

// ExplainQuery returns the EXPLAIN ANALYZE plan for query, falling back to a
// plain EXPLAIN on servers that do not support ANALYZE.
func ExplainQuery(ctx context.Context, db *gorm.DB, query string) ([]string, error) {
	lines, err := fetchExplain(ctx, db, "EXPLAIN ANALYZE "+query)
	if err == nil {
		return lines, nil
	}
	return fetchExplain(ctx, db, "EXPLAIN "+query)
}

func fetchExplain(ctx context.Context, db *gorm.DB, sql string) ([]string, error) {
	set, err := FetchRecords(ctx, db, sql)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(set.Rows))
	for _, row := range set.Rows {
		if len(set.Columns) == 1 {
			// EXPLAIN ANALYZE yields a single multi-line tree.
			lines = append(lines, strings.Split(fmt.Sprint(row[set.Columns[0]]), "\n")...)
			continue
		}
		lineParts := make([]string, 0, len(set.Columns))
		for _, col := range set.Columns {
			lineParts = append(lineParts, fmt.Sprintf("%s=%v", col, row[col]))
		}
		lines = append(lines, strings.Join(lineParts, " "))
	}
	return lines, nil
}
