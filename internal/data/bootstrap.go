package data

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"
)

// statementPreviewLimit bounds how much of a failing statement is logged and reported.
const statementPreviewLimit = 100

// DropOrder lists the tables dropped before the script runs, children first.
var DropOrder = []string{"order_items", "orders", "products", "customers"}

// verifyOrder lists the tables whose row counts are checked after the script runs.
var verifyOrder = []struct {
	name  string
	model interface{}
}{
	{"customers", &Customer{}},
	{"products", &Product{}},
	{"orders", &Order{}},
	{"order_items", &OrderItem{}},
}

// ScriptError reports that the schema script could not be read.
type ScriptError struct {
	Path string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("read init script %s: %v", e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// StatementError reports the first script statement that failed.
type StatementError struct {
	Statement string
	Err       error
}

func (e *StatementError) Error() string { return e.Err.Error() }

func (e *StatementError) Unwrap() error { return e.Err }

// EmptyTableError reports a table left without rows after the script ran.
type EmptyTableError struct {
	Table string
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("Table %s is empty after initialization", e.Table)
}

// TableCounts maps table name to row count.
type TableCounts map[string]int64

// LoadScript reads the schema/seed script at path.
func LoadScript(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &ScriptError{Path: path, Err: err}
	}
	return string(b), nil
}

// SplitStatements splits a script on ';' and drops blank fragments.
func SplitStatements(script string) []string {
	parts := strings.Split(script, ";")
	statements := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// Bootstrap drops the four tables, replays script statement by statement and
// verifies every table ended up populated. Statements run in autocommit mode,
// so a failure part way through leaves the earlier statements applied.
func Bootstrap(ctx context.Context, db *gorm.DB, script string) (TableCounts, error) {
	tx := db.WithContext(ctx)

	for _, table := range DropOrder {
		if err := tx.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
			return nil, fmt.Errorf("drop %s: %w", table, err)
		}
	}

	for _, stmt := range SplitStatements(script) {
		if err := tx.Exec(stmt).Error; err != nil {
			preview := previewStatement(stmt)
			log.Printf("Error executing statement: %s...", preview)
			log.Printf("Error message: %v", err)
			return nil, &StatementError{Statement: preview, Err: err}
		}
	}

	return CountTables(ctx, db)
}

// CountTables returns the row count of each table, failing on the first empty one.
func CountTables(ctx context.Context, db *gorm.DB) (TableCounts, error) {
	counts := make(TableCounts, len(verifyOrder))
	for _, t := range verifyOrder {
		var n int64
		if err := db.WithContext(ctx).Model(t.model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", t.name, err)
		}
		counts[t.name] = n
		if n == 0 {
			return nil, &EmptyTableError{Table: t.name}
		}
	}
	return counts, nil
}

func previewStatement(stmt string) string {
	runes := []rune(stmt)
	if len(runes) <= statementPreviewLimit {
		return stmt
	}
	return string(runes[:statementPreviewLimit])
}
