package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// DECIMAL columns are rendered as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Record is one result row keyed by column name.
type Record map[string]interface{}

// ResultSet keeps the column order that a Record on its own loses.
type ResultSet struct {
	Columns []string
	Rows    []Record
}

// FetchRecords runs a fixed query and collects every row as a Record.
func FetchRecords(ctx context.Context, db *gorm.DB, query string) (ResultSet, error) {
	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return ResultSet{}, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) (ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return ResultSet{}, fmt.Errorf("read columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return ResultSet{}, fmt.Errorf("read column types: %w", err)
	}

	dbTypes := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	set := ResultSet{Columns: columns, Rows: make([]Record, 0)}
	values := make([]interface{}, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return ResultSet{}, fmt.Errorf("scan row: %w", err)
		}
		rec := make(Record, len(columns))
		for i, col := range columns {
			rec[col] = normalizeValue(values[i], dbTypes[i])
		}
		set.Rows = append(set.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, err
	}
	return set, nil
}

// normalizeValue converts raw driver values into JSON-friendly ones.
func normalizeValue(v interface{}, dbType string) interface{} {
	var text string
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		text = string(val)
	case string:
		text = val
	default:
		return v
	}

	if isDecimalType(dbType) {
		if d, err := decimal.NewFromString(text); err == nil {
			return d
		}
	}
	return text
}

func isDecimalType(dbType string) bool {
	switch dbType {
	case "DECIMAL", "NEWDECIMAL", "NUMERIC":
		return true
	}
	return false
}
