package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "empty",
			script: "",
			want:   []string{},
		},
		{
			name:   "only separators and whitespace",
			script: " ;\n; \t;",
			want:   []string{},
		},
		{
			name:   "trims fragments",
			script: "CREATE TABLE a (id INT);\n\n  INSERT INTO a VALUES (1) ;\n",
			want:   []string{"CREATE TABLE a (id INT)", "INSERT INTO a VALUES (1)"},
		},
		{
			name:   "no trailing separator",
			script: "SELECT 1;SELECT 2",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitStatements(tt.script)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitStatements() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("statement %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitStatementsShippedScript(t *testing.T) {
	script, err := LoadScript(filepath.Join("..", "..", "sql", "init.sql"))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	stmts := SplitStatements(script)
	if len(stmts) != 8 {
		t.Fatalf("got %d statements, want 4 CREATE + 4 INSERT", len(stmts))
	}
	for i, stmt := range stmts[4:] {
		if !strings.HasPrefix(stmt, "INSERT INTO") {
			t.Errorf("statement %d does not start with INSERT: %.40q", i+4, stmt)
		}
	}
}

func TestLoadScriptMissing(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "missing.sql"))
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("LoadScript() error = %v, want *ScriptError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ScriptError should unwrap to os.ErrNotExist, got %v", err)
	}
}

func expectDrops(mock sqlmock.Sqlmock) {
	for _, table := range DropOrder {
		mock.ExpectExec("DROP TABLE IF EXISTS " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestBootstrapSuccess(t *testing.T) {
	gdb, mock := newMockDB(t)

	script := "CREATE TABLE customers (customer_id INT);\nINSERT INTO customers VALUES (1);\n"
	expectDrops(mock)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE customers (customer_id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers VALUES (1)")).WillReturnResult(sqlmock.NewResult(1, 1))
	expectCount(mock, "customers", 12)
	expectCount(mock, "products", 13)
	expectCount(mock, "orders", 30)
	expectCount(mock, "order_items", 75)

	counts, err := Bootstrap(context.Background(), gdb, script)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	want := TableCounts{"customers": 12, "products": 13, "orders": 30, "order_items": 75}
	for table, n := range want {
		if counts[table] != n {
			t.Errorf("counts[%s] = %d, want %d", table, counts[table], n)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBootstrapStopsAtFirstFailingStatement(t *testing.T) {
	gdb, mock := newMockDB(t)

	bad := "INSERT INTO nowhere VALUES (" + strings.Repeat("1, ", 60) + "1)"
	script := "CREATE TABLE customers (customer_id INT);\n" + bad + ";\nINSERT INTO customers VALUES (1);"

	expectDrops(mock)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE customers (customer_id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO nowhere")).WillReturnError(errors.New("Error 1146: Table 'retail_db.nowhere' doesn't exist"))

	_, err := Bootstrap(context.Background(), gdb, script)

	var stmtErr *StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("Bootstrap() error = %v, want *StatementError", err)
	}
	if !strings.HasPrefix(stmtErr.Statement, "INSERT INTO nowhere") {
		t.Errorf("Statement = %q, want the failing INSERT", stmtErr.Statement)
	}
	if n := len([]rune(stmtErr.Statement)); n != statementPreviewLimit {
		t.Errorf("Statement preview is %d runes, want %d", n, statementPreviewLimit)
	}
	if !strings.Contains(stmtErr.Error(), "1146") {
		t.Errorf("Error() = %q, want the driver message", stmtErr.Error())
	}
	// The trailing INSERT and the count queries must never run.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBootstrapReportsEmptyTable(t *testing.T) {
	gdb, mock := newMockDB(t)

	expectDrops(mock)
	mock.ExpectExec("CREATE TABLE customers").WillReturnResult(sqlmock.NewResult(0, 0))
	expectCount(mock, "customers", 4)
	expectCount(mock, "products", 0)

	_, err := Bootstrap(context.Background(), gdb, "CREATE TABLE customers (customer_id INT)")

	var emptyErr *EmptyTableError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("Bootstrap() error = %v, want *EmptyTableError", err)
	}
	if emptyErr.Table != "products" {
		t.Errorf("Table = %q, want products", emptyErr.Table)
	}
	if got, want := emptyErr.Error(), "Table products is empty after initialization"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBootstrapDropFailure(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectExec("DROP TABLE IF EXISTS order_items").WillReturnError(errors.New("Error 1142: DROP command denied"))

	_, err := Bootstrap(context.Background(), gdb, "SELECT 1")
	if err == nil {
		t.Fatal("Bootstrap() error = nil, want drop failure")
	}
	var stmtErr *StatementError
	if errors.As(err, &stmtErr) {
		t.Fatalf("drop failure must not be reported as a script statement error: %v", err)
	}
	if !strings.Contains(err.Error(), "drop order_items") {
		t.Errorf("error = %q, want it to name the table", err)
	}
}
