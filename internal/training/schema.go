package training

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed schema.sql
var Schema string

var createTableRe = regexp.MustCompile(`(?m)^CREATE TABLE IF NOT EXISTS (\w+)`)

// Tables lists the tables created by Schema, in creation order.
var Tables = tablesIn(Schema)

func tablesIn(ddl string) []string {
	var tables []string
	for _, m := range createTableRe.FindAllStringSubmatch(ddl, -1) {
		tables = append(tables, m[1])
	}
	return tables
}

// ApplySchema creates missing tables and indexes. It is idempotent.
func ApplySchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply training schema: %w", err)
	}
	return nil
}

type Column struct {
	Name     string
	DataType string
	Nullable bool
	// Default is empty when the column has none.
	Default string
}

// TableDescription is the live layout of one training table.
type TableDescription struct {
	Table   string
	Columns []Column
}

// DescribeTables reads the columns of the training tables from
// information_schema, ordered by table name. Tables missing from the
// database are left out.
func (r *Repo) DescribeTables(ctx context.Context) (_ []TableDescription, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.schema.describe")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("tables", len(Tables)))

	rows, err := r.db.Query(
		ctx,
		`SELECT table_name, column_name, data_type, is_nullable = 'YES', COALESCE(column_default, '')
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ANY($1)
			ORDER BY table_name, ordinal_position;`,
		Tables,
	)
	if err != nil {
		return nil, fmt.Errorf("query table columns: %w", err)
	}
	defer rows.Close()

	var tables []TableDescription
	for rows.Next() {
		var table string
		var c Column
		if err := rows.Scan(&table, &c.Name, &c.DataType, &c.Nullable, &c.Default); err != nil {
			return nil, fmt.Errorf("scan table column: %w", err)
		}
		// rows arrive grouped by table
		if n := len(tables); n == 0 || tables[n-1].Table != table {
			tables = append(tables, TableDescription{Table: table})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table columns: %w", err)
	}
	return tables, nil
}
