package postgres

import (
	"context"
	"errors"

	"zaanjob-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execSQLFunction installs the helper the SQL executor calls over RPC.
// Statement errors are returned as {"success": false, ...} with HTTP 200.
// Only service_role may execute it; Postgres grants EXECUTE to PUBLIC by default.
const execSQLFunction = `
CREATE OR REPLACE FUNCTION public.exec_sql(sql text)
RETURNS jsonb
LANGUAGE plpgsql
SECURITY DEFINER
AS $$
BEGIN
  EXECUTE sql;
  RETURN jsonb_build_object('success', true);
EXCEPTION WHEN OTHERS THEN
  RETURN jsonb_build_object('success', false, 'error', SQLERRM, 'code', SQLSTATE);
END;
$$;

REVOKE ALL ON FUNCTION public.exec_sql(text) FROM PUBLIC, anon, authenticated;
GRANT EXECUTE ON FUNCTION public.exec_sql(text) TO service_role;`

type schemaRepository struct {
	db *pgxpool.Pool
}

func NewSchemaRepository(db *pgxpool.Pool) domain.SchemaRepository {
	return &schemaRepository{db: db}
}

// TableExists runs a read-only probe. An empty table still exists.
func (r *schemaRepository) TableExists(ctx context.Context, table string) error {
	query := `SELECT 1 FROM ` + pgx.Identifier{"public", table}.Sanitize() + ` LIMIT 1`
	var one int
	err := r.db.QueryRow(ctx, query).Scan(&one)
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return mapError(err)
}

func (r *schemaRepository) InstallExecSQL(ctx context.Context) error {
	_, err := r.db.Exec(ctx, execSQLFunction)
	return mapError(err)
}

func (r *schemaRepository) Columns(ctx context.Context, table string) ([]domain.ColumnInfo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	cols := make([]domain.ColumnInfo, 0)
	for rows.Next() {
		var c domain.ColumnInfo
		if err := rows.Scan(&c.Table, &c.Column, &c.DataType); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
