package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecSQLFunctionGrants(t *testing.T) {
	assert.Contains(t, execSQLFunction, "SECURITY DEFINER")
	assert.Contains(t, execSQLFunction, "REVOKE ALL ON FUNCTION public.exec_sql(text) FROM PUBLIC, anon, authenticated;")
	assert.Contains(t, execSQLFunction, "GRANT EXECUTE ON FUNCTION public.exec_sql(text) TO service_role;")
	assert.NotContains(t, execSQLFunction, "TO authenticated, anon")
}
