package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

type SQLErrorKind string

const (
	SQLErrMissingConfig  SQLErrorKind = "missing_config"
	SQLErrRPCUnavailable SQLErrorKind = "rpc_unavailable"
	SQLErrHTTPStatus     SQLErrorKind = "http_status"
	SQLErrNetwork        SQLErrorKind = "network"
)

// SQLError describes why a statement could not be executed remotely.
type SQLError struct {
	Kind    SQLErrorKind `json:"kind"`
	Status  int          `json:"status,omitempty"`
	Message string       `json:"message"`
	Body    string       `json:"body,omitempty"`
}

func (e *SQLError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// SQLResult is the outcome of running one statement through the executor.
// It never carries a panic or a bare transport error; Err is set iff !OK.
type SQLResult struct {
	OK   bool            `json:"ok"`
	Path string          `json:"path,omitempty"`
	Rows json.RawMessage `json:"rows,omitempty"`
	Err  *SQLError       `json:"error,omitempty"`
}

// SQLExecutor runs arbitrary SQL against the hosted database when no typed
// query covers the need.
type SQLExecutor interface {
	Exec(ctx context.Context, sql string) SQLResult
}

// Policy is one named row-level security policy.
type Policy struct {
	Name      string
	Command   string // SELECT, INSERT, UPDATE, DELETE
	Roles     string // empty means the default (PUBLIC)
	Using     string
	WithCheck string
}

// TableSchema is everything the provisioner creates for one table.
type TableSchema struct {
	Name      string
	CreateSQL string
	Indexes   []string
	Policies  []Policy
}

type ColumnInfo struct {
	Table    string `json:"table_name"`
	Column   string `json:"column_name"`
	DataType string `json:"data_type"`
}

// SchemaRepository covers the parts of provisioning done over the typed pool.
type SchemaRepository interface {
	TableExists(ctx context.Context, table string) error
	InstallExecSQL(ctx context.Context) error
	Columns(ctx context.Context, table string) ([]ColumnInfo, error)
}

type ProvisionStep struct {
	Table string `json:"table,omitempty"`
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

type ProvisionReport struct {
	Ready []string        `json:"ready"`
	Steps []ProvisionStep `json:"steps"`
}

type SchemaStatus struct {
	Table   string       `json:"table"`
	Exists  bool         `json:"exists"`
	Error   string       `json:"error,omitempty"`
	Columns []ColumnInfo `json:"columns"`
}

type SchemaUsecase interface {
	// Provision runs every step unconditionally and reports each outcome.
	Provision(ctx context.Context) (*ProvisionReport, error)
	// Ensure provisions at most once per flag TTL. Failures are logged and
	// retried on the next call.
	Ensure(ctx context.Context)
	Status(ctx context.Context) ([]SchemaStatus, error)
}
