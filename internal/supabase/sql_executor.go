package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"zaanjob-backend/internal/domain"
)

const (
	PathRPC   = "rpc"
	PathHTTP  = "http"
	PathProbe = "probe"
)

var (
	createTableRe     = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+IF\s+NOT\s+EXISTS\s+public\.(\w+)`)
	createStatementRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(TABLE|EXTENSION)\b`)
)

// missingFunctionMarkers are the PostgREST messages for an absent exec_sql.
var missingFunctionMarkers = []string{
	"could not find the function public.exec_sql",
	"pgrst202",
}

type runner struct {
	name string
	run  func(ctx context.Context, sql string) (json.RawMessage, *domain.SQLError)
}

// SQLExecutor runs a statement through the exec_sql procedure, first with
// the anonymous key and then against the SQL endpoint with the service-role
// key. Failures never escape as panics or raw errors.
type SQLExecutor struct {
	client *Client
	log    *slog.Logger
}

func NewSQLExecutor(client *Client, log *slog.Logger) *SQLExecutor {
	return &SQLExecutor{client: client, log: log}
}

func (e *SQLExecutor) Exec(ctx context.Context, sql string) (result domain.SQLResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("sql executor panic", "panic", r)
			result = failed(&domain.SQLError{Kind: domain.SQLErrNetwork, Message: "unexpected executor failure"})
		}
	}()

	if !e.client.Configured() {
		return failed(&domain.SQLError{
			Kind:    domain.SQLErrMissingConfig,
			Message: "Supabase URL or anonymous key is not configured",
		})
	}

	var last *domain.SQLError
	for _, r := range e.runners() {
		rows, sqlErr := r.run(ctx, sql)
		if sqlErr == nil {
			return domain.SQLResult{OK: true, Path: r.name, Rows: rows}
		}

		res := e.classifyFailure(ctx, sql, sqlErr)
		if res.OK {
			if res.Path == "" {
				res.Path = r.name
			}
			e.log.Debug("sql failure tolerated", "path", res.Path, "kind", sqlErr.Kind, "message", sqlErr.Message)
			return res
		}
		last = res.Err
		e.log.Warn("sql execution path failed", "path", r.name, "kind", last.Kind, "status", last.Status, "message", last.Message)
	}
	return failed(last)
}

func (e *SQLExecutor) runners() []runner {
	rs := []runner{{name: PathRPC, run: e.viaRPC}}
	if e.client.HasServiceKey() && e.client.sqlEndpoint != "" {
		rs = append(rs, runner{name: PathHTTP, run: e.viaHTTP})
	}
	return rs
}

// viaRPC calls exec_sql as service_role when the key is configured. The
// anonymous key only works against databases that still grant it.
func (e *SQLExecutor) viaRPC(ctx context.Context, sql string) (json.RawMessage, *domain.SQLError) {
	url := e.client.baseURL + "/rest/v1/rpc/exec_sql"
	key := e.client.anonKey
	if e.client.HasServiceKey() {
		key = e.client.serviceKey
	}
	resp, err := e.client.postJSON(ctx, url, key, map[string]string{"sql": sql}, nil)
	if err != nil {
		return nil, networkError(err)
	}
	return interpret(resp, true)
}

func (e *SQLExecutor) viaHTTP(ctx context.Context, sql string) (json.RawMessage, *domain.SQLError) {
	resp, err := e.client.postJSON(ctx, e.client.sqlEndpoint, e.client.serviceKey, map[string]string{"sql": sql}, map[string]string{
		"Prefer": "params=single-object",
	})
	if err != nil {
		return nil, networkError(err)
	}
	return interpret(resp, false)
}

// execSQLPayload is what the exec_sql function returns. A statement error
// inside the function still comes back as HTTP 200.
type execSQLPayload struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type postgrestError struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	Code    string `json:"code"`
}

func interpret(resp *response, rpc bool) (json.RawMessage, *domain.SQLError) {
	body := string(resp.Body)
	if !isSuccess(resp.Status) {
		msg := body
		var pe postgrestError
		if json.Unmarshal(resp.Body, &pe) == nil && pe.Message != "" {
			msg = pe.Message
			if pe.Details != "" {
				msg += ": " + pe.Details
			}
		}
		kind := domain.SQLErrHTTPStatus
		if rpc && isMissingFunction(body) {
			kind = domain.SQLErrRPCUnavailable
		}
		return nil, &domain.SQLError{Kind: kind, Status: resp.Status, Message: msg, Body: body}
	}

	var payload execSQLPayload
	if json.Unmarshal(resp.Body, &payload) == nil && payload.Success != nil && !*payload.Success {
		return nil, &domain.SQLError{
			Kind:    domain.SQLErrHTTPStatus,
			Status:  resp.Status,
			Message: payload.Error,
			Body:    body,
		}
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	return json.RawMessage(resp.Body), nil
}

// classifyFailure holds every string-matching rule used to turn a failed
// call into a success. It is the only place that inspects error text.
func (e *SQLExecutor) classifyFailure(ctx context.Context, sql string, sqlErr *domain.SQLError) domain.SQLResult {
	text := strings.ToLower(sqlErr.Message + " " + sqlErr.Body)

	if createStatementRe.MatchString(sql) && (sqlErr.Status == 409 || strings.Contains(text, "already exists")) {
		return domain.SQLResult{OK: true}
	}

	if sqlErr.Kind == domain.SQLErrRPCUnavailable || isMissingFunction(text) {
		if table := InferTableName(sql); table != "" && e.client.TableReachable(ctx, table) {
			return domain.SQLResult{OK: true, Path: PathProbe}
		}
		if sqlErr.Kind != domain.SQLErrRPCUnavailable {
			cp := *sqlErr
			cp.Kind = domain.SQLErrRPCUnavailable
			sqlErr = &cp
		}
	}

	if sqlErr.Kind == domain.SQLErrHTTPStatus && sqlErr.Status == 404 {
		cp := *sqlErr
		cp.Message = "API endpoint not found or inaccessible"
		sqlErr = &cp
	}
	return failed(sqlErr)
}

// InferTableName extracts the table from a CREATE TABLE IF NOT EXISTS
// public.<name> statement.
func InferTableName(sql string) string {
	m := createTableRe.FindStringSubmatch(sql)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func isMissingFunction(text string) bool {
	text = strings.ToLower(text)
	for _, marker := range missingFunctionMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func networkError(err error) *domain.SQLError {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out: " + msg
	}
	return &domain.SQLError{Kind: domain.SQLErrNetwork, Message: msg}
}

func failed(err *domain.SQLError) domain.SQLResult {
	if err == nil {
		err = &domain.SQLError{Kind: domain.SQLErrNetwork, Message: "no execution path available"}
	}
	return domain.SQLResult{OK: false, Err: err}
}
