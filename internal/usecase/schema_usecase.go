package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/internal/schema"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/redis"

	"golang.org/x/sync/singleflight"
)

const (
	schemaReadyKey   = "zaanjob:schema:ready"
	provisionTimeout = 60 * time.Second
)

type schemaUsecase struct {
	exec    domain.SQLExecutor
	repo    domain.SchemaRepository
	flags   redis.Store
	tables  []domain.TableSchema
	flagTTL time.Duration
	group   singleflight.Group
	log     *slog.Logger
}

func NewSchemaUsecase(exec domain.SQLExecutor, repo domain.SchemaRepository, flags redis.Store, tables []domain.TableSchema, flagTTL time.Duration, log *slog.Logger) domain.SchemaUsecase {
	return &schemaUsecase{
		exec:    exec,
		repo:    repo,
		flags:   flags,
		tables:  tables,
		flagTTL: flagTTL,
		log:     log,
	}
}

func (u *schemaUsecase) Provision(ctx context.Context) (*domain.ProvisionReport, error) {
	v, err, _ := u.group.Do("provision", func() (interface{}, error) {
		return u.provision(ctx, true)
	})
	report, _ := v.(*domain.ProvisionReport)
	return report, err
}

// Ensure is called on the read path. It never fails the caller; a failed
// attempt is logged and retried on the next call.
func (u *schemaUsecase) Ensure(ctx context.Context) {
	if ready, err := u.flags.HasFlag(ctx, schemaReadyKey); err == nil && ready {
		return
	}
	_, err, _ := u.group.Do("ensure", func() (interface{}, error) {
		return u.provision(ctx, false)
	})
	if err != nil {
		u.log.Warn("schema ensure failed", "error", err)
	}
}

func (u *schemaUsecase) Status(ctx context.Context) ([]domain.SchemaStatus, error) {
	out := make([]domain.SchemaStatus, 0, len(u.tables))
	for _, t := range u.tables {
		st := domain.SchemaStatus{Table: t.Name, Columns: []domain.ColumnInfo{}}
		if err := u.repo.TableExists(ctx, t.Name); err != nil {
			st.Error = err.Error()
			out = append(out, st)
			continue
		}
		st.Exists = true
		cols, err := u.repo.Columns(ctx, t.Name)
		if err != nil {
			return nil, fmt.Errorf("columns of %s: %w", t.Name, err)
		}
		st.Columns = cols
		out = append(out, st)
	}
	return out, nil
}

// provision runs detached from the caller so one cancelled request does not
// fail every request sharing the flight.
func (u *schemaUsecase) provision(parent context.Context, installHelper bool) (*domain.ProvisionReport, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), provisionTimeout)
	defer cancel()

	report := &domain.ProvisionReport{Ready: []string{}, Steps: []domain.ProvisionStep{}}

	if installHelper {
		step := domain.ProvisionStep{Step: "install exec_sql", OK: true, Path: "pool"}
		if err := u.repo.InstallExecSQL(ctx); err != nil {
			step.OK = false
			step.Error = err.Error()
			u.log.Warn("exec_sql install failed", "error", err)
		}
		report.Steps = append(report.Steps, step)
	}

	missingConfig := false
	exec := func(table, step, sql string) {
		if res := u.run(ctx, report, table, step, sql); !res.OK && res.Err.Kind == domain.SQLErrMissingConfig {
			missingConfig = true
		}
	}

	exec("", "extension", schema.ExtensionSQL)

	var failed []string
	for _, t := range u.tables {
		if err := u.repo.TableExists(ctx, t.Name); err == nil {
			report.Steps = append(report.Steps, domain.ProvisionStep{Table: t.Name, Step: "probe", OK: true, Path: "pool"})
			report.Ready = append(report.Ready, t.Name)
			continue
		}

		exec(t.Name, "create", t.CreateSQL)
		for i, idx := range t.Indexes {
			exec(t.Name, fmt.Sprintf("index %d", i+1), idx)
		}
		exec(t.Name, "enable rls", schema.EnableRLSSQL(t.Name))
		for _, p := range t.Policies {
			exec(t.Name, "policy "+p.Name, schema.PolicySQL(t.Name, p))
		}

		if err := u.repo.TableExists(ctx, t.Name); err != nil {
			report.Steps = append(report.Steps, domain.ProvisionStep{Table: t.Name, Step: "verify", Error: err.Error()})
			failed = append(failed, t.Name)
			continue
		}
		report.Steps = append(report.Steps, domain.ProvisionStep{Table: t.Name, Step: "verify", OK: true, Path: "pool"})
		report.Ready = append(report.Ready, t.Name)
	}

	if len(failed) > 0 {
		if missingConfig {
			return report, apperror.Config("Supabase is not configured. Set SUPABASE_URL and SUPABASE_ANON_KEY.").WithDetails(report.Steps)
		}
		msg := "Schema provisioning failed for tables: " + strings.Join(failed, ", ")
		return report, apperror.New(http.StatusInternalServerError, apperror.KindInternal, msg, nil).WithDetails(report.Steps)
	}

	if err := u.flags.SetFlag(ctx, schemaReadyKey, u.flagTTL); err != nil {
		u.log.Warn("could not record schema-ready flag", "error", err)
	}
	u.log.Info("schema ready", "tables", report.Ready)
	return report, nil
}

func (u *schemaUsecase) run(ctx context.Context, report *domain.ProvisionReport, table, step, sql string) domain.SQLResult {
	res := u.exec.Exec(ctx, sql)
	ps := domain.ProvisionStep{Table: table, Step: step, OK: res.OK, Path: res.Path}
	if !res.OK {
		ps.Error = res.Err.Error()
		u.log.Warn("provision step failed", "table", table, "step", step, "kind", res.Err.Kind, "error", res.Err.Message)
	}
	report.Steps = append(report.Steps, ps)
	return res
}
