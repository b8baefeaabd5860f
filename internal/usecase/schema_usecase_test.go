package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/internal/usecase"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var widgets = domain.TableSchema{
	Name:      "widgets",
	CreateSQL: "CREATE TABLE IF NOT EXISTS public.widgets (id uuid PRIMARY KEY)",
	Indexes:   []string{"CREATE INDEX IF NOT EXISTS idx_widgets_id ON public.widgets (id)"},
	Policies:  []domain.Policy{{Name: "Widgets are viewable by everyone", Command: "SELECT", Using: "true"}},
}

var sqlOK = domain.SQLResult{OK: true, Path: "rpc"}

func newSchemaUC(exec *MockExecutor, repo *MockSchemaRepo, flags redis.Store) domain.SchemaUsecase {
	return usecase.NewSchemaUsecase(exec, repo, flags, []domain.TableSchema{widgets}, time.Hour, testLog)
}

func TestSchemaProvision(t *testing.T) {
	t.Run("Should create a missing table and record readiness", func(t *testing.T) {
		exec, repo, flags := new(MockExecutor), new(MockSchemaRepo), redis.NewMemoryStore()
		uc := newSchemaUC(exec, repo, flags)

		repo.On("InstallExecSQL", mock.Anything).Return(nil)
		repo.On("TableExists", mock.Anything, "widgets").Return(errors.New("relation does not exist")).Once()
		repo.On("TableExists", mock.Anything, "widgets").Return(nil)
		exec.On("Exec", mock.Anything, mock.Anything).Return(sqlOK)

		report, err := uc.Provision(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"widgets"}, report.Ready)

		var names []string
		for _, s := range report.Steps {
			assert.True(t, s.OK, s.Step)
			names = append(names, s.Step)
		}
		assert.Equal(t, []string{
			"install exec_sql", "extension", "create", "index 1", "enable rls",
			"policy Widgets are viewable by everyone", "verify",
		}, names)
		exec.AssertNumberOfCalls(t, "Exec", 5)

		ready, _ := flags.HasFlag(context.Background(), "zaanjob:schema:ready")
		assert.True(t, ready)
	})

	t.Run("Should be safe to run twice", func(t *testing.T) {
		exec, repo, flags := new(MockExecutor), new(MockSchemaRepo), redis.NewMemoryStore()
		uc := newSchemaUC(exec, repo, flags)

		repo.On("InstallExecSQL", mock.Anything).Return(nil)
		repo.On("TableExists", mock.Anything, "widgets").Return(nil)
		exec.On("Exec", mock.Anything, mock.Anything).Return(sqlOK)

		for i := 0; i < 2; i++ {
			report, err := uc.Provision(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"widgets"}, report.Ready)
		}
		// Only the extension statement runs when the table is already there.
		exec.AssertNumberOfCalls(t, "Exec", 2)
	})

	t.Run("Should report missing configuration", func(t *testing.T) {
		exec, repo, flags := new(MockExecutor), new(MockSchemaRepo), redis.NewMemoryStore()
		uc := newSchemaUC(exec, repo, flags)

		repo.On("InstallExecSQL", mock.Anything).Return(errors.New("no pool"))
		repo.On("TableExists", mock.Anything, "widgets").Return(errors.New("relation does not exist"))
		exec.On("Exec", mock.Anything, mock.Anything).Return(domain.SQLResult{
			Err: &domain.SQLError{Kind: domain.SQLErrMissingConfig, Message: "SUPABASE_URL is not set"},
		})

		report, err := uc.Provision(context.Background())
		ae := appErr(t, err)
		assert.Equal(t, apperror.KindConfig, ae.Kind)
		assert.Equal(t, report.Steps, ae.Details)

		ready, _ := flags.HasFlag(context.Background(), "zaanjob:schema:ready")
		assert.False(t, ready)
	})

	t.Run("Should name the tables that failed", func(t *testing.T) {
		exec, repo, flags := new(MockExecutor), new(MockSchemaRepo), redis.NewMemoryStore()
		uc := newSchemaUC(exec, repo, flags)

		repo.On("InstallExecSQL", mock.Anything).Return(nil)
		repo.On("TableExists", mock.Anything, "widgets").Return(errors.New("relation does not exist"))
		exec.On("Exec", mock.Anything, mock.Anything).Return(domain.SQLResult{
			Path: "rpc",
			Err:  &domain.SQLError{Kind: domain.SQLErrHTTPStatus, Status: 400, Message: "permission denied"},
		})

		_, err := uc.Provision(context.Background())
		ae := appErr(t, err)
		assert.Equal(t, apperror.KindInternal, ae.Kind)
		assert.Equal(t, "Schema provisioning failed for tables: widgets", ae.Message)
	})
}

func TestSchemaEnsure(t *testing.T) {
	t.Run("Should provision once then trust the flag", func(t *testing.T) {
		exec, repo, flags := new(MockExecutor), new(MockSchemaRepo), redis.NewMemoryStore()
		uc := newSchemaUC(exec, repo, flags)

		repo.On("TableExists", mock.Anything, "widgets").Return(nil)
		exec.On("Exec", mock.Anything, mock.Anything).Return(sqlOK)

		uc.Ensure(context.Background())
		uc.Ensure(context.Background())

		repo.AssertNumberOfCalls(t, "TableExists", 1)
		repo.AssertNotCalled(t, "InstallExecSQL", mock.Anything)
	})

	t.Run("Should retry after a failed attempt", func(t *testing.T) {
		exec, repo, flags := new(MockExecutor), new(MockSchemaRepo), redis.NewMemoryStore()
		uc := newSchemaUC(exec, repo, flags)

		repo.On("TableExists", mock.Anything, "widgets").Return(errors.New("relation does not exist"))
		exec.On("Exec", mock.Anything, mock.Anything).Return(domain.SQLResult{
			Err: &domain.SQLError{Kind: domain.SQLErrNetwork, Message: "dial tcp: timeout"},
		})

		assert.NotPanics(t, func() { uc.Ensure(context.Background()) })
		first := len(repo.Calls)
		uc.Ensure(context.Background())

		ready, err := flags.HasFlag(context.Background(), "zaanjob:schema:ready")
		require.NoError(t, err)
		assert.False(t, ready)
		assert.Greater(t, len(repo.Calls), first)
	})

	t.Run("Should survive a cancelled caller", func(t *testing.T) {
		exec, repo, flags := new(MockExecutor), new(MockSchemaRepo), redis.NewMemoryStore()
		uc := newSchemaUC(exec, repo, flags)

		var sawCancelled bool
		repo.On("TableExists", mock.Anything, "widgets").
			Run(func(args mock.Arguments) {
				sawCancelled = args.Get(0).(context.Context).Err() != nil
			}).Return(nil)
		exec.On("Exec", mock.Anything, mock.Anything).Return(sqlOK)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		uc.Ensure(ctx)
		assert.False(t, sawCancelled)
	})
}

func TestSchemaStatus(t *testing.T) {
	exec, repo := new(MockExecutor), new(MockSchemaRepo)
	uc := usecase.NewSchemaUsecase(exec, repo, redis.NewMemoryStore(), []domain.TableSchema{widgets, {Name: "gadgets"}}, time.Hour, testLog)

	repo.On("TableExists", mock.Anything, "widgets").Return(nil)
	repo.On("TableExists", mock.Anything, "gadgets").Return(domain.ErrTableMissing)
	repo.On("Columns", mock.Anything, "widgets").Return([]domain.ColumnInfo{{Table: "widgets", Column: "id", DataType: "uuid"}}, nil)

	st, err := uc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, st, 2)
	assert.True(t, st[0].Exists)
	assert.Len(t, st[0].Columns, 1)
	assert.False(t, st[1].Exists)
	assert.NotEmpty(t, st[1].Error)
	assert.Empty(t, st[1].Columns)
}
