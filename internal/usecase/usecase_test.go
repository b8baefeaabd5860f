package usecase_test

import (
	"context"
	"time"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/logger"
	"zaanjob-backend/pkg/security"
	"zaanjob-backend/pkg/security/antivirus"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// Mock Repositories
type MockResumeRepo struct {
	mock.Mock
}

func (m *MockResumeRepo) Create(ctx context.Context, resume *domain.Resume) error {
	return m.Called(ctx, resume).Error(0)
}

func (m *MockResumeRepo) GetBySlug(ctx context.Context, slug string) (*domain.Resume, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resume), args.Error(1)
}

func (m *MockResumeRepo) GetByID(ctx context.Context, id string) (*domain.Resume, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resume), args.Error(1)
}

func (m *MockResumeRepo) FindByName(ctx context.Context, fragment string) (*domain.Resume, error) {
	args := m.Called(ctx, fragment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resume), args.Error(1)
}

func (m *MockResumeRepo) List(ctx context.Context, filter domain.ResumeFilter) ([]domain.Resume, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Resume), args.Error(1)
}

func (m *MockResumeRepo) Update(ctx context.Context, resume *domain.Resume) error {
	return m.Called(ctx, resume).Error(0)
}

func (m *MockResumeRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockResumeRepo) SetViews(ctx context.Context, id string, views int) error {
	return m.Called(ctx, id, views).Error(0)
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockSchemaRepo struct {
	mock.Mock
}

func (m *MockSchemaRepo) TableExists(ctx context.Context, table string) error {
	return m.Called(ctx, table).Error(0)
}

func (m *MockSchemaRepo) InstallExecSQL(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSchemaRepo) Columns(ctx context.Context, table string) ([]domain.ColumnInfo, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ColumnInfo), args.Error(1)
}

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Exec(ctx context.Context, sql string) domain.SQLResult {
	return m.Called(ctx, sql).Get(0).(domain.SQLResult)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) BucketExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStore) CreateBucket(ctx context.Context, bucket domain.Bucket) error {
	return m.Called(ctx, bucket).Error(0)
}

func (m *MockObjectStore) Upload(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, bucket, object, data, contentType)
	return args.String(0), args.Error(1)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) AllowUpload(ctx context.Context, ip, userID string) (bool, int, error) {
	args := m.Called(ctx, ip, userID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, filename string, data []byte) antivirus.ScanResult {
	return m.Called(ctx, filename, data).Get(0).(antivirus.ScanResult)
}

func (m *MockScanner) Name() string { return "mock" }

func (m *MockScanner) Available(context.Context) bool { return true }

// stubSchema satisfies domain.SchemaUsecase for tests that don't care about
// provisioning.
type stubSchema struct{}

func (stubSchema) Provision(context.Context) (*domain.ProvisionReport, error) {
	return &domain.ProvisionReport{}, nil
}
func (stubSchema) Ensure(context.Context) {}
func (stubSchema) Status(context.Context) ([]domain.SchemaStatus, error) {
	return nil, nil
}

func nopSecLog() *security.SecurityLogger {
	return security.NewSecurityLoggerWith(zap.NewNop(), "zaanjob-backend", "test")
}

var testLog = logger.Discard()

func asUser(userID string) context.Context {
	return domain.WithIdentity(context.Background(), userID, userID+"@example.com", domain.RoleProfessional)
}

func asAdmin(userID string) context.Context {
	return domain.WithIdentity(context.Background(), userID, userID+"@example.com", domain.RoleAdmin)
}
