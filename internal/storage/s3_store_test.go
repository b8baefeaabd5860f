package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"zaanjob-backend/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3 struct {
	mock.Mock
}

func (m *MockS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, aws.ToString(in.Bucket))
	return &s3.HeadBucketOutput{}, args.Error(0)
}

func (m *MockS3) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, aws.ToString(in.Bucket))
	return &s3.CreateBucketOutput{}, args.Error(0)
}

func (m *MockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	args := m.Called(ctx, aws.ToString(in.Bucket), aws.ToString(in.Key), aws.ToString(in.ContentType), body)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func TestS3BucketExists(t *testing.T) {
	api := new(MockS3)
	store := NewS3Store(api, "https://abc.supabase.co/")

	api.On("HeadBucket", mock.Anything, "resume_photos").Return(nil)
	api.On("HeadBucket", mock.Anything, "resume_cvs").Return(&types.NotFound{})
	api.On("HeadBucket", mock.Anything, "broken").Return(errors.New("access denied"))

	ok, err := store.BucketExists(context.Background(), domain.BucketPhotos)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.BucketExists(context.Background(), domain.BucketCVs)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.BucketExists(context.Background(), "broken")
	assert.Error(t, err)
}

func TestS3CreateBucketIsIdempotent(t *testing.T) {
	api := new(MockS3)
	store := NewS3Store(api, "https://abc.supabase.co")

	api.On("CreateBucket", mock.Anything, "resume_photos").Return(&types.BucketAlreadyOwnedByYou{})
	api.On("CreateBucket", mock.Anything, "resume_cvs").Return(errors.New("quota exceeded"))

	assert.NoError(t, store.CreateBucket(context.Background(), domain.DefaultBuckets[0]))
	assert.Error(t, store.CreateBucket(context.Background(), domain.DefaultBuckets[1]))
}

func TestS3Upload(t *testing.T) {
	api := new(MockS3)
	store := NewS3Store(api, "https://abc.supabase.co/")

	data := []byte("%PDF-1.4")
	api.On("PutObject", mock.Anything, "resume_cvs", "u1-1.pdf", "application/pdf", data).Return(nil)

	url, err := store.Upload(context.Background(), domain.BucketCVs, "u1-1.pdf", data, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/resume_cvs/u1-1.pdf", url)
	api.AssertExpectations(t)
}
