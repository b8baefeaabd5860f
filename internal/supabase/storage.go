package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"zaanjob-backend/internal/domain"
)

const uploadTimeout = 30 * time.Second

// StorageStore implements domain.ObjectStore over the Storage REST API.
type StorageStore struct {
	client *Client
}

func NewStorageStore(client *Client) *StorageStore {
	return &StorageStore{client: client}
}

func (s *StorageStore) BucketExists(ctx context.Context, name string) (bool, error) {
	if !s.client.Configured() {
		return false, domain.ErrStorageNotConfigured
	}
	url := fmt.Sprintf("%s/storage/v1/bucket/%s", s.client.baseURL, name)
	resp, err := s.client.do(ctx, http.MethodGet, url, s.client.storageKey(), nil, nil)
	if err != nil {
		return false, err
	}
	if isSuccess(resp.Status) {
		return true, nil
	}
	// Storage answers a missing bucket with 400/404 and "not found" or
	// "does not exist" depending on version.
	body := strings.ToLower(string(resp.Body))
	if resp.Status == http.StatusNotFound || strings.Contains(body, "not found") || strings.Contains(body, "does not exist") {
		return false, nil
	}
	return false, fmt.Errorf("storage: get bucket %s: status %d: %s", name, resp.Status, string(resp.Body))
}

func (s *StorageStore) CreateBucket(ctx context.Context, bucket domain.Bucket) error {
	if !s.client.Configured() {
		return domain.ErrStorageNotConfigured
	}
	payload := map[string]interface{}{
		"id":              bucket.Name,
		"name":            bucket.Name,
		"public":          bucket.Public,
		"file_size_limit": bucket.FileSizeLimit,
	}
	if len(bucket.AllowedMIMETypes) > 0 {
		payload["allowed_mime_types"] = bucket.AllowedMIMETypes
	}
	resp, err := s.client.postJSON(ctx, s.client.baseURL+"/storage/v1/bucket", s.client.storageKey(), payload, nil)
	if err != nil {
		return err
	}
	if isSuccess(resp.Status) || strings.Contains(strings.ToLower(string(resp.Body)), "already exists") {
		return nil
	}
	return fmt.Errorf("storage: create bucket %s: status %d: %s", bucket.Name, resp.Status, string(resp.Body))
}

func (s *StorageStore) Upload(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error) {
	if !s.client.Configured() {
		return "", domain.ErrStorageNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.client.baseURL, bucket, object)
	resp, err := s.client.do(ctx, http.MethodPost, url, s.client.storageKey(), bytes.NewReader(data), map[string]string{
		"Content-Type": contentType,
		"x-upsert":     "true",
	})
	if err != nil {
		return "", err
	}
	if !isSuccess(resp.Status) {
		var se struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		msg := string(resp.Body)
		if json.Unmarshal(resp.Body, &se) == nil && se.Message != "" {
			msg = se.Message
		}
		return "", fmt.Errorf("storage: upload %s/%s: status %d: %s", bucket, object, resp.Status, msg)
	}
	return s.client.PublicObjectURL(bucket, object), nil
}
