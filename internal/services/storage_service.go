package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StorageService keeps product images in an object bucket. Put returns the
// public URL of the stored object; Remove accepts that URL back.
type StorageService interface {
	Put(ctx context.Context, objectPath string, content []byte, contentType string) (string, error)
	Remove(ctx context.Context, publicURL string) error
}

// SupabaseStorageService talks to the Supabase Storage REST API with a
// service-role key.
type SupabaseStorageService struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorageService(baseURL, bucket, serviceKey string) *SupabaseStorageService {
	return &SupabaseStorageService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStorageService) objectURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStorageService) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStorageService) Put(ctx context.Context, objectPath string, content []byte, contentType string) (string, error) {
	objectPath = strings.Trim(objectPath, "/")
	if objectPath == "" {
		return "", fmt.Errorf("put object: empty path")
	}

	headers := map[string]string{
		"Content-Type":  contentType,
		"Cache-Control": "max-age=3600",
		"x-upsert":      "true",
	}
	if _, err := s.send(ctx, http.MethodPost, s.objectURL(objectPath), bytes.NewReader(content), headers); err != nil {
		return "", fmt.Errorf("put object %s: %w", objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

// Remove deletes the object behind publicURL. A missing object is not an
// error.
func (s *SupabaseStorageService) Remove(ctx context.Context, publicURL string) error {
	objectPath, err := s.objectPathFromURL(publicURL)
	if err != nil {
		return err
	}

	status, err := s.send(ctx, http.MethodDelete, s.objectURL(objectPath), nil, nil)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove object %s: %w", objectPath, err)
	}
	return nil
}

func (s *SupabaseStorageService) send(ctx context.Context, method, target string, body io.Reader, headers map[string]string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp.StatusCode, nil
}

func (s *SupabaseStorageService) objectPathFromURL(publicURL string) (string, error) {
	parsed, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}

	for _, prefix := range []string{
		"/storage/v1/object/public/" + s.bucket + "/",
		"/storage/v1/object/" + s.bucket + "/",
	} {
		if objectPath, ok := strings.CutPrefix(parsed.Path, prefix); ok && objectPath != "" {
			return objectPath, nil
		}
	}
	return "", fmt.Errorf("object url %q is outside bucket %s", publicURL, s.bucket)
}
