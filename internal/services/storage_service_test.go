package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSupabaseStorageUploadAndDelete(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotUpsert, gotType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUpsert = r.Header.Get("x-upsert")
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	storage := NewSupabaseStorageService(server.URL+"/", "gym", "secret")
	url, err := storage.Put(context.Background(), "/products/4/abc.jpg", []byte("jpeg-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != server.URL+"/storage/v1/object/public/gym/products/4/abc.jpg" {
		t.Fatalf("unexpected public url %q", url)
	}
	if gotMethod != http.MethodPost || gotPath != "/storage/v1/object/gym/products/4/abc.jpg" {
		t.Fatalf("unexpected upload request %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer secret" || gotUpsert != "true" || gotType != "image/jpeg" || gotBody != "jpeg-bytes" {
		t.Fatalf("unexpected upload headers/body: %q %q %q %q", gotAuth, gotUpsert, gotType, gotBody)
	}

	if err := storage.Remove(context.Background(), url); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/storage/v1/object/gym/products/4/abc.jpg" {
		t.Fatalf("unexpected delete request %s %s", gotMethod, gotPath)
	}
}

func TestSupabaseStorageErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, "bucket missing", http.StatusBadRequest)
	}))
	defer server.Close()

	storage := NewSupabaseStorageService(server.URL, "gym", "secret")
	_, err := storage.Put(context.Background(), "products/a.jpg", []byte("x"), "image/jpeg")
	if err == nil || !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "bucket missing") {
		t.Fatalf("expected upload status error, got %v", err)
	}

	if err := storage.Remove(context.Background(), server.URL+"/storage/v1/object/public/gym/products/a.jpg"); err != nil {
		t.Fatalf("expected missing object to be ignored, got %v", err)
	}

	if err := storage.Remove(context.Background(), "https://elsewhere.example/storage/v1/object/public/other/a.jpg"); err == nil {
		t.Fatal("expected foreign bucket url to be rejected")
	}

	if _, err := storage.Put(context.Background(), "/", []byte("x"), "image/jpeg"); err == nil {
		t.Fatal("expected empty object path to be rejected")
	}
}
