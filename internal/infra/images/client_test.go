package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mediasvc "github.com/chronon/photochron/internal/services/media"
)

func testUpload() mediasvc.BlobUpload {
	return mediasvc.BlobUpload{
		Filename:    "johndoe_vacation.jpg",
		ContentType: "image/jpeg",
		Size:        3,
		Body:        strings.NewReader("abc"),
		Metadata:    map[string]string{"username": "johndoe", "name": "vacation"},
	}
}

func TestUploadPostsMultipartAndReturnsID(t *testing.T) {
	var gotAuth, gotPath, gotFilename, gotMetadata string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		if _, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
		}
		gotMetadata = r.FormValue("metadata")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"result":{"id":"blob-123","filename":"johndoe_vacation.jpg"},"errors":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, AccountID: "acct-1", Token: "tkn"}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	info, err := client.Upload(context.Background(), testUpload())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if info.ID != "blob-123" || info.Filename != "johndoe_vacation.jpg" {
		t.Fatalf("unexpected blob info: %+v", info)
	}

	if gotAuth != "Bearer tkn" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotPath != "/accounts/acct-1/images/v1" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotFilename != "johndoe_vacation.jpg" {
		t.Fatalf("unexpected multipart filename: %s", gotFilename)
	}
	if !strings.Contains(gotMetadata, `"username":"johndoe"`) {
		t.Fatalf("metadata field missing tenant: %s", gotMetadata)
	}
}

func TestUploadRejectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"message":"invalid token"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, AccountID: "acct-1", Token: "tkn"}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Upload(context.Background(), testUpload())
	if !errors.Is(err, mediasvc.ErrBlobStoreRejected) {
		t.Fatalf("expected ErrBlobStoreRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid token") {
		t.Fatalf("error should carry the api message: %v", err)
	}
}

func TestUploadSuccessWithoutIDIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":{},"errors":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, AccountID: "acct-1", Token: "tkn"}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Upload(context.Background(), testUpload()); !errors.Is(err, mediasvc.ErrBlobStoreRejected) {
		t.Fatalf("expected ErrBlobStoreRejected, got %v", err)
	}
}

func TestUploadNetworkFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, AccountID: "acct-1", Token: "tkn"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Upload(context.Background(), testUpload()); !errors.Is(err, mediasvc.ErrBlobStoreUnavailable) {
		t.Fatalf("expected ErrBlobStoreUnavailable, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"success":true,"result":{},"errors":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, AccountID: "acct-1", Token: "tkn"}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Delete(context.Background(), "blob-123"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/accounts/acct-1/images/v1/blob-123" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}

func TestDeleteRejectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"message":"image not found"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, AccountID: "acct-1", Token: "tkn"}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Delete(context.Background(), "blob-404"); !errors.Is(err, mediasvc.ErrBlobStoreRejected) {
		t.Fatalf("expected ErrBlobStoreRejected, got %v", err)
	}
}
