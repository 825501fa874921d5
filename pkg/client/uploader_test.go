package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/internal/types"
)

// newTestServer 同时伪造签发端点与预签名 PUT 目标.
func newTestServer(t *testing.T, issueStatus, putStatus int) (*httptest.Server, *capturedUpload) {
	t.Helper()

	captured := &capturedUpload{}
	mux := http.NewServeMux()

	var srv *httptest.Server

	mux.HandleFunc("/api/v1/media/uploads", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

			return
		}

		var req types.IssueUploadRequest
		raw, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(raw, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		captured.issued = req
		captured.identity = r.Header.Get("X-Auth-Request-Email")

		if issueStatus != http.StatusOK {
			http.Error(w, "issue failed", issueStatus)

			return
		}

		resp, _ := sonic.Marshal(types.UploadTarget{
			ObjectKey:   "uploads/alice/1712000000000-" + req.FileName,
			WriteURL:    srv.URL + "/presigned/" + req.FileName,
			ReadURL:     "http://storage.local/mediavault/uploads/alice/1712000000000-" + req.FileName,
			ContentType: req.ContentType,
			ExpiresIn:   3600,
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(resp)
	})

	mux.HandleFunc("/presigned/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

			return
		}

		captured.putBody, _ = io.ReadAll(r.Body)
		captured.putContentType = r.Header.Get("Content-Type")
		captured.putACL = r.Header.Get("x-amz-acl")
		w.WriteHeader(putStatus)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, captured
}

type capturedUpload struct {
	issued         types.IssueUploadRequest
	identity       string
	putBody        []byte
	putContentType string
	putACL         string
}

func TestUploadPutsBytesAndReturnsReadURL(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, http.StatusOK)

	u := NewUploader(srv.URL, WithIdentity("alice@example.com"))

	target, err := u.Upload(context.Background(), "photo.jpg", "image/jpeg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if target.ReadURL == "" {
		t.Fatal("expected read url")
	}

	if captured.issued.FileName != "photo.jpg" {
		t.Fatalf("issued file name = %q", captured.issued.FileName)
	}

	if captured.identity != "alice@example.com" {
		t.Fatalf("identity header = %q", captured.identity)
	}

	if string(captured.putBody) != "jpeg-bytes" {
		t.Fatalf("put body = %q", captured.putBody)
	}

	if captured.putContentType != "image/jpeg" {
		t.Fatalf("put content type = %q", captured.putContentType)
	}

	if captured.putACL != "public-read" {
		t.Fatalf("put acl header = %q", captured.putACL)
	}
}

func TestUploadIssueFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, http.StatusOK)

	u := NewUploader(srv.URL)

	if _, err := u.Upload(context.Background(), "photo.jpg", "image/jpeg", []byte("x")); err == nil {
		t.Fatal("expected error when issue endpoint fails")
	}
}

func TestUploadPutFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, http.StatusForbidden)

	u := NewUploader(srv.URL)

	if _, err := u.Upload(context.Background(), "photo.jpg", "image/jpeg", []byte("x")); err == nil {
		t.Fatal("expected error when presigned put is rejected")
	}
}

func TestIssueTargetDecodesTarget(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, http.StatusOK)

	u := NewUploader(srv.URL)

	target, err := u.IssueTarget(context.Background(), "clip.mp4", "video/mp4")
	if err != nil {
		t.Fatalf("IssueTarget: %v", err)
	}

	if target.ObjectKey == "" || target.WriteURL == "" {
		t.Fatalf("incomplete target: %+v", target)
	}

	if target.ExpiresIn != 3600 {
		t.Fatalf("expires_in = %d", target.ExpiresIn)
	}
}
