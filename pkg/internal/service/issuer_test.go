package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

func fixedNow() time.Time {
	return time.UnixMilli(1700000000000)
}

// TestIssueEncodesUploaderAndFileName 键里必须原样带上传者与文件名.
func TestIssueEncodesUploaderAndFileName(t *testing.T) {
	initTestConfig(t)

	issuer := service.NewUploadIssuerWith(newFakeStore(), time.Hour, fixedNow)

	ctx := ctxPkg.WithUploader(context.Background(), "u123")

	target, err := issuer.Issue(ctx, &types.IssueUploadRequest{FileName: "vacation.jpg", ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if target.ObjectKey != "uploads/u123/1700000000000-vacation.jpg" {
		t.Errorf("ObjectKey = %q", target.ObjectKey)
	}

	if !strings.Contains(target.WriteURL, target.ObjectKey) {
		t.Errorf("WriteURL %q does not reference key", target.WriteURL)
	}

	if !strings.HasSuffix(target.ReadURL, target.ObjectKey) {
		t.Errorf("ReadURL %q does not end with key", target.ReadURL)
	}

	if target.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", target.ExpiresIn)
	}
}

// TestIssueUploaderFallback 身份解析顺序：上下文身份 > 显式参数 > anonymous.
func TestIssueUploaderFallback(t *testing.T) {
	initTestConfig(t)

	issuer := service.NewUploadIssuerWith(newFakeStore(), time.Hour, fixedNow)

	// 无任何身份 → anonymous
	target, err := issuer.Issue(context.Background(), &types.IssueUploadRequest{FileName: "a.jpg"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !strings.HasPrefix(target.ObjectKey, "uploads/anonymous/") {
		t.Errorf("ObjectKey = %q, want anonymous namespace", target.ObjectKey)
	}

	// 显式参数
	target, err = issuer.Issue(context.Background(), &types.IssueUploadRequest{FileName: "a.jpg", Uploader: "explicit"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !strings.HasPrefix(target.ObjectKey, "uploads/explicit/") {
		t.Errorf("ObjectKey = %q, want explicit namespace", target.ObjectKey)
	}

	// 认证身份优先于显式参数
	ctx := ctxPkg.WithUploader(context.Background(), "authed")

	target, err = issuer.Issue(ctx, &types.IssueUploadRequest{FileName: "a.jpg", Uploader: "explicit"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !strings.HasPrefix(target.ObjectKey, "uploads/authed/") {
		t.Errorf("ObjectKey = %q, want authed namespace", target.ObjectKey)
	}
}

// TestIssueSignsDeclaredContentType 声明的内容类型必须参与写 URL 签名，
// 缺省时按扩展名推导；目标同时回传绑定的类型供客户端 PUT 使用.
func TestIssueSignsDeclaredContentType(t *testing.T) {
	initTestConfig(t)

	issuer := service.NewUploadIssuerWith(newFakeStore(), time.Hour, fixedNow)

	target, err := issuer.Issue(context.Background(), &types.IssueUploadRequest{FileName: "doc.bin", ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !strings.Contains(target.WriteURL, "content-type=application%2Fpdf") {
		t.Errorf("WriteURL %q does not sign declared content type", target.WriteURL)
	}

	if target.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q, want application/pdf", target.ContentType)
	}

	// 未声明时按扩展名推导
	target, err = issuer.Issue(context.Background(), &types.IssueUploadRequest{FileName: "photo.jpg"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if target.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", target.ContentType)
	}

	if !strings.Contains(target.WriteURL, "content-type=image%2Fjpeg") {
		t.Errorf("WriteURL %q does not sign derived content type", target.WriteURL)
	}
}

// TestIssueSigningFailure 签名失败是唯一的失败来源.
func TestIssueSigningFailure(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	store.presignErr = errors.New("bucket not configured")

	issuer := service.NewUploadIssuerWith(store, time.Hour, fixedNow)

	if _, err := issuer.Issue(context.Background(), &types.IssueUploadRequest{FileName: "a.jpg"}); err == nil {
		t.Fatal("expected issuance error")
	}
}

// TestIssueCreatesNoStorageState 签发本身不产生存储状态.
func TestIssueCreatesNoStorageState(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	issuer := service.NewUploadIssuerWith(store, time.Hour, fixedNow)

	if _, err := issuer.Issue(context.Background(), &types.IssueUploadRequest{FileName: "a.jpg"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if len(store.keys()) != 0 {
		t.Errorf("issuance created %d objects, want 0", len(store.keys()))
	}
}
