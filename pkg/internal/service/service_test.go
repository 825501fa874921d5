package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"image"

	"github.com/yeisme/mediavault/pkg/configs"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
	"github.com/yeisme/mediavault/pkg/internal/service"
)

// initTestConfig 加载默认配置（无配置文件，使用内置默认值）.
func initTestConfig(t *testing.T) {
	t.Helper()

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("init config: %v", err)
	}
}

// fakeStore 内存对象存储，实现 service.ObjectStore.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	// removeErrs 注入指定键的删除失败
	removeErrs map[string]error
	// presignErr 注入签名失败
	presignErr error
}

type fakeObject struct {
	data []byte
	info s3c.ObjectInfo
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:    make(map[string]fakeObject),
		removeErrs: make(map[string]error),
	}
}

func (f *fakeStore) put(key string, data []byte, modified time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[key] = fakeObject{
		data: data,
		info: s3c.ObjectInfo{
			Key:          key,
			Size:         int64(len(data)),
			ETag:         fmt.Sprintf("etag-%d", len(data)),
			ContentType:  "application/octet-stream",
			LastModified: modified,
		},
	}
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.objects[key]

	return ok
}

func (f *fakeStore) get(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.objects[key].data
}

func (f *fakeStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}

	return out
}

func (f *fakeStore) Fetch(ctx context.Context, key string) (io.ReadCloser, s3c.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[key]
	if !ok {
		return nil, s3c.ObjectInfo{}, fmt.Errorf("no such key: %s", key)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (f *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, opts s3c.PutOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[key] = fakeObject{
		data: data,
		info: s3c.ObjectInfo{
			Key:          key,
			Size:         int64(len(data)),
			ContentType:  opts.ContentType,
			UserMetadata: opts.UserMetadata,
			LastModified: time.Now(),
		},
	}

	return nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	// 真实客户端尊重上下文取消
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.removeErrs[key]; ok {
		return err
	}

	delete(f.objects, key)

	return nil
}

func (f *fakeStore) Stat(ctx context.Context, key string) (s3c.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[key]
	if !ok {
		return s3c.ObjectInfo{}, fmt.Errorf("no such key: %s", key)
	}

	return obj.info, nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.objects[key]

	return ok, nil
}

func (f *fakeStore) ListPrefix(ctx context.Context, prefix string) ([]s3c.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []s3c.ObjectInfo

	for k, obj := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, obj.info)
		}
	}

	return out, nil
}

func (f *fakeStore) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}

	// 与真实实现一致：内容类型参与签名时体现在签名参数里
	return fmt.Sprintf("https://storage.test/%s?signed=1&expires=%d&X-Amz-SignedHeaders=content-type&content-type=%s",
		key, int(expiry.Seconds()), url.QueryEscape(contentType)), nil
}

var _ service.ObjectStore = (*fakeStore)(nil)

// encodeTestJPEG 生成指定尺寸的 JPEG 测试图字节.
func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := imaging.New(w, h, image.Transparent.C)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}

	return buf.Bytes()
}
