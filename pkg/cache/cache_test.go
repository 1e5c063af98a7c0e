package cache_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yeisme/dropvault/pkg/cache"
)

// shareTarget 测试用的分享解析结果结构体.
type shareTarget struct {
	FileID uint   `json:"file_id"`
	Key    string `json:"key"`
	Name   string `json:"name"`
}

// mockKVStore 模拟KV存储实现.
type mockKVStore struct {
	data map[string][]byte
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{
		data: make(map[string][]byte),
	}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, exists := m.data[key]; exists {
		return value, nil
	}

	return nil, fmt.Errorf("key not found")
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockKVStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(ctx context.Context, key string) (bool, error) {
	_, exists := m.data[key]
	return exists, nil
}

func (m *mockKVStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}

	return keys, nil
}

func (m *mockKVStore) Close() error {
	return nil
}

// TestNewCache 测试 NewCache 函数.
func TestNewCache(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)

	if c == nil {
		t.Fatal("NewCache returned nil")
	}
}

// TestCache_GetSet 测试 Get/Set 方法.
func TestCache_GetSet(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	// 获取不存在的键
	_, err := cache.Get[shareTarget](ctx, c, "share:missing")
	if err == nil {
		t.Error("Expected error for nonexistent key")
	}

	target := shareTarget{FileID: 7, Key: "1735790645123_a1b2c3d4e5f6.pdf", Name: "report.pdf"}

	err = cache.Set(ctx, c, "share:tok1", target, 0)
	if err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	got, err := cache.Get[shareTarget](ctx, c, "share:tok1")
	if err != nil {
		t.Fatalf("Failed to get cache: %v", err)
	}

	if got != target {
		t.Errorf("Retrieved %+v does not match original %+v", got, target)
	}
}

// TestCache_Delete 测试 Delete 方法.
func TestCache_Delete(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	target := shareTarget{FileID: 3, Key: "k", Name: "n"}
	if err := cache.Set(ctx, c, "share:tok3", target, 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	if err := c.Delete(ctx, "share:tok3"); err != nil {
		t.Fatalf("Failed to delete cache: %v", err)
	}

	if _, err := cache.Get[shareTarget](ctx, c, "share:tok3"); err == nil {
		t.Error("Expected error after delete")
	}
}

// TestCache_Exists 测试 Exists 方法.
func TestCache_Exists(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	exists, err := c.Exists(ctx, "share:nothing")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}

	if exists {
		t.Error("Expected key to not exist")
	}

	if err := cache.Set(ctx, c, "share:tok4", shareTarget{FileID: 4}, 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	exists, err = c.Exists(ctx, "share:tok4")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}

	if !exists {
		t.Error("Expected key to exist")
	}
}

// TestCache_GetOrSet 测试 GetOrSet 方法.
func TestCache_GetOrSet(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	calls := 0
	getter := func() (shareTarget, error) {
		calls++
		return shareTarget{FileID: 9, Key: "k9", Name: "n9"}, nil
	}

	// 第一次调用应触发 getter
	got, err := cache.GetOrSet(ctx, c, "share:tok9", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	if got.FileID != 9 || calls != 1 {
		t.Errorf("got %+v, calls=%d; want FileID=9, calls=1", got, calls)
	}

	// 第二次调用应命中缓存
	got, err = cache.GetOrSet(ctx, c, "share:tok9", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	if got.FileID != 9 || calls != 1 {
		t.Errorf("got %+v, calls=%d; want cache hit with calls=1", got, calls)
	}
}

// TestCache_GetOrSet_GetterError 测试 getter 返回错误的情况.
func TestCache_GetOrSet_GetterError(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	wantErr := errors.New("resolve failed")
	getter := func() (shareTarget, error) {
		return shareTarget{}, wantErr
	}

	_, err := cache.GetOrSet(ctx, c, "share:bad", getter, time.Minute)
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrSet error = %v, want %v", err, wantErr)
	}
}

// TestCache_Clear 测试 Clear 方法.
func TestCache_Clear(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	for i := range 3 {
		key := fmt.Sprintf("share:tok%d", i)
		if err := cache.Set(ctx, c, key, shareTarget{FileID: uint(i)}, 0); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for i := range 3 {
		key := fmt.Sprintf("share:tok%d", i)
		if exists, _ := c.Exists(ctx, key); exists {
			t.Errorf("key %s still exists after Clear", key)
		}
	}
}
