package fbsvc

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTokenCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryTokenCache()

	if _, ok := cache.Get(ctx, "uid1:99001"); ok {
		t.Error("Cache mới phải rỗng")
	}

	cache.Set(ctx, "uid1:99001", "token-a")
	token, ok := cache.Get(ctx, "uid1:99001")
	if !ok || token != "token-a" {
		t.Errorf("Đọc lại token vừa ghi: muốn token-a, được %q (ok=%v)", token, ok)
	}

	// Key theo scope: scope khác không thấy token của nhau
	if _, ok := cache.Get(ctx, "uid2:99001"); ok {
		t.Error("Token phải tách biệt theo scope key")
	}

	cache.Invalidate(ctx, "uid1:99001")
	if _, ok := cache.Get(ctx, "uid1:99001"); ok {
		t.Error("Token phải biến mất sau khi invalidate")
	}
}

func TestMemoryTokenCacheClear(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryTokenCache()

	cache.Set(ctx, "uid1:99001", "token-a")
	cache.Set(ctx, "uid1:99002", "token-b")
	cache.Set(ctx, "uid2:99001", "token-c")

	cache.Clear(ctx)

	for _, key := range []string{"uid1:99001", "uid1:99002", "uid2:99001"} {
		if _, ok := cache.Get(ctx, key); ok {
			t.Errorf("Token %s phải biến mất sau khi clear", key)
		}
	}

	// Cache vẫn dùng được sau khi clear
	cache.Set(ctx, "uid1:99001", "token-moi")
	if token, ok := cache.Get(ctx, "uid1:99001"); !ok || token != "token-moi" {
		t.Errorf("Cache phải ghi được sau clear, được %q (ok=%v)", token, ok)
	}
}

func TestMemoryTokenCacheTTL(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	cache := NewMemoryTokenCache()
	cache.now = func() time.Time { return current }

	cache.Set(ctx, "uid1:99001", "token-a")

	// 59 phút sau vẫn còn trong TTL 1 giờ
	current = current.Add(59 * time.Minute)
	if token, ok := cache.Get(ctx, "uid1:99001"); !ok || token != "token-a" {
		t.Errorf("Token phải còn sống ở phút 59, được %q (ok=%v)", token, ok)
	}

	// 61 phút sau phải hết hạn, buộc phân giải lại từ vault
	current = current.Add(2 * time.Minute)
	if _, ok := cache.Get(ctx, "uid1:99001"); ok {
		t.Error("Token phải hết hạn sau 1 giờ")
	}
}

func TestTokenCacheKey(t *testing.T) {
	s := &FbTokenService{}
	if got := s.cacheKey("uid1", "99001"); got != "uid1:99001" {
		t.Errorf("Cache key không đúng: %s", got)
	}
	// Scope rỗng (token dùng chung) vẫn tạo key hợp lệ
	if got := s.cacheKey("", "99001"); got != ":99001" {
		t.Errorf("Cache key với scope rỗng không đúng: %s", got)
	}
}
