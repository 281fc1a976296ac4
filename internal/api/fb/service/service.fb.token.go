package fbsvc

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
	"alpha_crm/internal/logger"

	"github.com/redis/go-redis/v9"
)

// tokenCacheTTL thời gian sống của token trong cache.
// Page access token của Meta sống hàng chục ngày nên 1 giờ là an toàn,
// đồng thời đảm bảo token mới có hiệu lực trong vòng 1 giờ sau khi đổi.
const tokenCacheTTL = time.Hour

// TokenCache cache page access token đã giải mã theo key "{scopeKey}:{pageId}".
// Có hai implementation: in-memory cho single instance, Redis khi chạy nhiều instance.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, token string)
	Invalidate(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// ===========================================
// IN-MEMORY CACHE
// ===========================================

// memoryTokenEntry một token kèm thời điểm ghi vào cache
type memoryTokenEntry struct {
	token    string
	cachedAt time.Time
}

// MemoryTokenCache cache token trong process, dùng khi không cấu hình Redis.
// TTL kiểm tra lúc đọc theo đồng hồ now (thay được trong test).
type MemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]memoryTokenEntry
	now     func() time.Time
}

// NewMemoryTokenCache tạo cache in-memory với TTL 1 giờ
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{
		entries: make(map[string]memoryTokenEntry),
		now:     time.Now,
	}
}

func (m *MemoryTokenCache) Get(ctx context.Context, key string) (string, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if m.now().Sub(entry.cachedAt) >= tokenCacheTTL {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false
	}
	return entry.token, true
}

func (m *MemoryTokenCache) Set(ctx context.Context, key, token string) {
	m.mu.Lock()
	m.entries[key] = memoryTokenEntry{token: token, cachedAt: m.now()}
	m.mu.Unlock()
}

func (m *MemoryTokenCache) Invalidate(ctx context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Clear xóa toàn bộ token trong cache, dùng khi đổi khóa mã hóa vault.
func (m *MemoryTokenCache) Clear(ctx context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]memoryTokenEntry)
	m.mu.Unlock()
}

// ===========================================
// REDIS CACHE
// ===========================================

// RedisTokenCache cache token trong Redis, chia sẻ giữa các instance.
// Mọi lỗi Redis được coi là cache miss: hệ thống vẫn chạy được khi Redis chết,
// chỉ chậm hơn vì phải giải mã lại từ vault.
type RedisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache tạo cache Redis từ cấu hình server
func NewRedisTokenCache(addr, password string) *RedisTokenCache {
	return &RedisTokenCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (r *RedisTokenCache) Get(ctx context.Context, key string) (string, bool) {
	token, err := r.client.Get(ctx, "fb_token:"+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.GetErrorLogger().WithError(err).Warn("Đọc token cache từ Redis thất bại")
		}
		return "", false
	}
	return token, true
}

func (r *RedisTokenCache) Set(ctx context.Context, key, token string) {
	if err := r.client.Set(ctx, "fb_token:"+key, token, tokenCacheTTL).Err(); err != nil {
		logger.GetErrorLogger().WithError(err).Warn("Ghi token cache vào Redis thất bại")
	}
}

func (r *RedisTokenCache) Invalidate(ctx context.Context, key string) {
	if err := r.client.Del(ctx, "fb_token:"+key).Err(); err != nil {
		logger.GetErrorLogger().WithError(err).Warn("Xóa token cache khỏi Redis thất bại")
	}
}

// Clear xóa toàn bộ token trong Redis theo prefix fb_token:.
// Dùng SCAN thay vì KEYS để không chặn Redis khi key nhiều.
func (r *RedisTokenCache) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, "fb_token:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.GetErrorLogger().WithError(err).Warn("Xóa token cache khỏi Redis thất bại")
		}
	}
	if err := iter.Err(); err != nil {
		logger.GetErrorLogger().WithError(err).Warn("Quét token cache trong Redis thất bại")
	}
}

// NewTokenCacheFromConfig chọn implementation cache theo cấu hình:
// có REDIS_ADDR thì dùng Redis, không thì in-memory.
func NewTokenCacheFromConfig() TokenCache {
	cfg := global.ServerConfig
	if cfg != nil && cfg.RedisAddr != "" {
		logger.GetAppLogger().Infof("Token cache dùng Redis tại %s", cfg.RedisAddr)
		return NewRedisTokenCache(cfg.RedisAddr, cfg.RedisPassword)
	}
	return NewMemoryTokenCache()
}

// ===========================================
// TOKEN RESOLVER
// ===========================================

// FbTokenService phân giải page access token cho một trang theo thứ tự:
//  1. Cache (memory hoặc Redis)
//  2. Vault (giải mã credential trong MongoDB)
//  3. Biến môi trường META_PAGE_ACCESS_TOKEN_{pageId}
//  4. Biến môi trường META_PAGE_ACCESS_TOKEN (fallback toàn cục)
//
// Không tìm thấy ở đâu cả thì trả về chuỗi rỗng và nil error:
// trang không có token bị BỎ QUA khi đồng bộ chứ không làm fail cả batch.
type FbTokenService struct {
	cache       TokenCache
	credentials *FbCredentialService
}

// NewFbTokenService tạo FbTokenService với cache truyền từ ngoài vào
// để test có thể thay bằng cache giả.
func NewFbTokenService(cache TokenCache, credentials *FbCredentialService) *FbTokenService {
	return &FbTokenService{cache: cache, credentials: credentials}
}

// cacheKey key cache theo scope và trang
func (s *FbTokenService) cacheKey(scopeKey, pageId string) string {
	return scopeKey + ":" + pageId
}

// GetPageAccessToken trả về token plaintext của trang, hoặc "" nếu không có.
// Lỗi giải mã (ErrDecryption) được propagate vì cần hành động của người dùng
// (kết nối lại trang); các trường hợp thiếu token chỉ trả về "".
func (s *FbTokenService) GetPageAccessToken(ctx context.Context, scopeKey, pageId string) (string, error) {
	key := s.cacheKey(scopeKey, pageId)
	if token, ok := s.cache.Get(ctx, key); ok && token != "" {
		return token, nil
	}

	token, err := s.credentials.GetToken(ctx, pageId)
	switch {
	case err == nil && token != "":
		s.cache.Set(ctx, key, token)
		return token, nil
	case errors.Is(err, common.ErrDecryption):
		return "", err
	case err != nil && !errors.Is(err, common.ErrNotFound):
		logger.GetErrorLogger().WithError(err).WithFields(map[string]interface{}{
			"pageId": pageId,
		}).Warn("Đọc credential thất bại, thử fallback biến môi trường")
	}

	if token := os.Getenv("META_PAGE_ACCESS_TOKEN_" + pageId); token != "" {
		s.cache.Set(ctx, key, token)
		return token, nil
	}
	if global.ServerConfig != nil && global.ServerConfig.MetaPageAccessToken != "" {
		token := global.ServerConfig.MetaPageAccessToken
		s.cache.Set(ctx, key, token)
		return token, nil
	}
	return "", nil
}

// InvalidateToken xóa token khỏi cache, gọi sau khi đổi token của trang.
func (s *FbTokenService) InvalidateToken(ctx context.Context, scopeKey, pageId string) {
	s.cache.Invalidate(ctx, s.cacheKey(scopeKey, pageId))
}
