package middleware

import (
	"strings"
	"sync"
	"time"

	"alpha_crm/internal/common"
	"alpha_crm/internal/logger"
	"alpha_crm/internal/utility"

	"github.com/gofiber/fiber/v3"
)

var (
	tokenCache     *utility.Cache
	tokenCacheOnce sync.Once
)

// getTokenCache trả về cache cho các token đã verify (TTL 5 phút)
func getTokenCache() *utility.Cache {
	tokenCacheOnce.Do(func() {
		tokenCache = utility.NewCache(5*time.Minute, 10*time.Minute)
	})
	return tokenCache
}

// AuthMiddleware xác thực Firebase ID token từ header Authorization.
// Token hợp lệ thì uid được lưu vào Locals("userID") cho handler phía sau.
//
// ⚠️ Fiber v3: middleware phải đăng ký qua .Use() trong group
// (RegisterRouteWithMiddleware), không truyền trực tiếp vào route.
func AuthMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		idToken := strings.TrimPrefix(authHeader, "Bearer ")
		if idToken == authHeader || idToken == "" {
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		// Kiểm tra cache trước để tránh gọi Firebase mỗi request
		cache := getTokenCache()
		if cached, found := cache.Get(idToken); found {
			c.Locals("userID", cached.(string))
			return c.Next()
		}

		token, err := utility.VerifyIDToken(c.Context(), idToken)
		if err != nil {
			logger.WithRequest(c).WithError(err).Warn("⚠️ Token không hợp lệ")
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		cache.Set(idToken, token.UID)
		c.Locals("userID", token.UID)
		return c.Next()
	}
}
