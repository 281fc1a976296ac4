package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng.
// Bao gồm kết nối cơ sở dữ liệu và cấu hình tích hợp Meta.
type Configuration struct {
	InitMode              bool   `env:"INITMODE" envDefault:"false"`               // Chế độ khởi tạo
	Address               string `env:"ADDRESS" envDefault:":8080"`                // Địa chỉ server
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName_Data   string `env:"MONGODB_DBNAME_DATA,required"`              // Tên cơ sở dữ liệu data
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting
	// Meta / Facebook Graph Configuration
	MetaAppID              string `env:"META_APP_ID"`                              // App ID của ứng dụng Meta
	MetaAppSecret          string `env:"META_APP_SECRET"`                          // App secret, dùng verify chữ ký webhook
	MetaGraphVersion       string `env:"META_GRAPH_VERSION" envDefault:"v19.0"`    // Phiên bản Graph API
	MetaGraphBaseURL       string `env:"META_GRAPH_BASE_URL"`                      // Override base URL Graph API (dùng cho test)
	MetaWebhookVerifyToken string `env:"META_WEBHOOK_VERIFY_TOKEN"`                // Token xác thực webhook subscription
	MetaPageAccessToken    string `env:"META_PAGE_ACCESS_TOKEN"`                   // Page access token fallback toàn cục
	MetaStrictSignature    bool   `env:"META_STRICT_SIGNATURE" envDefault:"false"` // Bật thì reject webhook sai chữ ký thay vì chỉ log
	// Inbox Sync Worker Configuration
	InboxSyncEnabled         bool `env:"INBOX_SYNC_ENABLED" envDefault:"true"`        // Bật worker đồng bộ inbox nền
	InboxSyncIntervalMinutes int  `env:"INBOX_SYNC_INTERVAL_MINUTES" envDefault:"10"` // Chu kỳ đồng bộ (phút)
	// Token Vault Configuration
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"` // Khóa mã hóa token trong vault (AES-256-GCM)
	// Redis Configuration (optional - bật Redis token cache khi có địa chỉ)
	RedisAddr     string `env:"REDIS_ADDR"`     // Địa chỉ Redis, rỗng thì dùng in-memory cache
	RedisPassword string `env:"REDIS_PASSWORD"` // Mật khẩu Redis (optional)
	// Firebase Configuration
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`       // Firebase Project ID
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"` // Đường dẫn đến service account JSON
	FirebaseAPIKey          string `env:"FIREBASE_API_KEY"`          // Firebase Web API Key (cho frontend)
	// Frontend URL
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"` // URL frontend
	// TLS/HTTPS Configuration
	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"` // Bật HTTPS
	TLSCertFile string `env:"TLS_CERT_FILE"`                 // Đường dẫn đến file certificate (.crt hoặc .pem)
	TLSKeyFile  string `env:"TLS_KEY_FILE"`                  // Đường dẫn đến file private key (.key)
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Tìm thư mục config
	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			// Tìm thấy thư mục config/env
			envPath := filepath.Join(envDir, fmt.Sprintf("%s.env", env))
			return envPath
		}

		// Đi lên thư mục cha
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
