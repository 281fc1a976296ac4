package global

import (
	"alpha_crm/config"
	"alpha_crm/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	FbPages           string // Tên collection cho trang Facebook
	FbPageCredentials string // Tên collection cho credential (token mã hóa) của trang
	FbConversations   string // Tên collection cho cuộc trò chuyện trên Facebook
	FbMessageItems    string // Tên collection cho từng message riêng lẻ trên Facebook
	ContactCandidates string // Tên collection cho số điện thoại trích xuất từ hội thoại
	WebhookEvents     string // Tên collection cho event webhook đã xử lý (idempotency)
	WebhookLogs       string // Tên collection cho raw payload webhook
	AuditLogs         string // Tên collection cho audit trail
}

// Các biến toàn cục
var Validate *validator.Validate               // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client              // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration         // Cấu hình của server
var MongoDB_ColNames = MongoDB_CollectionName{ // Tên các collection
	FbPages:           "fb_pages",
	FbPageCredentials: "fb_page_credentials",
	FbConversations:   "fb_conversations",
	FbMessageItems:    "fb_message_items",
	ContactCandidates: "contact_candidates",
	WebhookEvents:     "webhook_events",
	WebhookLogs:       "webhook_logs",
	AuditLogs:         "audit_logs",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
