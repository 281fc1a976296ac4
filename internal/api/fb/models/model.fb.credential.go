package fbmodels

import (
	"alpha_crm/internal/vault"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FbPageCredential lưu page access token đã mã hóa AES-256-GCM của một trang.
// Token plaintext không bao giờ chạm đĩa: chỉ ba thành phần cipher/iv/authTag
// (base64) được ghi xuống MongoDB. ScopeKey phân biệt token theo người kết nối
// (uid Firebase), để trống nếu token dùng chung toàn hệ thống.
type FbPageCredential struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	PageId    string               `json:"pageId" bson:"pageId" validate:"required"` // ID trang trên Meta
	ScopeKey  string               `json:"scopeKey,omitempty" bson:"scopeKey,omitempty"`
	Token     vault.EncryptedToken `json:"token" bson:"token"` // Token đã mã hóa, giải mã qua vault
	CreatedAt int64                `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64                `json:"updatedAt" bson:"updatedAt"`
}
