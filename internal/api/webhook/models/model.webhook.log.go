package webhookmodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookLog lưu payload webhook thô trước khi xử lý, phục vụ debug và replay.
// Ghi log là best-effort: lỗi ghi không chặn việc ack 200 cho Meta.
type WebhookLog struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Source         string             `json:"source" bson:"source"` // "meta"
	Payload        string             `json:"payload" bson:"payload"`
	SignatureValid bool               `json:"signatureValid" bson:"signatureValid"`
	ReceivedAt     time.Time          `json:"receivedAt" bson:"receivedAt"`
	CreatedAt      int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt      int64              `json:"updatedAt" bson:"updatedAt"`
}
