package webhookmodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookEvent đánh dấu một event webhook đã được xử lý.
// eventId có unique index nên insert lần hai sẽ bị duplicate — đó là cơ chế
// idempotency: Meta có thể gửi lại cùng một event nhiều lần.
// receivedAt là kiểu Date để TTL index tự dọn bản ghi sau 7 ngày.
type WebhookEvent struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EventId    string             `json:"eventId" bson:"eventId"` // "{pageId}_{time}_{mid}"
	PageId     string             `json:"pageId" bson:"pageId"`
	ReceivedAt time.Time          `json:"receivedAt" bson:"receivedAt"`
	CreatedAt  int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt  int64              `json:"updatedAt" bson:"updatedAt"`
}
