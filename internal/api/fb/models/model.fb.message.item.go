package fbmodels

import "go.mongodb.org/mongo-driver/bson/primitive"

// FbAttachment là một tệp đính kèm đã chuẩn hóa của tin nhắn.
// Type chỉ nhận "image", "video" hoặc "file"; đính kèm không có URL
// bị loại bỏ ngay từ tầng chuẩn hóa, không bao giờ được lưu.
type FbAttachment struct {
	Type string `json:"type" bson:"type"`
	URL  string `json:"url" bson:"url"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// FbMessageItem là một tin nhắn đã chuẩn hóa trong hội thoại.
// MessageId là mid do Meta cấp, duy nhất trong phạm vi hội thoại —
// đây là khóa chống trùng giữa webhook và đồng bộ Graph API.
// From chỉ nhận hai giá trị: "customer" hoặc "agent".
type FbMessageItem struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationId string             `json:"conversationId" bson:"conversationId" validate:"required"` // "{pageId}_{psid}"
	MessageId      string             `json:"messageId" bson:"messageId" validate:"required"`           // mid từ Meta
	From           string             `json:"from" bson:"from" validate:"required,oneof=customer agent"`
	Text           string             `json:"text,omitempty" bson:"text,omitempty"`
	At             string             `json:"at" bson:"at" validate:"required"` // ISO-8601 UTC
	Attachments    []FbAttachment     `json:"attachments,omitempty" bson:"attachments,omitempty"`
	SenderName     string             `json:"senderName,omitempty" bson:"senderName,omitempty"`
	CreatedAt      int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt      int64              `json:"updatedAt" bson:"updatedAt"`
}

// MessageFrom các giá trị hợp lệ của FbMessageItem.From.
const (
	MessageFromCustomer = "customer"
	MessageFromAgent    = "agent"
)
