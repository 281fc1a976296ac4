package fbmodels

import "go.mongodb.org/mongo-driver/bson/primitive"

// AuditLog ghi lại một thao tác gửi tin hoặc thay đổi token của nhân viên.
// Bản ghi audit là best-effort: lỗi ghi audit không làm fail thao tác chính.
type AuditLog struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Action         string             `json:"action" bson:"action"` // "send_message", "set_token", ...
	UserID         string             `json:"userId,omitempty" bson:"userId,omitempty"`
	AdminName      string             `json:"adminName,omitempty" bson:"adminName,omitempty"`
	PageId         string             `json:"pageId,omitempty" bson:"pageId,omitempty"`
	ConversationId string             `json:"conversationId,omitempty" bson:"conversationId,omitempty"`
	Detail         string             `json:"detail,omitempty" bson:"detail,omitempty"`
	CreatedAt      int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt      int64              `json:"updatedAt" bson:"updatedAt"`
}
