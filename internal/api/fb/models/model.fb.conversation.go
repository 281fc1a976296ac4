package fbmodels

import "go.mongodb.org/mongo-driver/bson/primitive"

// FbConversation là một hội thoại inbox giữa trang và một khách hàng.
// Danh tính hội thoại là cặp (pageId, psid) — ConversationId luôn có dạng
// "{pageId}_{psid}", không bao giờ dùng thread id gốc của Graph API vì
// thread id thay đổi giữa các phiên bản API còn cặp page/psid thì ổn định.
type FbConversation struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationId  string             `json:"conversationId" bson:"conversationId" validate:"required"` // "{pageId}_{psid}"
	PageId          string             `json:"pageId" bson:"pageId" validate:"required"`
	PageName        string             `json:"pageName,omitempty" bson:"pageName,omitempty"`
	Psid            string             `json:"psid" bson:"psid" validate:"required"` // Page-scoped ID của khách
	CustomerName    string             `json:"customerName,omitempty" bson:"customerName,omitempty"`
	CustomerPicture string             `json:"customerPicture,omitempty" bson:"customerPicture,omitempty"`
	UpdatedTime     string             `json:"updatedTime" bson:"updatedTime"` // ISO-8601 UTC của tin nhắn mới nhất
	LastMessageText string             `json:"lastMessageText,omitempty" bson:"lastMessageText,omitempty"`
	LastMessageAt   string             `json:"lastMessageAt,omitempty" bson:"lastMessageAt,omitempty"` // ISO-8601 UTC
	Unread          bool               `json:"unread" bson:"unread"` // Có tin khách chưa đọc không
	CreatedAt       int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt       int64              `json:"updatedAt" bson:"updatedAt"`
}
