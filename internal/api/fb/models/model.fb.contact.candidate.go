package fbmodels

import "go.mongodb.org/mongo-driver/bson/primitive"

// Trạng thái vòng đời của một contact candidate
const (
	ContactStatusCandidate = "candidate" // mới trích, chờ admin xử lý
	ContactStatusConverted = "converted" // đã chuyển thành khách hàng
)

// ContactCandidate là một số điện thoại trích được từ tin nhắn của khách.
// Khóa chống trùng là cặp (conversationId, phone): cùng một số xuất hiện
// lại trong cùng hội thoại chỉ cập nhật lastSeenAt, không tạo bản ghi mới.
// Số đã chuyển trạng thái converted không bị quét trích lại nữa.
type ContactCandidate struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Phone          string             `json:"phone" bson:"phone" validate:"required"`
	ConversationId string             `json:"conversationId" bson:"conversationId" validate:"required"`
	Status         string             `json:"status" bson:"status"`
	PageId         string             `json:"pageId" bson:"pageId"`
	PageName       string             `json:"pageName,omitempty" bson:"pageName,omitempty"`
	Psid           string             `json:"psid" bson:"psid"`
	CustomerName   string             `json:"customerName,omitempty" bson:"customerName,omitempty"`
	LastSeenAt     string             `json:"lastSeenAt" bson:"lastSeenAt"` // ISO-8601 UTC của tin nhắn chứa số
	MessageSnippet string             `json:"messageSnippet,omitempty" bson:"messageSnippet,omitempty"` // Tối đa 200 ký tự
	CreatedAt      int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt      int64              `json:"updatedAt" bson:"updatedAt"`
}
