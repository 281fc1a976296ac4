package fbdto

import fbmodels "alpha_crm/internal/api/fb/models"

// SendMessageInput dữ liệu đầu vào gửi tin nhắn từ dashboard đến khách.
// Message và AttachmentUrl có thể cùng xuất hiện; ít nhất một trong hai
// phải khác rỗng (kiểm tra ở tầng service). Tag chỉ nhận các messaging tag
// được Meta cho phép gửi ngoài cửa sổ 24 giờ (custom validator message_tag).
type SendMessageInput struct {
	PageId        string `json:"pageId" validate:"required"`
	Psid          string `json:"psid" validate:"required"`
	Message       string `json:"message,omitempty" validate:"omitempty,no_xss"`
	AttachmentUrl string `json:"attachmentUrl,omitempty" validate:"omitempty,url"`
	AdminName     string `json:"adminName,omitempty" validate:"omitempty,no_xss"`
	Tag           string `json:"tag,omitempty" validate:"omitempty,message_tag"`
}

// SendMessageResult kết quả gửi tin thành công trả về cho dashboard
type SendMessageResult struct {
	Success     bool   `json:"success"`
	MessageId   string `json:"messageId"`
	RecipientId string `json:"recipientId,omitempty"`
}

// RescanResult kết quả quét lại toàn bộ hội thoại để trích số điện thoại
type RescanResult struct {
	ContactCount      int `json:"contactCount"`
	ConversationCount int `json:"conversationCount"`
	SkippedCount      int `json:"skippedCount"`
	ErrorCount        int `json:"errorCount,omitempty"`
}

// ConversationDetail phản hồi chi tiết hội thoại kèm thời gian xử lý server.
// ServerTimings ghi lại thời lượng từng bước (đọc DB, đếm tin) để dashboard
// hiển thị khi debug độ trễ.
type ConversationDetail struct {
	Conversation  *fbmodels.FbConversation `json:"conversation"`
	Messages      []fbmodels.FbMessageItem `json:"messages"`
	ServerTimings map[string]string        `json:"serverTimings,omitempty"`
}

// ConversationPage một trang danh sách hội thoại, phân trang bằng cursor.
// NextCursor client truyền lại qua query cursor để lấy trang kế;
// rỗng nghĩa là đã hết hội thoại.
type ConversationPage struct {
	Conversations []fbmodels.FbConversation `json:"conversations"`
	NextCursor    string                    `json:"nextCursor,omitempty"`
}

// MessagePage một trang tin nhắn của hội thoại, phân trang bằng cursor.
// NextCursor là cursor ghép (at|messageId) của tin cũ nhất trong trang;
// client truyền lại qua query after để lấy trang cũ hơn. Rỗng là hết tin.
type MessagePage struct {
	Messages   []fbmodels.FbMessageItem `json:"messages"`
	NextCursor string                   `json:"nextCursor,omitempty"`
	Total      int64                    `json:"total"`
}
