// Package webhookdto chứa shape thô của payload webhook Meta Messenger.
// Các struct bám sát wire format của Meta, chỉ giữ những trường pipeline
// inbox cần: tin nhắn, echo, đính kèm. Delivery/read receipt bị bỏ qua.
package webhookdto

// MetaWebhookPayload payload gốc Meta gửi đến endpoint webhook
type MetaWebhookPayload struct {
	Object string      `json:"object"` // Luôn là "page" với Messenger
	Entry  []MetaEntry `json:"entry"`
}

// MetaEntry một entry theo trang
type MetaEntry struct {
	ID        string          `json:"id"`   // Page ID
	Time      int64           `json:"time"` // Unix milliseconds
	Messaging []MetaMessaging `json:"messaging"`
}

// MetaMessaging một sự kiện messaging trong entry
type MetaMessaging struct {
	Sender    MetaUser     `json:"sender"`
	Recipient MetaUser     `json:"recipient"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
	Message   *MetaMessage `json:"message,omitempty"`
}

// MetaUser một bên tham gia (PSID hoặc page id)
type MetaUser struct {
	ID string `json:"id"`
}

// MetaMessage nội dung tin nhắn trong sự kiện messaging.
// IsEcho đánh dấu tin do chính trang gửi (từ dashboard hoặc app khác):
// echo vẫn được ghi vào store để hội thoại đầy đủ hai chiều.
type MetaMessage struct {
	Mid         string           `json:"mid"` // Khóa chống trùng
	Text        string           `json:"text,omitempty"`
	IsEcho      bool             `json:"is_echo,omitempty"`
	Attachments []MetaAttachment `json:"attachments,omitempty"`
}

// MetaAttachment đính kèm thô trong webhook
type MetaAttachment struct {
	Type    string                `json:"type"` // "image", "video", "audio", "file"
	Payload MetaAttachmentPayload `json:"payload"`
}

// MetaAttachmentPayload chứa URL tải đính kèm
type MetaAttachmentPayload struct {
	URL string `json:"url"`
}
