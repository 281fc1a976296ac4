package inboxsync

// ConversationSummary thông tin tối thiểu để quyết định unread
type ConversationSummary struct {
	ConversationId   string
	Unread           bool // cờ unread server trả về
	LastFromCustomer bool // tin mới nhất có phải của khách không
}

// UnreadTracker giữ tập hội thoại đã được acknowledge đọc phía client.
// Chọn một hội thoại đánh dấu đọc ngay lập tức (optimistic, không round trip);
// trạng thái này thắng cờ unread của server cho tới khi bị Forget.
type UnreadTracker struct {
	acked map[string]bool
}

// NewUnreadTracker tạo tracker rỗng
func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{acked: make(map[string]bool)}
}

// IsUnread một hội thoại là unread khi CHƯA ack local VÀ (cờ unread bật HOẶC
// tin mới nhất do khách gửi).
func (t *UnreadTracker) IsUnread(conv ConversationSummary) bool {
	if t.acked[conv.ConversationId] {
		return false
	}
	return conv.Unread || conv.LastFromCustomer
}

// MarkRead ghi nhận người dùng đã mở hội thoại
func (t *UnreadTracker) MarkRead(conversationId string) {
	t.acked[conversationId] = true
}

// Forget bỏ ack local, vd khi có tin khách mới đến sau lần đọc
func (t *UnreadTracker) Forget(conversationId string) {
	delete(t.acked, conversationId)
}

// UnreadCount đếm số hội thoại unread trong danh sách
func (t *UnreadTracker) UnreadCount(convs []ConversationSummary) int {
	count := 0
	for _, conv := range convs {
		if t.IsUnread(conv) {
			count++
		}
	}
	return count
}
