package inboxsync

import "testing"

func TestUnreadTracker(t *testing.T) {
	tracker := NewUnreadTracker()

	flagged := ConversationSummary{ConversationId: "99001_psid_1", Unread: true}
	if !tracker.IsUnread(flagged) {
		t.Error("Cờ unread bật và chưa ack phải là unread")
	}

	// Không có cờ: dựa vào tin mới nhất có phải của khách không
	customerLast := ConversationSummary{ConversationId: "99001_psid_2", LastFromCustomer: true}
	if !tracker.IsUnread(customerLast) {
		t.Error("Tin cuối của khách phải là unread khi vắng cờ")
	}
	agentLast := ConversationSummary{ConversationId: "99001_psid_3"}
	if tracker.IsUnread(agentLast) {
		t.Error("Tin cuối của trang, không cờ, không phải unread")
	}

	// Chọn hội thoại = đánh dấu đọc local ngay, thắng cờ server
	tracker.MarkRead("99001_psid_1")
	if tracker.IsUnread(flagged) {
		t.Error("Ack local phải thắng cờ unread của server")
	}

	// Tin khách mới đến sau lần đọc: bỏ ack, hội thoại unread lại
	tracker.Forget("99001_psid_1")
	if !tracker.IsUnread(flagged) {
		t.Error("Sau Forget hội thoại phải unread lại")
	}
}

func TestUnreadCount(t *testing.T) {
	tracker := NewUnreadTracker()
	convs := []ConversationSummary{
		{ConversationId: "a", Unread: true},
		{ConversationId: "b", LastFromCustomer: true},
		{ConversationId: "c"},
	}
	if got := tracker.UnreadCount(convs); got != 2 {
		t.Errorf("UnreadCount sai: got %d, want 2", got)
	}
	tracker.MarkRead("a")
	if got := tracker.UnreadCount(convs); got != 1 {
		t.Errorf("UnreadCount sau khi đọc một hội thoại: got %d, want 1", got)
	}
}
