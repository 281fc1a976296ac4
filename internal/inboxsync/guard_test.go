package inboxsync

import "testing"

func TestRequestGuardDiscardsStaleResults(t *testing.T) {
	guard := NewRequestGuard()
	guard.Select("99001_psid_1")

	ticket := guard.Issue()
	if !guard.Valid(ticket) {
		t.Fatal("Vé phát cho hội thoại đang mở phải hợp lệ")
	}

	// Người dùng chuyển hội thoại trước khi kết quả về
	guard.Select("99001_psid_2")
	if guard.Valid(ticket) {
		t.Error("Kết quả về trễ của hội thoại cũ phải bị loại")
	}

	// Chọn lại đúng hội thoại cũ: vé cũ vẫn mất hiệu lực (epoch mới)
	guard.Select("99001_psid_1")
	if guard.Valid(ticket) {
		t.Error("Chọn lại cùng hội thoại vẫn phải vô hiệu vé cũ")
	}

	fresh := guard.Issue()
	if !guard.Valid(fresh) {
		t.Error("Vé mới phát sau khi chọn lại phải hợp lệ")
	}
}
