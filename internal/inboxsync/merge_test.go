package inboxsync

import (
	"testing"
)

func messageIds(messages []Message) []string {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.IsPending() {
			ids = append(ids, "tmp:"+m.ClientTempId)
			continue
		}
		ids = append(ids, m.ServerId)
	}
	return ids
}

func sameIds(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeOrdering(t *testing.T) {
	s := NewState()
	// History đến newest-first theo trang, mỗi trang tự nó không có thứ tự đảm bảo
	s.ApplyHistoryPage([]Message{
		Confirmed("m3", "customer", "ba", "2026-08-20T10:02:00Z"),
		Confirmed("m1", "customer", "một", "2026-08-20T10:00:00Z"),
		Confirmed("m2", "agent", "hai", "2026-08-20T10:01:00Z"),
	})

	got := messageIds(s.Messages())
	want := []string{"m1", "m2", "m3"}
	if !sameIds(got, want) {
		t.Errorf("Danh sách phải sort tăng dần theo at: got %v, want %v", got, want)
	}
}

func TestMergeIdempotence(t *testing.T) {
	s := NewState()
	page := []Message{
		Confirmed("m1", "customer", "xin chào", "2026-08-20T10:00:00Z"),
		Confirmed("m2", "agent", "dạ chào anh", "2026-08-20T10:01:00Z"),
	}
	s.ApplyHistoryPage(page)
	first := messageIds(s.Messages())

	// Apply lại cùng trang (vd trang bị fetch lại) không được nhân đôi tin
	s.ApplyHistoryPage(page)
	s.ApplyLiveSnapshot(page)
	second := messageIds(s.Messages())

	if !sameIds(first, second) {
		t.Errorf("Merge phải idempotent: lần đầu %v, sau khi apply lại %v", first, second)
	}
}

func TestMergeLaterAppliedWins(t *testing.T) {
	s := NewState()
	s.ApplyHistoryPage([]Message{
		Confirmed("m1", "customer", "bản cũ", "2026-08-20T10:00:00Z"),
	})
	s.ApplyLiveSnapshot([]Message{
		Confirmed("m1", "customer", "bản mới", "2026-08-20T10:00:00Z"),
	})

	messages := s.Messages()
	if len(messages) != 1 {
		t.Fatalf("Cùng id không được tách thành hai tin, got %d", len(messages))
	}
	if messages[0].Text != "bản mới" {
		t.Errorf("Bản apply sau phải thắng, got %q", messages[0].Text)
	}
}

func TestMergeDistinctIdsNeverMerge(t *testing.T) {
	s := NewState()
	// Hai tin khác id nhưng trùng timestamp và nội dung vẫn là hai tin
	s.ApplyHistoryPage([]Message{
		Confirmed("m1", "customer", "alo", "2026-08-20T10:00:00Z"),
		Confirmed("m2", "customer", "alo", "2026-08-20T10:00:00Z"),
	})

	messages := s.Messages()
	if len(messages) != 2 {
		t.Fatalf("Id khác nhau không bao giờ được merge, got %d tin", len(messages))
	}
	// Tie về at: stable sort giữ thứ tự chèn
	if messages[0].ServerId != "m1" || messages[1].ServerId != "m2" {
		t.Errorf("Tie timestamp phải giữ thứ tự chèn: got %v", messageIds(messages))
	}
}

func TestConfirmedBeatsPending(t *testing.T) {
	s := NewState()
	s.ApplyHistoryPage([]Message{
		Confirmed("m1", "customer", "cho mình hỏi giá", "2026-08-20T10:00:00Z"),
	})

	// Người dùng bấm gửi: tin optimistic xuất hiện ngay
	s.AppendPending(Pending("tmp-1", "agent", "dạ 250k ạ", "2026-08-20T10:01:00Z"))
	if n := len(s.Messages()); n != 2 {
		t.Fatalf("Tin optimistic phải hiện ngay, got %d tin", n)
	}

	// Server xác nhận cùng nội dung: pending bị thay thế, không nhân đôi
	s.ApplyLiveSnapshot([]Message{
		Confirmed("m2", "agent", "dạ 250k ạ", "2026-08-20T10:01:02Z"),
	})
	messages := s.Messages()
	if len(messages) != 2 {
		t.Fatalf("Tin xác nhận phải thay tin pending cùng nội dung, got %d tin", len(messages))
	}
	for _, m := range messages {
		if m.IsPending() {
			t.Errorf("Không được còn tin pending sau khi server xác nhận: %+v", m)
		}
	}
}

func TestConfirmedSupersedesNearestPending(t *testing.T) {
	s := NewState()
	// Hai lần gửi cùng nội dung, cách nhau xa
	s.AppendPending(Pending("tmp-1", "agent", "ok", "2026-08-20T10:00:00Z"))
	s.AppendPending(Pending("tmp-2", "agent", "ok", "2026-08-20T10:05:00Z"))

	// Xác nhận về cho lần gửi thứ hai
	s.ApplyLiveSnapshot([]Message{
		Confirmed("m1", "agent", "ok", "2026-08-20T10:05:01Z"),
	})

	messages := s.Messages()
	if len(messages) != 2 {
		t.Fatalf("Chỉ một pending bị thay, got %d tin", len(messages))
	}
	if !messages[0].IsPending() || messages[0].ClientTempId != "tmp-1" {
		t.Errorf("Pending GẦN NHẤT (tmp-2) phải bị thay, tmp-1 phải còn: got %v", messageIds(messages))
	}
}

func TestPendingNotSupersededByDifferentContent(t *testing.T) {
	s := NewState()
	s.AppendPending(Pending("tmp-1", "agent", "nội dung A", "2026-08-20T10:00:00Z"))
	s.ApplyLiveSnapshot([]Message{
		Confirmed("m1", "agent", "nội dung B", "2026-08-20T10:00:01Z"),
	})

	if n := len(s.Messages()); n != 2 {
		t.Errorf("Tin xác nhận khác nội dung không được thay pending, got %d tin", n)
	}
}

func TestGrewDetection(t *testing.T) {
	s := NewState()
	s.ApplyHistoryPage([]Message{
		Confirmed("m1", "customer", "một", "2026-08-20T10:00:00Z"),
	})
	if !s.Grew() {
		t.Error("Tin đầu tiên phải được coi là tập lớn lên")
	}
	if s.Grew() {
		t.Error("Không merge gì thêm thì tập không lớn lên")
	}

	// Apply lại cùng tin: không lớn lên
	s.ApplyLiveSnapshot([]Message{
		Confirmed("m1", "customer", "một", "2026-08-20T10:00:00Z"),
	})
	if s.Grew() {
		t.Error("Apply lại tin đã có không được coi là lớn lên")
	}

	s.AppendPending(Pending("tmp-1", "agent", "hai", "2026-08-20T10:01:00Z"))
	if !s.Grew() {
		t.Error("Thêm pending phải được coi là lớn lên")
	}
}
