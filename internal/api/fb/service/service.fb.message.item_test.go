package fbsvc

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestPageCursorRoundtrip(t *testing.T) {
	cursor := encodePageCursor("2026-08-20T10:00:00Z", "mid.abc-123")
	at, mid := decodePageCursor(cursor)
	if at != "2026-08-20T10:00:00Z" || mid != "mid.abc-123" {
		t.Errorf("Cursor roundtrip sai: at=%q mid=%q", at, mid)
	}

	// Cursor định dạng cũ chỉ mang at
	at, mid = decodePageCursor("2026-08-20T10:00:00Z")
	if at != "2026-08-20T10:00:00Z" || mid != "" {
		t.Errorf("Cursor không có dấu ngăn phải coi là at thuần: at=%q mid=%q", at, mid)
	}
}

func TestMessagePageFilterTieAtBoundary(t *testing.T) {
	// Hai tin cùng at nằm vắt qua ranh giới trang: trang kế phải lọc theo
	// cặp (at, messageId) để tin cùng at với cursor vẫn được trả về
	filter := messagePageFilter("99001_psid_1", encodePageCursor("2026-08-20T10:00:00Z", "mid.5"))

	want := bson.M{
		"conversationId": "99001_psid_1",
		"$or": []bson.M{
			{"at": bson.M{"$lt": "2026-08-20T10:00:00Z"}},
			{"at": "2026-08-20T10:00:00Z", "messageId": bson.M{"$lt": "mid.5"}},
		},
	}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Filter trang kế sai:\ngot  %v\nwant %v", filter, want)
	}
}

func TestMessagePageFilterFirstPage(t *testing.T) {
	filter := messagePageFilter("99001_psid_1", "")
	want := bson.M{"conversationId": "99001_psid_1"}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Trang đầu không được có điều kiện cursor: %v", filter)
	}
}

func TestMessagePageFilterLegacyCursor(t *testing.T) {
	// Cursor cũ chỉ mang at vẫn phải hoạt động
	filter := messagePageFilter("99001_psid_1", "2026-08-20T10:00:00Z")
	want := bson.M{
		"conversationId": "99001_psid_1",
		"at":             bson.M{"$lt": "2026-08-20T10:00:00Z"},
	}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Filter với cursor cũ sai: %v", filter)
	}
}

func TestConversationPageFilterTieAtBoundary(t *testing.T) {
	base := bson.M{"pageId": "99001"}
	filter := conversationPageFilter(base, encodePageCursor("2026-08-20T10:00:00Z", "99001_psid_5"))

	want := bson.M{
		"pageId": "99001",
		"$or": []bson.M{
			{"updatedTime": bson.M{"$lt": "2026-08-20T10:00:00Z"}},
			{"updatedTime": "2026-08-20T10:00:00Z", "conversationId": bson.M{"$lt": "99001_psid_5"}},
		},
	}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Filter trang hội thoại sai:\ngot  %v\nwant %v", filter, want)
	}

	// Filter gốc không bị sửa tại chỗ
	if len(base) != 1 {
		t.Errorf("Filter gốc không được biến đổi: %v", base)
	}
}
