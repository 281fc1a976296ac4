package webhooksvc

import (
	"context"
	"testing"

	fbmodels "alpha_crm/internal/api/fb/models"
	webhookdto "alpha_crm/internal/api/webhook/dto"
	"alpha_crm/internal/common"
)

// ===========================================
// FAKE DEPENDENCIES
// ===========================================

type fakeEventLedger struct {
	seen map[string]bool
}

func (f *fakeEventLedger) MarkProcessed(ctx context.Context, eventId, pageId string) (bool, error) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[eventId] {
		return true, nil
	}
	f.seen[eventId] = true
	return false, nil
}

type fakePageSource struct{}

func (f *fakePageSource) FindOneByPageID(ctx context.Context, pageId string) (fbmodels.FbPage, error) {
	return fbmodels.FbPage{}, common.ErrNotFound
}

type fakeConversationStore struct {
	applied []fbmodels.FbMessageItem
}

func (f *fakeConversationStore) ApplyMessage(ctx context.Context, message fbmodels.FbMessageItem) error {
	f.applied = append(f.applied, message)
	return nil
}

func (f *fakeConversationStore) UpsertSummary(ctx context.Context, conv fbmodels.FbConversation) (fbmodels.FbConversation, error) {
	return conv, nil
}

func (f *fakeConversationStore) FindOneByConversationId(ctx context.Context, conversationId string) (fbmodels.FbConversation, error) {
	return fbmodels.FbConversation{ConversationId: conversationId}, nil
}

type fakeMessageStore struct {
	upserts map[string]int // messageId -> số lần ghi
}

func (f *fakeMessageStore) UpsertMessage(ctx context.Context, message fbmodels.FbMessageItem) (fbmodels.FbMessageItem, error) {
	if f.upserts == nil {
		f.upserts = make(map[string]int)
	}
	f.upserts[message.MessageId]++
	return message, nil
}

type fakeContactScanner struct{}

func (f *fakeContactScanner) ScanMessage(ctx context.Context, conv fbmodels.FbConversation, message fbmodels.FbMessageItem) (int, error) {
	return 0, nil
}

func TestBuildEventId(t *testing.T) {
	got := BuildEventId("99001", 1755684000000, "mid.abc")
	want := "99001_1755684000000_mid.abc"
	if got != want {
		t.Errorf("BuildEventId sai: got %q, want %q", got, want)
	}
}

func TestNormalizeMessagingCustomer(t *testing.T) {
	item, ok := NormalizeMessaging("99001", webhookdto.MetaMessaging{
		Sender:    webhookdto.MetaUser{ID: "psid_1"},
		Recipient: webhookdto.MetaUser{ID: "99001"},
		Timestamp: 1755684000000, // 2025-08-20T10:00:00Z
		Message: &webhookdto.MetaMessage{
			Mid:  "mid.1",
			Text: "Chào shop",
		},
	})
	if !ok {
		t.Fatal("Sự kiện tin nhắn hợp lệ phải được normalize")
	}
	if item.ConversationId != "99001_psid_1" {
		t.Errorf("ConversationId sai: %s", item.ConversationId)
	}
	if item.From != fbmodels.MessageFromCustomer {
		t.Errorf("Tin từ khách phải có from=customer, got %s", item.From)
	}
	if item.At != "2025-08-20T10:00:00Z" {
		t.Errorf("Timestamp không được chuyển đúng sang ISO UTC: %s", item.At)
	}
	if item.Text != "Chào shop" {
		t.Errorf("Text sai: %s", item.Text)
	}
}

func TestNormalizeMessagingEcho(t *testing.T) {
	item, ok := NormalizeMessaging("99001", webhookdto.MetaMessaging{
		Sender:    webhookdto.MetaUser{ID: "99001"},
		Recipient: webhookdto.MetaUser{ID: "psid_1"},
		Timestamp: 1755684000000,
		Message: &webhookdto.MetaMessage{
			Mid:    "mid.2",
			Text:   "Dạ shop gửi thông tin ạ",
			IsEcho: true,
		},
	})
	if !ok {
		t.Fatal("Echo phải được giữ lại")
	}
	if item.From != fbmodels.MessageFromAgent {
		t.Errorf("Echo phải có from=agent, got %s", item.From)
	}
	// PSID của khách nằm ở recipient với echo
	if item.ConversationId != "99001_psid_1" {
		t.Errorf("ConversationId của echo sai: %s", item.ConversationId)
	}
}

func TestNormalizeMessagingSenderIsPage(t *testing.T) {
	// Một số app không set is_echo nhưng sender trùng page id
	item, ok := NormalizeMessaging("99001", webhookdto.MetaMessaging{
		Sender:    webhookdto.MetaUser{ID: "99001"},
		Recipient: webhookdto.MetaUser{ID: "psid_1"},
		Timestamp: 1755684000000,
		Message:   &webhookdto.MetaMessage{Mid: "mid.3", Text: "ok"},
	})
	if !ok {
		t.Fatal("Tin sender=page phải được giữ lại")
	}
	if item.From != fbmodels.MessageFromAgent {
		t.Errorf("Sender trùng page id phải có from=agent, got %s", item.From)
	}
}

func TestNormalizeMessagingSkipped(t *testing.T) {
	cases := []struct {
		name string
		m    webhookdto.MetaMessaging
	}{
		{
			name: "sự kiện không có message (delivery receipt)",
			m: webhookdto.MetaMessaging{
				Sender:    webhookdto.MetaUser{ID: "psid_1"},
				Recipient: webhookdto.MetaUser{ID: "99001"},
			},
		},
		{
			name: "message thiếu mid",
			m: webhookdto.MetaMessaging{
				Sender:  webhookdto.MetaUser{ID: "psid_1"},
				Message: &webhookdto.MetaMessage{Text: "không có mid"},
			},
		},
		{
			name: "echo thiếu recipient",
			m: webhookdto.MetaMessaging{
				Sender:  webhookdto.MetaUser{ID: "99001"},
				Message: &webhookdto.MetaMessage{Mid: "mid.4", IsEcho: true},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := NormalizeMessaging("99001", tc.m); ok {
				t.Error("Sự kiện này phải bị bỏ qua")
			}
		})
	}
}

func TestNormalizeMessagingAttachments(t *testing.T) {
	item, ok := NormalizeMessaging("99001", webhookdto.MetaMessaging{
		Sender:    webhookdto.MetaUser{ID: "psid_1"},
		Recipient: webhookdto.MetaUser{ID: "99001"},
		Timestamp: 1755684000000,
		Message: &webhookdto.MetaMessage{
			Mid: "mid.5",
			Attachments: []webhookdto.MetaAttachment{
				{Type: "image", Payload: webhookdto.MetaAttachmentPayload{URL: "https://cdn.example.com/a.jpg"}},
				{Type: "audio", Payload: webhookdto.MetaAttachmentPayload{URL: "https://cdn.example.com/b.mp3"}},
				{Type: "fallback", Payload: webhookdto.MetaAttachmentPayload{URL: "https://cdn.example.com/c.bin"}},
				{Type: "image", Payload: webhookdto.MetaAttachmentPayload{}}, // thiếu URL
			},
		},
	})
	if !ok {
		t.Fatal("Tin chỉ có đính kèm vẫn phải được giữ lại")
	}
	if len(item.Attachments) != 3 {
		t.Fatalf("Đính kèm thiếu URL phải bị loại, got %d", len(item.Attachments))
	}
	if item.Attachments[0].Type != "image" {
		t.Errorf("Loại đính kèm thứ nhất sai: %s", item.Attachments[0].Type)
	}
	// Audio là loại hiển thị được, phải giữ nguyên chứ không quy về file
	if item.Attachments[1].Type != "audio" {
		t.Errorf("Audio phải được giữ nguyên loại, got %s", item.Attachments[1].Type)
	}
	// Loại không nhận diện được quy về file
	if item.Attachments[2].Type != "file" {
		t.Errorf("Loại lạ phải quy về file, got %s", item.Attachments[2].Type)
	}
}

func TestProcessPayloadIdempotent(t *testing.T) {
	payload := &webhookdto.MetaWebhookPayload{
		Object: "page",
		Entry: []webhookdto.MetaEntry{{
			ID:   "99001",
			Time: 1755684000000,
			Messaging: []webhookdto.MetaMessaging{
				{
					Sender:    webhookdto.MetaUser{ID: "psid_1"},
					Recipient: webhookdto.MetaUser{ID: "99001"},
					Timestamp: 1755684000000,
					Message:   &webhookdto.MetaMessage{Mid: "mid.1", Text: "Chào shop"},
				},
				{
					Sender:    webhookdto.MetaUser{ID: "psid_1"},
					Recipient: webhookdto.MetaUser{ID: "99001"},
					Timestamp: 1755684001000,
					Message:   &webhookdto.MetaMessage{Mid: "mid.2", Text: "Còn hàng không?"},
				},
			},
		}},
	}

	messages := &fakeMessageStore{}
	processor := NewWebhookProcessor(&fakeEventLedger{}, &fakePageSource{},
		&fakeConversationStore{}, messages, &fakeContactScanner{})

	// Meta gửi lại cùng payload nhiều lần khi chưa nhận đủ 200 kịp thời
	first := processor.ProcessPayload(context.Background(), payload)
	if first.EventCount != 2 || first.DuplicateCount != 0 {
		t.Fatalf("Lần giao đầu phải xử lý đủ 2 event: %+v", first)
	}

	for i := 0; i < 3; i++ {
		again := processor.ProcessPayload(context.Background(), payload)
		if again.EventCount != 0 {
			t.Errorf("Lần giao lại thứ %d không được xử lý thêm event nào: %+v", i+2, again)
		}
		if again.DuplicateCount != 2 {
			t.Errorf("Lần giao lại thứ %d phải đếm đủ 2 duplicate: %+v", i+2, again)
		}
	}

	// Mỗi mid chỉ được ghi vào store đúng một lần dù giao 4 lần
	for _, mid := range []string{"mid.1", "mid.2"} {
		if messages.upserts[mid] != 1 {
			t.Errorf("Tin %s phải được ghi đúng 1 lần, được %d", mid, messages.upserts[mid])
		}
	}
}
