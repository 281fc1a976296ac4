package fbsvc

import (
	"context"
	"errors"
	"testing"

	"alpha_crm/internal/api/fb/graph"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
)

// ===========================================
// FAKE DEPENDENCIES
// ===========================================

// fakeSyncGraph trả dữ liệu cố định theo pageId, có thể set lỗi cho một trang
type fakeSyncGraph struct {
	threadsByPage map[string][]graph.ConversationThread
	failPages     map[string]error
	listCalls     []string // pageId của từng lần gọi ListConversations
}

func (f *fakeSyncGraph) ListConversations(ctx context.Context, pageId, token string, limit int, after string) ([]graph.ConversationThread, string, error) {
	f.listCalls = append(f.listCalls, pageId)
	if err := f.failPages[pageId]; err != nil {
		return nil, "", err
	}
	return f.threadsByPage[pageId], "", nil
}

func (f *fakeSyncGraph) ListMessages(ctx context.Context, threadId, pageId, conversationId, token string, limit int, after string) ([]fbmodels.FbMessageItem, string, error) {
	return []fbmodels.FbMessageItem{{
		ConversationId: conversationId,
		MessageId:      "mid." + threadId,
		From:           fbmodels.MessageFromCustomer,
		Text:           "hello",
		At:             "2026-08-20T10:00:00Z",
	}}, "", nil
}

type fakeSyncPages struct {
	pages []fbmodels.FbPage
}

func (f *fakeSyncPages) FindAllSynced(ctx context.Context) ([]fbmodels.FbPage, error) {
	return f.pages, nil
}

type fakeSyncTokens struct{}

func (f *fakeSyncTokens) GetPageAccessToken(ctx context.Context, scopeKey, pageId string) (string, error) {
	return "tok-" + pageId, nil
}

type fakeSyncConversations struct {
	upserts []fbmodels.FbConversation
}

func (f *fakeSyncConversations) UpsertSummary(ctx context.Context, conv fbmodels.FbConversation) (fbmodels.FbConversation, error) {
	f.upserts = append(f.upserts, conv)
	return conv, nil
}

func (f *fakeSyncConversations) ApplyMessage(ctx context.Context, message fbmodels.FbMessageItem) error {
	return nil
}

type fakeSyncMessages struct {
	written int64
}

func (f *fakeSyncMessages) UpsertMessages(ctx context.Context, messages []fbmodels.FbMessageItem) (int64, error) {
	f.written += int64(len(messages))
	return int64(len(messages)), nil
}

type fakeSyncContacts struct{}

func (f *fakeSyncContacts) ScanMessage(ctx context.Context, conv fbmodels.FbConversation, message fbmodels.FbMessageItem) (int, error) {
	return 0, nil
}

func customerThread(pageId, psid, name string) graph.ConversationThread {
	return graph.ConversationThread{
		ThreadID: "t_" + psid,
		Conversation: fbmodels.FbConversation{
			ConversationId: BuildConversationId(pageId, psid),
			PageId:         pageId,
			Psid:           psid,
			CustomerName:   name,
			UpdatedTime:    "2026-08-20T10:00:00Z",
		},
	}
}

// ===========================================
// TESTS
// ===========================================

func TestSyncAllPagesAbsorbsFailedPage(t *testing.T) {
	graphAPI := &fakeSyncGraph{
		threadsByPage: map[string][]graph.ConversationThread{
			"99002": {customerThread("99002", "psid_b", "Trần Thị B")},
		},
		failPages: map[string]error{
			"99001": common.NewError(common.ErrCodeFbUpstream, "Graph trả 500", common.StatusInternalServerError, nil),
		},
	}
	conversations := &fakeSyncConversations{}
	messages := &fakeSyncMessages{}

	svc := NewFbSyncService(graphAPI, &fakeSyncPages{pages: []fbmodels.FbPage{
		{PageId: "99001", PageName: "Shop Hỏng", IsSync: true},
		{PageId: "99002", PageName: "Shop Chạy", IsSync: true},
	}}, &fakeSyncTokens{}, conversations, messages, &fakeSyncContacts{})

	stats, err := svc.SyncAllPages(context.Background(), "uid1")
	if err != nil {
		t.Fatalf("Một trang lỗi không được làm fail cả lượt: %v", err)
	}
	if stats.FailedPageCount != 1 {
		t.Errorf("Trang Graph lỗi phải đếm vào FailedPageCount: %+v", stats)
	}
	if stats.PageCount != 2 {
		t.Errorf("Cả hai trang đều phải được thử: %+v", stats)
	}

	// Trang còn lại vẫn được đồng bộ trọn vẹn
	if stats.ConversationCount != 1 || messages.written != 1 {
		t.Errorf("Trang không lỗi phải được ghi dữ liệu: stats=%+v written=%d", stats, messages.written)
	}
	if len(conversations.upserts) != 1 || conversations.upserts[0].PageId != "99002" {
		t.Errorf("Hội thoại ghi vào store phải thuộc trang không lỗi: %+v", conversations.upserts)
	}
}

func TestLookupConversationScansGraph(t *testing.T) {
	graphAPI := &fakeSyncGraph{
		threadsByPage: map[string][]graph.ConversationThread{
			"99001": {
				customerThread("99001", "psid_khac", "Người Khác"),
				customerThread("99001", "psid_1", "Nguyễn Văn A"),
			},
		},
	}
	conversations := &fakeSyncConversations{}

	svc := NewFbSyncService(graphAPI, &fakeSyncPages{pages: []fbmodels.FbPage{
		{PageId: "99001", PageName: "Shop ABC", IsSync: true},
	}}, &fakeSyncTokens{}, conversations, &fakeSyncMessages{}, &fakeSyncContacts{})

	conv, err := svc.LookupConversation(context.Background(), "uid1", "99001_psid_1")
	if err != nil {
		t.Fatalf("LookupConversation trả về lỗi: %v", err)
	}
	if conv.ConversationId != "99001_psid_1" || conv.Psid != "psid_1" {
		t.Errorf("Hội thoại tìm được không đúng: %+v", conv)
	}
	if conv.PageName != "Shop ABC" {
		t.Errorf("Hội thoại phải mang tên trang: %+v", conv)
	}

	// Thread tìm được phải đồng bộ luôn về store
	found := false
	for _, u := range conversations.upserts {
		if u.ConversationId == "99001_psid_1" {
			found = true
		}
	}
	if !found {
		t.Error("Hội thoại tìm được phải được ghi vào store")
	}
}

func TestLookupConversationUnknownPage(t *testing.T) {
	svc := NewFbSyncService(&fakeSyncGraph{}, &fakeSyncPages{pages: []fbmodels.FbPage{
		{PageId: "99001", IsSync: true},
	}}, &fakeSyncTokens{}, &fakeSyncConversations{}, &fakeSyncMessages{}, &fakeSyncContacts{})

	_, err := svc.LookupConversation(context.Background(), "uid1", "88888_psid_1")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Hội thoại không thuộc trang nào phải trả ErrNotFound, được %v", err)
	}
}
