package fbsvc

import (
	"context"
	"strings"

	"alpha_crm/internal/api/fb/graph"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/logger"
)

// syncConversationLimit số hội thoại tối đa mỗi lần gọi Graph
const syncConversationLimit = 50

// syncMessageLimit số tin nhắn tối đa mỗi lần gọi Graph
const syncMessageLimit = 100

// lookupMaxPages chặn trên số trang Graph quét khi tìm một hội thoại
// chưa có trong store, tránh quét vô hạn với trang có quá nhiều hội thoại.
const lookupMaxPages = 10

// Các dependency của FbSyncService, tách interface để test thay được
// bằng implementation giả không cần MongoDB hay Graph API thật.

type syncGraphAPI interface {
	ListConversations(ctx context.Context, pageId, token string, limit int, after string) ([]graph.ConversationThread, string, error)
	ListMessages(ctx context.Context, threadId, pageId, conversationId, token string, limit int, after string) ([]fbmodels.FbMessageItem, string, error)
}

type syncPageSource interface {
	FindAllSynced(ctx context.Context) ([]fbmodels.FbPage, error)
}

type syncTokenSource interface {
	GetPageAccessToken(ctx context.Context, scopeKey, pageId string) (string, error)
}

type syncConversationStore interface {
	UpsertSummary(ctx context.Context, conv fbmodels.FbConversation) (fbmodels.FbConversation, error)
	ApplyMessage(ctx context.Context, message fbmodels.FbMessageItem) error
}

type syncMessageStore interface {
	UpsertMessages(ctx context.Context, messages []fbmodels.FbMessageItem) (int64, error)
}

type syncContactScanner interface {
	ScanMessage(ctx context.Context, conv fbmodels.FbConversation, message fbmodels.FbMessageItem) (int, error)
}

// FbSyncService kéo hội thoại và tin nhắn từ Graph API về store.
// Mỗi trang là một đơn vị lỗi độc lập: trang hỏng token hay Graph trả lỗi
// chỉ ghi log và đếm, các trang còn lại vẫn được đồng bộ bình thường.
type FbSyncService struct {
	graphClient   syncGraphAPI
	pages         syncPageSource
	tokens        syncTokenSource
	conversations syncConversationStore
	messages      syncMessageStore
	contacts      syncContactScanner
}

// NewFbSyncService tạo FbSyncService từ các service thành phần
func NewFbSyncService(graphClient syncGraphAPI, pages syncPageSource, tokens syncTokenSource,
	conversations syncConversationStore, messages syncMessageStore,
	contacts syncContactScanner) *FbSyncService {
	return &FbSyncService{
		graphClient:   graphClient,
		pages:         pages,
		tokens:        tokens,
		conversations: conversations,
		messages:      messages,
		contacts:      contacts,
	}
}

// SyncStats kết quả một lượt đồng bộ
type SyncStats struct {
	PageCount         int   `json:"pageCount"`
	SkippedPageCount  int   `json:"skippedPageCount"`
	FailedPageCount   int   `json:"failedPageCount"`
	ConversationCount int   `json:"conversationCount"`
	MessageCount      int64 `json:"messageCount"`
}

// SyncAllPages đồng bộ inbox của mọi trang đang bật isSync.
// Trang không có token bị BỎ QUA (đếm vào SkippedPageCount) — thiếu token
// là trạng thái hợp lệ khi admin chưa kết nối trang, không phải lỗi.
func (s *FbSyncService) SyncAllPages(ctx context.Context, scopeKey string) (*SyncStats, error) {
	pages, err := s.pages.FindAllSynced(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.GetAppLogger()
	stats := &SyncStats{}
	for _, page := range pages {
		stats.PageCount++

		token, err := s.tokens.GetPageAccessToken(ctx, scopeKey, page.PageId)
		if err != nil {
			stats.FailedPageCount++
			log.WithError(err).WithFields(map[string]interface{}{
				"pageId": page.PageId,
			}).Warn("Phân giải token thất bại, bỏ qua trang")
			continue
		}
		if token == "" {
			stats.SkippedPageCount++
			log.WithFields(map[string]interface{}{
				"pageId": page.PageId,
			}).Info("Trang chưa có token, bỏ qua đồng bộ")
			continue
		}

		if err := s.syncPage(ctx, page, token, stats); err != nil {
			stats.FailedPageCount++
			log.WithError(err).WithFields(map[string]interface{}{
				"pageId": page.PageId,
			}).Warn("Đồng bộ trang thất bại, tiếp tục trang kế")
		}
	}
	return stats, nil
}

// syncPage đồng bộ một trang: kéo hội thoại theo từng trang cursor của Graph
// cho tới khi hết, rồi kéo tin nhắn từng thread (cũng theo cursor).
func (s *FbSyncService) syncPage(ctx context.Context, page fbmodels.FbPage, token string, stats *SyncStats) error {
	cursor := ""
	for {
		threads, next, err := s.graphClient.ListConversations(ctx, page.PageId, token, syncConversationLimit, cursor)
		if err != nil {
			return err
		}

		for _, thread := range threads {
			s.syncThread(ctx, page, thread, token, stats)
		}

		if next == "" {
			return nil
		}
		cursor = next
	}
}

// syncThread đồng bộ một thread: ghi tóm tắt hội thoại rồi kéo toàn bộ tin
// nhắn qua các trang cursor. Lỗi ở một thread chỉ ghi log, không dừng trang.
func (s *FbSyncService) syncThread(ctx context.Context, page fbmodels.FbPage, thread graph.ConversationThread, token string, stats *SyncStats) {
	log := logger.GetAppLogger()
	conv := thread.Conversation
	conv.PageName = page.PageName

	saved, err := s.conversations.UpsertSummary(ctx, conv)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"conversationId": conv.ConversationId,
		}).Warn("Ghi hội thoại thất bại, bỏ qua thread")
		return
	}
	stats.ConversationCount++

	var messages []fbmodels.FbMessageItem
	cursor := ""
	for {
		batch, next, err := s.graphClient.ListMessages(ctx, thread.ThreadID, page.PageId, conv.ConversationId, token, syncMessageLimit, cursor)
		if err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"conversationId": conv.ConversationId,
			}).Warn("Kéo tin nhắn thất bại, bỏ qua thread")
			return
		}
		messages = append(messages, batch...)
		if next == "" {
			break
		}
		cursor = next
	}

	written, err := s.messages.UpsertMessages(ctx, messages)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"conversationId": conv.ConversationId,
		}).Warn("Ghi batch tin nhắn thất bại")
		return
	}
	stats.MessageCount += written

	// Cập nhật tóm tắt theo tin cuối và quét số điện thoại tin của khách
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		if err := s.conversations.ApplyMessage(ctx, last); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"conversationId": conv.ConversationId,
			}).Warn("Cập nhật tóm tắt hội thoại thất bại")
		}
		for _, message := range messages {
			if _, err := s.contacts.ScanMessage(ctx, saved, message); err != nil {
				log.WithError(err).WithFields(map[string]interface{}{
					"conversationId": conv.ConversationId,
				}).Warn("Quét số điện thoại thất bại")
				break
			}
		}
	}
}

// LookupConversation tìm một hội thoại chưa có trong store bằng cách quét
// Graph API: xác định trang từ tiền tố conversationId rồi duyệt danh sách
// hội thoại của trang theo cursor cho tới khi gặp đúng psid. Tìm thấy thì
// đồng bộ luôn thread đó về store và trả về bản ghi đã lưu.
func (s *FbSyncService) LookupConversation(ctx context.Context, scopeKey, conversationId string) (fbmodels.FbConversation, error) {
	var zero fbmodels.FbConversation

	pages, err := s.pages.FindAllSynced(ctx)
	if err != nil {
		return zero, err
	}

	var page fbmodels.FbPage
	found := false
	for _, p := range pages {
		if strings.HasPrefix(conversationId, p.PageId+"_") {
			page = p
			found = true
			break
		}
	}
	if !found {
		return zero, common.ErrNotFound
	}

	token, err := s.tokens.GetPageAccessToken(ctx, scopeKey, page.PageId)
	if err != nil {
		return zero, err
	}
	if token == "" {
		return zero, common.ErrNotFound
	}

	cursor := ""
	for i := 0; i < lookupMaxPages; i++ {
		threads, next, err := s.graphClient.ListConversations(ctx, page.PageId, token, syncConversationLimit, cursor)
		if err != nil {
			return zero, err
		}
		for _, thread := range threads {
			if thread.Conversation.ConversationId != conversationId {
				continue
			}
			stats := &SyncStats{}
			s.syncThread(ctx, page, thread, token, stats)
			conv := thread.Conversation
			conv.PageName = page.PageName
			return conv, nil
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return zero, common.ErrNotFound
}
