package worker

import (
	"context"
	"time"

	"alpha_crm/internal/api/fb/graph"
	fbsvc "alpha_crm/internal/api/fb/service"
	"alpha_crm/internal/global"
	"alpha_crm/internal/inboxsync"
	"alpha_crm/internal/logger"
)

// InboxSyncWorker đồng bộ inbox Facebook định kỳ ở nền: kéo hội thoại và tin
// nhắn mới của mọi trang đang bật đồng bộ, bù cho các event webhook bị lỡ.
// Chạy định kỳ (mặc định 10 phút), mỗi lần là một lượt SyncAllPages trọn vẹn.
type InboxSyncWorker struct {
	syncService *fbsvc.FbSyncService
	interval    time.Duration
	scopeKey    string
}

// NewInboxSyncWorker tạo mới InboxSyncWorker cùng toàn bộ service nó cần.
// Tham số:
//   - interval: Khoảng thời gian giữa các lần đồng bộ (tối thiểu 1 phút)
func NewInboxSyncWorker(interval time.Duration) (*InboxSyncWorker, error) {
	pages, err := fbsvc.NewFbPageService()
	if err != nil {
		return nil, err
	}
	credentials, err := fbsvc.NewFbCredentialService()
	if err != nil {
		return nil, err
	}
	conversations, err := fbsvc.NewFbConversationService()
	if err != nil {
		return nil, err
	}
	messages, err := fbsvc.NewFbMessageItemService()
	if err != nil {
		return nil, err
	}
	contacts, err := fbsvc.NewContactExtractorService(conversations, messages)
	if err != nil {
		return nil, err
	}

	tokens := fbsvc.NewFbTokenService(fbsvc.NewTokenCacheFromConfig(), credentials)
	graphClient := graph.NewClient(global.ServerConfig)
	syncService := fbsvc.NewFbSyncService(graphClient, pages, tokens, conversations, messages, contacts)

	if interval < time.Minute {
		interval = 10 * time.Minute
	}
	return &InboxSyncWorker{
		syncService: syncService,
		interval:    interval,
		scopeKey:    "default",
	}, nil
}

// Start chạy worker qua poller cho tới khi context bị hủy.
// Poller serialize theo scope: lượt đồng bộ kéo dài quá chu kỳ làm tick
// kế tiếp bị bỏ qua chứ không xếp hàng chồng lượt. Một lượt lỗi không
// dừng worker — lần chạy tiếp theo sẽ thử lại.
func (w *InboxSyncWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🔄 [INBOX_SYNC] Starting Inbox Sync Worker...")

	poller := inboxsync.NewPollerWithInterval(w.runOnce, w.interval)
	poller.Run(ctx, w.scopeKey)

	log.Info("🔄 [INBOX_SYNC] Inbox Sync Worker stopped")
}

// runOnce một lượt đồng bộ trọn vẹn, recover panic để không giết poller
func (w *InboxSyncWorker) runOnce(ctx context.Context, scopeKey string) error {
	log := logger.GetAppLogger()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": r,
			}).Error("🔄 [INBOX_SYNC] Panic khi đồng bộ inbox, sẽ tiếp tục ở lần chạy tiếp theo")
		}
	}()

	stats, err := w.syncService.SyncAllPages(ctx, scopeKey)
	if err != nil {
		log.WithError(err).Error("🔄 [INBOX_SYNC] Lỗi đồng bộ inbox")
		return err
	}
	log.WithFields(map[string]interface{}{
		"pageCount":         stats.PageCount,
		"skippedPageCount":  stats.SkippedPageCount,
		"failedPageCount":   stats.FailedPageCount,
		"conversationCount": stats.ConversationCount,
		"messageCount":      stats.MessageCount,
	}).Info("🔄 [INBOX_SYNC] Hoàn tất lượt đồng bộ inbox")
	return nil
}
