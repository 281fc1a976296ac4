package fbsvc

import (
	"context"
	"errors"
	"strings"

	basesvc "alpha_crm/internal/api/base/service"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FbMessageItemService quản lý tin nhắn đã chuẩn hóa
type FbMessageItemService struct {
	*basesvc.BaseServiceMongoImpl[fbmodels.FbMessageItem]
}

// NewFbMessageItemService tạo FbMessageItemService mới
func NewFbMessageItemService() (*FbMessageItemService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.FbMessageItems)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection fb_message_items", common.StatusInternalServerError, nil)
	}
	return &FbMessageItemService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[fbmodels.FbMessageItem](collection),
	}, nil
}

// UpsertMessage ghi một tin nhắn, chống trùng theo (conversationId, messageId).
// Webhook và đồng bộ Graph có thể mang về cùng một mid: lần ghi sau chỉ
// cập nhật các trường có giá trị, không tạo bản ghi mới.
func (s *FbMessageItemService) UpsertMessage(ctx context.Context, message fbmodels.FbMessageItem) (fbmodels.FbMessageItem, error) {
	filter := bson.M{
		"conversationId": message.ConversationId,
		"messageId":      message.MessageId,
	}
	set := bson.M{
		"conversationId": message.ConversationId,
		"messageId":      message.MessageId,
		"from":           message.From,
		"at":             message.At,
	}
	if message.Text != "" {
		set["text"] = message.Text
	}
	if len(message.Attachments) > 0 {
		set["attachments"] = message.Attachments
	}
	if message.SenderName != "" {
		set["senderName"] = message.SenderName
	}
	return s.Upsert(ctx, filter, &basesvc.UpdateData{Set: set})
}

// UpsertMessages ghi một batch tin nhắn bằng BulkWrite unordered,
// mỗi tin một filter (conversationId, messageId) riêng.
// Trả về số tin mới tạo hoặc đã sửa; tin trùng hoàn toàn không tính.
func (s *FbMessageItemService) UpsertMessages(ctx context.Context, messages []fbmodels.FbMessageItem) (int64, error) {
	if len(messages) == 0 {
		return 0, nil
	}
	filters := make([]interface{}, len(messages))
	for i, m := range messages {
		filters[i] = bson.M{
			"conversationId": m.ConversationId,
			"messageId":      m.MessageId,
		}
	}
	return s.UpsertMany(ctx, filters, messages)
}

// encodePageCursor ghép cursor phân trang từ cặp (khóa sắp xếp, khóa định
// danh) của bản ghi cuối trang. Dấu "|" an toàn làm dấu ngăn: không xuất
// hiện trong RFC3339 lẫn id của Graph.
func encodePageCursor(sortKey, id string) string {
	return sortKey + "|" + id
}

// decodePageCursor tách cursor thành (khóa sắp xếp, khóa định danh).
// Cursor không có dấu ngăn (định dạng cũ chỉ mang khóa sắp xếp) thì id rỗng.
func decodePageCursor(cursor string) (string, string) {
	sortKey, id, found := strings.Cut(cursor, "|")
	if !found {
		return cursor, ""
	}
	return sortKey, id
}

// messagePageFilter dựng filter Mongo cho một trang tin sau cursor.
// Cursor so sánh theo cặp (at, messageId): tin cùng at với vị trí cursor
// vẫn được trả ở trang kế nếu messageId nhỏ hơn, không bị nuốt mất khi
// nhiều tin trùng timestamp nằm vắt qua ranh giới trang.
func messagePageFilter(conversationId, after string) bson.M {
	filter := bson.M{"conversationId": conversationId}
	if after == "" {
		return filter
	}
	at, messageId := decodePageCursor(after)
	if messageId == "" {
		filter["at"] = bson.M{"$lt": at}
		return filter
	}
	filter["$or"] = []bson.M{
		{"at": bson.M{"$lt": at}},
		{"at": at, "messageId": bson.M{"$lt": messageId}},
	}
	return filter
}

// FindByConversationId đọc một trang tin nhắn của hội thoại, MỚI NHẤT TRƯỚC.
// after là cursor (at|messageId) trả từ trang trước; rỗng thì trả trang đầu.
// Trả về danh sách tin, cursor trang kế và tổng số tin.
func (s *FbMessageItemService) FindByConversationId(ctx context.Context, conversationId, after string, limit int64) ([]fbmodels.FbMessageItem, string, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	total, err := s.CountDocuments(ctx, bson.M{"conversationId": conversationId})
	if err != nil {
		return nil, "", 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}, {Key: "messageId", Value: -1}}).
		SetLimit(limit)
	messages, err := s.Find(ctx, messagePageFilter(conversationId, after), opts)
	if err != nil {
		return nil, "", 0, err
	}

	nextCursor := ""
	if int64(len(messages)) == limit && len(messages) > 0 {
		last := messages[len(messages)-1]
		nextCursor = encodePageCursor(last.At, last.MessageId)
	}
	return messages, nextCursor, total, nil
}

// FindAllAscending đọc toàn bộ tin của hội thoại theo thứ tự thời gian tăng dần.
// Dùng cho màn hình chi tiết hội thoại và quét trích số điện thoại.
func (s *FbMessageItemService) FindAllAscending(ctx context.Context, conversationId string) ([]fbmodels.FbMessageItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}, {Key: "messageId", Value: 1}})
	return s.Find(ctx, bson.M{"conversationId": conversationId}, opts)
}

// LastCustomerMessageAt thời điểm (ISO UTC) tin gần nhất KHÁCH gửi trong hội thoại.
// Trả về chuỗi rỗng nếu khách chưa từng nhắn — cơ sở kiểm tra cửa sổ 24 giờ.
func (s *FbMessageItemService) LastCustomerMessageAt(ctx context.Context, conversationId string) (string, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "at", Value: -1}})
	message, err := s.FindOne(ctx, bson.M{
		"conversationId": conversationId,
		"from":           fbmodels.MessageFromCustomer,
	}, opts)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return message.At, nil
}

// CountByConversationId đếm số tin trong hội thoại
func (s *FbMessageItemService) CountByConversationId(ctx context.Context, conversationId string) (int64, error) {
	return s.CountDocuments(ctx, bson.M{"conversationId": conversationId})
}
