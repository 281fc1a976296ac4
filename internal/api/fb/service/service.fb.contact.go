package fbsvc

import (
	"context"
	"errors"
	"regexp"
	"strings"

	basesvc "alpha_crm/internal/api/base/service"
	fbdto "alpha_crm/internal/api/fb/dto"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
	"alpha_crm/internal/logger"
	"alpha_crm/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// phonePattern bắt các cụm chữ số có thể xen kẽ dấu phân cách phổ biến
// (khoảng trắng, chấm, gạch ngang, ngoặc đơn), cho phép tiền tố quốc tế "+".
// Việc lọc theo độ dài làm SAU khi đã bỏ dấu phân cách.
var phonePattern = regexp.MustCompile(`\+?\d[\d\s.\-()]*\d`)

// nonDigits dùng để bỏ mọi ký tự không phải chữ số khỏi cụm đã bắt
var nonDigits = regexp.MustCompile(`\D`)

// contactSnippetLen độ dài tối đa của đoạn trích tin nhắn chứa số
const contactSnippetLen = 200

// ExtractPhones trích các số điện thoại tiềm năng từ một đoạn văn bản.
// Một cụm được coi là số điện thoại khi sau khi bỏ dấu phân cách còn
// ít nhất 8 chữ số. Số trùng trong cùng đoạn chỉ trả về một lần,
// giữ nguyên thứ tự xuất hiện.
func ExtractPhones(text string) []string {
	if text == "" {
		return nil
	}

	var phones []string
	seen := make(map[string]bool)
	for _, raw := range phonePattern.FindAllString(text, -1) {
		digits := nonDigits.ReplaceAllString(raw, "")
		if len(digits) < 8 {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(raw), "+") {
			digits = "+" + digits
		}
		if !seen[digits] {
			seen[digits] = true
			phones = append(phones, digits)
		}
	}
	return phones
}

// ContactExtractorService quét tin nhắn của khách để trích số điện thoại
// thành contact candidate. Chỉ tin từ khách được quét: số trong tin của
// nhân viên (đọc lại số cho khách) không phải là liên hệ mới.
type ContactExtractorService struct {
	*basesvc.BaseServiceMongoImpl[fbmodels.ContactCandidate]
	conversations *FbConversationService
	messages      *FbMessageItemService

	isKnown func(ctx context.Context, phone string) (bool, error) // cho test thay được
}

// NewContactExtractorService tạo ContactExtractorService mới
func NewContactExtractorService(conversations *FbConversationService, messages *FbMessageItemService) (*ContactExtractorService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ContactCandidates)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection contact_candidates", common.StatusInternalServerError, nil)
	}
	s := &ContactExtractorService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[fbmodels.ContactCandidate](collection),
		conversations:        conversations,
		messages:             messages,
	}
	s.isKnown = s.isConvertedPhone
	return s, nil
}

// isConvertedPhone kiểm tra số đã được chuyển thành khách hàng chưa.
// Kiểm tra theo phone trên MỌI hội thoại: khách nhắn cùng số vào trang
// khác vẫn là người đã chốt, không cần trích lại.
func (s *ContactExtractorService) isConvertedPhone(ctx context.Context, phone string) (bool, error) {
	return s.DocumentExists(ctx, bson.M{
		"phone":  phone,
		"status": fbmodels.ContactStatusConverted,
	})
}

// ScanMessage quét một tin nhắn mới đến (gọi từ pipeline webhook).
// Tin của nhân viên bị bỏ qua; số đã converted bị bỏ qua trước khi chạm
// tới upsert — khách đã chốt nhắn lại số của họ không tạo candidate mới.
// Trả về số candidate MỚI tạo.
func (s *ContactExtractorService) ScanMessage(ctx context.Context, conv fbmodels.FbConversation, message fbmodels.FbMessageItem) (int, error) {
	if message.From != fbmodels.MessageFromCustomer {
		return 0, nil
	}

	phones := ExtractPhones(message.Text)
	if len(phones) == 0 {
		return 0, nil
	}

	created := 0
	for _, phone := range phones {
		known, err := s.isKnown(ctx, phone)
		if err != nil {
			return created, err
		}
		if known {
			continue
		}
		isNew, err := s.upsertCandidate(ctx, conv, message, phone)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

// upsertCandidate ghi một candidate, chống trùng theo (conversationId, phone).
// Số đã có chỉ cập nhật lastSeenAt và snippet mới nhất.
func (s *ContactExtractorService) upsertCandidate(ctx context.Context, conv fbmodels.FbConversation, message fbmodels.FbMessageItem, phone string) (isNew bool, err error) {
	filter := bson.M{"conversationId": conv.ConversationId, "phone": phone}

	exists, err := s.DocumentExists(ctx, filter)
	if err != nil {
		return false, err
	}

	set := bson.M{
		"phone":          phone,
		"conversationId": conv.ConversationId,
		"pageId":         conv.PageId,
		"pageName":       conv.PageName,
		"psid":           conv.Psid,
		"customerName":   conv.CustomerName,
		"lastSeenAt":     message.At,
		"messageSnippet": utility.TruncateString(message.Text, contactSnippetLen),
	}
	update := &basesvc.UpdateData{
		Set: set,
		// Chỉ gán status lúc tạo: lần thấy lại không kéo bản ghi đã
		// converted về candidate.
		SetOnInsert: bson.M{"status": fbmodels.ContactStatusCandidate},
	}
	if _, err := s.Upsert(ctx, filter, update); err != nil {
		// Hai webhook song song cùng tạo một candidate: unique index thắng,
		// bản ghi đã có nên coi như không phải mới.
		if errors.Is(err, common.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return !exists, nil
}

// RescanAll quét lại TOÀN BỘ hội thoại để trích số điện thoại.
// Lỗi ở một hội thoại không dừng cả lượt quét: đếm vào ErrorCount rồi đi tiếp.
// SkippedCount đếm số điện thoại đã có từ trước (không tạo mới).
func (s *ContactExtractorService) RescanAll(ctx context.Context) (*fbdto.RescanResult, error) {
	conversations, err := s.conversations.Find(ctx, bson.M{}, nil)
	if err != nil {
		return nil, err
	}

	log := logger.GetAppLogger()
	result := &fbdto.RescanResult{}
	for _, conv := range conversations {
		result.ConversationCount++

		messages, err := s.messages.FindAllAscending(ctx, conv.ConversationId)
		if err != nil {
			result.ErrorCount++
			log.WithError(err).WithFields(map[string]interface{}{
				"conversationId": conv.ConversationId,
			}).Warn("Đọc tin nhắn khi rescan thất bại, bỏ qua hội thoại")
			continue
		}

		// Dedup trong phạm vi một lượt quét hội thoại: cùng số xuất hiện
		// ở nhiều tin chỉ xử lý theo lần xuất hiện cuối (lastSeenAt mới nhất)
		lastSeen := make(map[string]fbmodels.FbMessageItem)
		var order []string
		for _, message := range messages {
			if message.From != fbmodels.MessageFromCustomer {
				continue
			}
			for _, phone := range ExtractPhones(message.Text) {
				if _, ok := lastSeen[phone]; !ok {
					order = append(order, phone)
				}
				lastSeen[phone] = message
			}
		}

		for _, phone := range order {
			known, err := s.isKnown(ctx, phone)
			if err != nil {
				result.ErrorCount++
				log.WithError(err).WithFields(map[string]interface{}{
					"conversationId": conv.ConversationId,
					"phone":          phone,
				}).Warn("Kiểm tra trạng thái contact khi rescan thất bại")
				continue
			}
			if known {
				result.SkippedCount++
				continue
			}
			isNew, err := s.upsertCandidate(ctx, conv, lastSeen[phone], phone)
			if err != nil {
				result.ErrorCount++
				log.WithError(err).WithFields(map[string]interface{}{
					"conversationId": conv.ConversationId,
					"phone":          phone,
				}).Warn("Ghi contact candidate khi rescan thất bại")
				continue
			}
			if isNew {
				result.ContactCount++
			} else {
				result.SkippedCount++
			}
		}
	}
	return result, nil
}

// MarkConverted đánh dấu một candidate đã chuyển thành khách hàng.
// Từ đây mọi lượt quét (webhook, sync, rescan) bỏ qua số này.
func (s *ContactExtractorService) MarkConverted(ctx context.Context, id primitive.ObjectID) (fbmodels.ContactCandidate, error) {
	return s.UpdateById(ctx, id, &basesvc.UpdateData{
		Set: bson.M{"status": fbmodels.ContactStatusConverted},
	})
}
