package graph

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	fbmodels "alpha_crm/internal/api/fb/models"
)

// ===========================================
// WIRE TYPES — shape thô của Graph API
// ===========================================

type graphParticipant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type graphConversation struct {
	ID           string `json:"id"` // thread id gốc, KHÔNG dùng làm danh tính
	UpdatedTime  string `json:"updated_time"`
	Participants struct {
		Data []graphParticipant `json:"data"`
	} `json:"participants"`
}

type graphConversationsResponse struct {
	Data   []graphConversation `json:"data"`
	Paging *graphPaging        `json:"paging,omitempty"`
}

type graphAttachmentImage struct {
	URL string `json:"url"`
}

type graphAttachmentVideo struct {
	URL string `json:"url"`
}

type graphAttachment struct {
	ID        string                `json:"id"`
	MimeType  string                `json:"mime_type,omitempty"`
	Name      string                `json:"name,omitempty"`
	FileURL   string                `json:"file_url,omitempty"`
	ImageData *graphAttachmentImage `json:"image_data,omitempty"`
	VideoData *graphAttachmentVideo `json:"video_data,omitempty"`
}

type graphMessage struct {
	ID          string           `json:"id"` // mid
	Message     string           `json:"message,omitempty"`
	CreatedTime string           `json:"created_time"`
	From        graphParticipant `json:"from"`
	Attachments *struct {
		Data []graphAttachment `json:"data"`
	} `json:"attachments,omitempty"`
}

type graphMessagesResponse struct {
	Data   []graphMessage `json:"data"`
	Paging *graphPaging   `json:"paging,omitempty"`
}

type graphPaging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next,omitempty"`
}

type graphSendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// ===========================================
// CHUẨN HÓA
// ===========================================

// graphTimeLayouts các định dạng thời gian Graph API trả về
var graphTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// normalizeTime chuyển timestamp của Graph về ISO-8601 UTC.
// Giá trị không parse được giữ nguyên để không mất dữ liệu.
func normalizeTime(raw string) string {
	for _, layout := range graphTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}

// pickCustomer chọn participant là khách hàng: participant đầu tiên có id
// khác pageId; nếu mọi participant đều trùng pageId thì lấy phần tử đầu.
func pickCustomer(participants []graphParticipant, pageId string) graphParticipant {
	for _, p := range participants {
		if p.ID != pageId {
			return p
		}
	}
	if len(participants) > 0 {
		return participants[0]
	}
	return graphParticipant{}
}

// normalizeAttachment chuyển một attachment thô về dạng nội bộ.
// Ưu tiên image > video > audio > file; đính kèm không có URL trả về
// ok=false và bị loại.
func normalizeAttachment(a graphAttachment) (fbmodels.FbAttachment, bool) {
	switch {
	case a.ImageData != nil && a.ImageData.URL != "":
		return fbmodels.FbAttachment{Type: "image", URL: a.ImageData.URL, Name: a.Name}, true
	case a.VideoData != nil && a.VideoData.URL != "":
		return fbmodels.FbAttachment{Type: "video", URL: a.VideoData.URL, Name: a.Name}, true
	case a.FileURL != "" && strings.HasPrefix(a.MimeType, "audio"):
		return fbmodels.FbAttachment{Type: "audio", URL: a.FileURL, Name: a.Name}, true
	case a.FileURL != "":
		return fbmodels.FbAttachment{Type: "file", URL: a.FileURL, Name: a.Name}, true
	default:
		return fbmodels.FbAttachment{}, false
	}
}

// nextCursor đọc cursor trang kế từ paging của Graph. Graph luôn trả
// cursors kể cả ở trang cuối; chỉ khi có link next mới thật sự còn trang.
func nextCursor(p *graphPaging) string {
	if p == nil || p.Next == "" {
		return ""
	}
	return p.Cursors.After
}

// normalizeMessage chuyển một tin nhắn thô về FbMessageItem.
// From là "agent" khi và chỉ khi người gửi là chính trang.
func normalizeMessage(m graphMessage, pageId, conversationId string) fbmodels.FbMessageItem {
	from := fbmodels.MessageFromCustomer
	if m.From.ID == pageId {
		from = fbmodels.MessageFromAgent
	}

	var attachments []fbmodels.FbAttachment
	if m.Attachments != nil {
		for _, a := range m.Attachments.Data {
			if att, ok := normalizeAttachment(a); ok {
				attachments = append(attachments, att)
			}
		}
	}

	return fbmodels.FbMessageItem{
		ConversationId: conversationId,
		MessageId:      m.ID,
		From:           from,
		Text:           m.Message,
		At:             normalizeTime(m.CreatedTime),
		Attachments:    attachments,
		SenderName:     m.From.Name,
	}
}

// ===========================================
// API METHODS
// ===========================================

// ConversationThread một hội thoại đã chuẩn hóa kèm thread id gốc.
// ThreadID chỉ dùng để gọi tiếp endpoint messages, không bao giờ lưu.
type ConversationThread struct {
	Conversation fbmodels.FbConversation
	ThreadID     string
}

// ListConversations lấy một trang danh sách hội thoại của một trang Facebook,
// đã chuẩn hóa: danh tính là "{pageId}_{psid}", khách hàng được chọn theo
// participant khác pageId. after là cursor trang kế Graph trả từ lần gọi
// trước (rỗng thì lấy trang đầu); cursor trả về rỗng nghĩa là hết hội thoại.
func (c *Client) ListConversations(ctx context.Context, pageId, token string, limit int, after string) ([]ConversationThread, string, error) {
	query := url.Values{}
	query.Set("fields", "participants,updated_time")
	query.Set("access_token", token)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if after != "" {
		query.Set("after", after)
	}

	var resp graphConversationsResponse
	if err := c.get(ctx, pageId+"/conversations", query, &resp); err != nil {
		return nil, "", err
	}

	threads := make([]ConversationThread, 0, len(resp.Data))
	for _, raw := range resp.Data {
		customer := pickCustomer(raw.Participants.Data, pageId)
		if customer.ID == "" {
			continue
		}
		threads = append(threads, ConversationThread{
			ThreadID: raw.ID,
			Conversation: fbmodels.FbConversation{
				ConversationId: fmt.Sprintf("%s_%s", pageId, customer.ID),
				PageId:         pageId,
				Psid:           customer.ID,
				CustomerName:   customer.Name,
				UpdatedTime:    normalizeTime(raw.UpdatedTime),
			},
		})
	}
	return threads, nextCursor(resp.Paging), nil
}

// ListMessages lấy một trang tin nhắn của một thread, đã chuẩn hóa và sắp xếp
// tăng dần theo thời gian. Graph trả tin mới nhất trước nên phải sort lại.
// after là cursor trang kế từ lần gọi trước; cursor trả về rỗng là hết tin.
func (c *Client) ListMessages(ctx context.Context, threadId, pageId, conversationId, token string, limit int, after string) ([]fbmodels.FbMessageItem, string, error) {
	query := url.Values{}
	query.Set("fields", "message,from,created_time,attachments{mime_type,name,file_url,image_data,video_data}")
	query.Set("access_token", token)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if after != "" {
		query.Set("after", after)
	}

	var resp graphMessagesResponse
	if err := c.get(ctx, threadId+"/messages", query, &resp); err != nil {
		return nil, "", err
	}

	messages := make([]fbmodels.FbMessageItem, 0, len(resp.Data))
	for _, raw := range resp.Data {
		if raw.ID == "" {
			continue
		}
		messages = append(messages, normalizeMessage(raw, pageId, conversationId))
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].At < messages[j].At
	})
	return messages, nextCursor(resp.Paging), nil
}

// SendPayload nội dung gửi tin qua Send API
type SendPayload struct {
	Psid          string
	Text          string
	AttachmentUrl string
	Tag           string
}

// SendResult kết quả Send API trả về
type SendResult struct {
	MessageID   string
	RecipientID string
}

// SendMessage gửi tin nhắn đến khách qua Send API (POST /me/messages).
// Tag khác rỗng chuyển messaging_type sang MESSAGE_TAG, cho phép gửi
// ngoài cửa sổ 24 giờ với các tag Meta chấp nhận.
func (c *Client) SendMessage(ctx context.Context, token string, payload SendPayload) (*SendResult, error) {
	message := map[string]interface{}{}
	if payload.Text != "" {
		message["text"] = payload.Text
	}
	if payload.AttachmentUrl != "" {
		message["attachment"] = map[string]interface{}{
			"type": "image",
			"payload": map[string]interface{}{
				"url":         payload.AttachmentUrl,
				"is_reusable": true,
			},
		}
	}

	body := map[string]interface{}{
		"recipient":      map[string]string{"id": payload.Psid},
		"message":        message,
		"messaging_type": "RESPONSE",
	}
	if payload.Tag != "" {
		body["messaging_type"] = "MESSAGE_TAG"
		body["tag"] = payload.Tag
	}

	query := url.Values{}
	query.Set("access_token", token)

	var resp graphSendResponse
	if err := c.postJSON(ctx, "me/messages", query, body, &resp); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: resp.MessageID, RecipientID: resp.RecipientID}, nil
}
