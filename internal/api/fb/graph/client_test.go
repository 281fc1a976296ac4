package graph

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"alpha_crm/config"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
)

// newTestClient tạo client trỏ về server giả lập
func newTestClient(serverURL string) *Client {
	return NewClient(&config.Configuration{
		MetaGraphBaseURL: serverURL,
		MetaGraphVersion: "v19.0",
	})
}

func TestListConversationsNormalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v19.0/99001/conversations" {
			t.Errorf("Đường dẫn request không đúng: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{
					"id": "t_native_thread_1",
					"updated_time": "2026-08-20T10:00:00+0000",
					"participants": {"data": [
						{"id": "99001", "name": "Shop ABC"},
						{"id": "psid_1", "name": "Nguyễn Văn A"}
					]}
				},
				{
					"id": "t_native_thread_2",
					"updated_time": "2026-08-21T11:30:00+0000",
					"participants": {"data": [
						{"id": "psid_2", "name": "Trần Thị B"},
						{"id": "99001", "name": "Shop ABC"}
					]}
				}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	threads, nextCursor, err := client.ListConversations(context.Background(), "99001", "tok", 25, "")
	if err != nil {
		t.Fatalf("ListConversations trả về lỗi: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("Số hội thoại không đúng: muốn 2, được %d", len(threads))
	}
	if nextCursor != "" {
		t.Errorf("Response không có paging.next thì cursor phải rỗng, được %q", nextCursor)
	}

	first := threads[0]
	if first.Conversation.ConversationId != "99001_psid_1" {
		t.Errorf("Danh tính hội thoại phải là pageId_psid, được %s", first.Conversation.ConversationId)
	}
	if first.Conversation.Psid != "psid_1" || first.Conversation.CustomerName != "Nguyễn Văn A" {
		t.Errorf("Khách hàng phải là participant khác pageId, được psid=%s name=%s",
			first.Conversation.Psid, first.Conversation.CustomerName)
	}
	if first.Conversation.UpdatedTime != "2026-08-20T10:00:00Z" {
		t.Errorf("Thời gian phải chuẩn hóa về ISO UTC, được %s", first.Conversation.UpdatedTime)
	}
	if first.ThreadID != "t_native_thread_1" {
		t.Errorf("ThreadID gốc phải giữ lại để gọi messages, được %s", first.ThreadID)
	}

	// Hội thoại thứ hai: khách đứng trước trang trong danh sách participants
	if threads[1].Conversation.Psid != "psid_2" {
		t.Errorf("Chọn khách không phụ thuộc thứ tự participants, được psid=%s", threads[1].Conversation.Psid)
	}
}

func TestListConversationsPagination(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		requests = append(requests, after)
		w.Header().Set("Content-Type", "application/json")
		if after == "" {
			w.Write([]byte(`{
				"data": [{
					"id": "t_1",
					"updated_time": "2026-08-21T10:00:00+0000",
					"participants": {"data": [
						{"id": "99001", "name": "Shop ABC"},
						{"id": "psid_1", "name": "Nguyễn Văn A"}
					]}
				}],
				"paging": {
					"cursors": {"before": "BEFORE_1", "after": "CURSOR_PAGE_2"},
					"next": "https://graph.facebook.com/v19.0/99001/conversations?after=CURSOR_PAGE_2"
				}
			}`))
			return
		}
		// Trang cuối: Graph vẫn trả cursors nhưng không còn link next
		w.Write([]byte(`{
			"data": [{
				"id": "t_2",
				"updated_time": "2026-08-20T09:00:00+0000",
				"participants": {"data": [
					{"id": "99001", "name": "Shop ABC"},
					{"id": "psid_2", "name": "Trần Thị B"}
				]}
			}],
			"paging": {"cursors": {"before": "BEFORE_2", "after": "CURSOR_END"}}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	threads, nextCursor, err := client.ListConversations(context.Background(), "99001", "tok", 50, "")
	if err != nil {
		t.Fatalf("Trang đầu trả về lỗi: %v", err)
	}
	if len(threads) != 1 || threads[0].Conversation.Psid != "psid_1" {
		t.Fatalf("Trang đầu không đúng dữ liệu: %+v", threads)
	}
	if nextCursor != "CURSOR_PAGE_2" {
		t.Fatalf("Có paging.next thì phải trả cursor trang kế, được %q", nextCursor)
	}

	threads, nextCursor, err = client.ListConversations(context.Background(), "99001", "tok", 50, nextCursor)
	if err != nil {
		t.Fatalf("Trang kế trả về lỗi: %v", err)
	}
	if len(threads) != 1 || threads[0].Conversation.Psid != "psid_2" {
		t.Fatalf("Trang kế không đúng dữ liệu: %+v", threads)
	}
	if nextCursor != "" {
		t.Errorf("Hết trang thì cursor phải rỗng, được %q", nextCursor)
	}

	if len(requests) != 2 {
		t.Fatalf("Phải có đúng 2 request, được %d", len(requests))
	}
	if requests[1] != "CURSOR_PAGE_2" {
		t.Errorf("Request trang kế phải mang query after, được %q", requests[1])
	}
}

func TestListMessagesPagination(t *testing.T) {
	var afters []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		w.Header().Set("Content-Type", "application/json")
		if after == "" {
			w.Write([]byte(`{
				"data": [{
					"id": "mid.2",
					"message": "Tin trang đầu",
					"created_time": "2026-08-20T10:01:00+0000",
					"from": {"id": "psid_1", "name": "Nguyễn Văn A"}
				}],
				"paging": {
					"cursors": {"after": "MSG_CURSOR_2"},
					"next": "https://graph.facebook.com/v19.0/t_1/messages?after=MSG_CURSOR_2"
				}
			}`))
			return
		}
		w.Write([]byte(`{
			"data": [{
				"id": "mid.1",
				"message": "Tin trang cuối",
				"created_time": "2026-08-20T10:00:00+0000",
				"from": {"id": "psid_1", "name": "Nguyễn Văn A"}
			}],
			"paging": {"cursors": {"after": "MSG_CURSOR_END"}}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	messages, nextCursor, err := client.ListMessages(context.Background(), "t_1", "99001", "99001_psid_1", "tok", 100, "")
	if err != nil {
		t.Fatalf("Trang đầu trả về lỗi: %v", err)
	}
	if len(messages) != 1 || messages[0].MessageId != "mid.2" {
		t.Fatalf("Trang đầu không đúng dữ liệu: %+v", messages)
	}
	if nextCursor != "MSG_CURSOR_2" {
		t.Fatalf("Có paging.next thì phải trả cursor trang kế, được %q", nextCursor)
	}

	messages, nextCursor, err = client.ListMessages(context.Background(), "t_1", "99001", "99001_psid_1", "tok", 100, nextCursor)
	if err != nil {
		t.Fatalf("Trang kế trả về lỗi: %v", err)
	}
	if len(messages) != 1 || messages[0].MessageId != "mid.1" {
		t.Fatalf("Trang kế không đúng dữ liệu: %+v", messages)
	}
	if nextCursor != "" {
		t.Errorf("Hết trang thì cursor phải rỗng, được %q", nextCursor)
	}
	if len(afters) != 2 || afters[1] != "MSG_CURSOR_2" {
		t.Errorf("Request trang kế phải mang query after, được %v", afters)
	}
}

func TestListMessagesNormalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Graph trả tin mới nhất trước
		w.Write([]byte(`{
			"data": [
				{
					"id": "mid.3",
					"message": "",
					"created_time": "2026-08-20T10:02:00+0000",
					"from": {"id": "psid_1", "name": "Nguyễn Văn A"},
					"attachments": {"data": [
						{"id": "a1", "name": "anh.jpg", "file_url": "http://cdn/x/file", "image_data": {"url": "http://cdn/x/img"}},
						{"id": "a2", "name": "clip.mp4", "video_data": {"url": "http://cdn/x/vid"}},
						{"id": "a3", "name": "khong-url.bin"}
					]}
				},
				{
					"id": "mid.2",
					"message": "Dạ shop còn hàng không?",
					"created_time": "2026-08-20T10:01:00+0000",
					"from": {"id": "psid_1", "name": "Nguyễn Văn A"}
				},
				{
					"id": "mid.1",
					"message": "Chào bạn",
					"created_time": "2026-08-20T10:00:00+0000",
					"from": {"id": "99001", "name": "Shop ABC"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	messages, _, err := client.ListMessages(context.Background(), "t_1", "99001", "99001_psid_1", "tok", 50, "")
	if err != nil {
		t.Fatalf("ListMessages trả về lỗi: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Số tin nhắn không đúng: muốn 3, được %d", len(messages))
	}

	// Phải sắp xếp tăng dần theo thời gian dù Graph trả mới nhất trước
	for i := 1; i < len(messages); i++ {
		if messages[i-1].At > messages[i].At {
			t.Fatalf("Tin nhắn phải sắp tăng dần theo at: %s > %s", messages[i-1].At, messages[i].At)
		}
	}

	if messages[0].From != fbmodels.MessageFromAgent {
		t.Errorf("Tin từ chính trang phải là agent, được %s", messages[0].From)
	}
	if messages[1].From != fbmodels.MessageFromCustomer {
		t.Errorf("Tin từ khách phải là customer, được %s", messages[1].From)
	}

	// Đính kèm: ưu tiên image trước file_url, loại đính kèm không có URL
	withAtt := messages[2]
	if len(withAtt.Attachments) != 2 {
		t.Fatalf("Đính kèm không có URL phải bị loại: muốn 2, được %d", len(withAtt.Attachments))
	}
	if withAtt.Attachments[0].Type != "image" || withAtt.Attachments[0].URL != "http://cdn/x/img" {
		t.Errorf("Đính kèm có image_data phải chuẩn hóa thành image, được %+v", withAtt.Attachments[0])
	}
	if withAtt.Attachments[1].Type != "video" {
		t.Errorf("Đính kèm có video_data phải chuẩn hóa thành video, được %+v", withAtt.Attachments[1])
	}
	if withAtt.ConversationId != "99001_psid_1" {
		t.Errorf("Tin nhắn phải gắn với danh tính pageId_psid, được %s", withAtt.ConversationId)
	}
}

func TestSendMessageWithTag(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v19.0/me/messages" {
			t.Errorf("Request gửi tin không đúng: %s %s", r.Method, r.URL.Path)
		}
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recipient_id": "psid_1", "message_id": "mid.sent.1"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.SendMessage(context.Background(), "tok", SendPayload{
		Psid: "psid_1",
		Text: "Đơn hàng của bạn đã được xác nhận",
		Tag:  "CONFIRMED_EVENT_UPDATE",
	})
	if err != nil {
		t.Fatalf("SendMessage trả về lỗi: %v", err)
	}
	if result.MessageID != "mid.sent.1" || result.RecipientID != "psid_1" {
		t.Errorf("Kết quả gửi tin không đúng: %+v", result)
	}

	body := string(gotBody)
	for _, want := range []string{`"messaging_type":"MESSAGE_TAG"`, `"tag":"CONFIRMED_EVENT_UPDATE"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Body gửi tin thiếu %s: %s", want, body)
		}
	}
}

func TestSendMessageWindowViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "This message is sent outside of allowed window.", "type": "OAuthException", "code": 10}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SendMessage(context.Background(), "tok", SendPayload{Psid: "psid_1", Text: "hi"})
	if err == nil {
		t.Fatal("Gửi ngoài cửa sổ 24h phải trả về lỗi")
	}
	var appErr *common.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("Lỗi phải là *common.Error, được %T", err)
	}
	if appErr.Code.Code != common.ErrCodeFbWindow.Code {
		t.Errorf("Mã lỗi phải là FbWindow, được %s", appErr.Code.Code)
	}
	if appErr.StatusCode != common.StatusForbidden {
		t.Errorf("Status phải là 403, được %d", appErr.StatusCode)
	}
}

func TestSendMessageInvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Error validating access token", "type": "OAuthException", "code": 190}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SendMessage(context.Background(), "tok-hong", SendPayload{Psid: "psid_1", Text: "hi"})
	if err == nil {
		t.Fatal("Token hỏng phải trả về lỗi")
	}
	var appErr *common.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("Lỗi phải là *common.Error, được %T", err)
	}
	if appErr.Code.Code != common.ErrCodeAuthToken.Code {
		t.Errorf("Mã lỗi phải là AuthToken, được %s", appErr.Code.Code)
	}
}
