package fbsvc

import (
	"context"
	"reflect"
	"testing"

	fbmodels "alpha_crm/internal/api/fb/models"
)

func TestExtractPhones(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "số viết liền",
			text: "Gọi mình nhé 0912345678",
			want: []string{"0912345678"},
		},
		{
			name: "số có dấu phân cách",
			text: "sdt: 091 234-5678 hoặc 09.1234.5678",
			want: []string{"0912345678"},
		},
		{
			name: "số quốc tế có dấu cộng",
			text: "Liên hệ +84 91 234 5678",
			want: []string{"+84912345678"},
		},
		{
			name: "dưới 8 chữ số bị loại",
			text: "Mã đơn 1234567, giá 150000đ",
			want: nil,
		},
		{
			name: "nhiều số khác nhau",
			text: "0912345678 hoặc 0987654321",
			want: []string{"0912345678", "0987654321"},
		},
		{
			name: "trùng số chỉ trả một lần",
			text: "0912345678 nhắc lại 0912345678",
			want: []string{"0912345678"},
		},
		{
			name: "không có số",
			text: "Chào shop, còn hàng không ạ?",
			want: nil,
		},
		{
			name: "chuỗi rỗng",
			text: "",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractPhones(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractPhones(%q): muốn %v, được %v", tc.text, tc.want, got)
			}
		})
	}
}

func TestExtractPhonesShortRuns(t *testing.T) {
	// Cụm số ngắn đứng riêng không được thành candidate
	got := ExtractPhones("Đơn 123 giá 45000")
	if got != nil {
		t.Errorf("Cụm dưới 8 chữ số phải bị loại, được %v", got)
	}
}

func TestSplitConversationId(t *testing.T) {
	pageId, psid, ok := SplitConversationId("99001_psid123")
	if !ok || pageId != "99001" || psid != "psid123" {
		t.Errorf("Tách danh tính không đúng: pageId=%s psid=%s ok=%v", pageId, psid, ok)
	}

	// pageId có thể chứa "_": tách tại dấu "_" cuối cùng
	pageId, psid, ok = SplitConversationId("page_a_psid123")
	if !ok || pageId != "page_a" || psid != "psid123" {
		t.Errorf("Phải tách tại dấu gạch dưới cuối: pageId=%s psid=%s", pageId, psid)
	}

	if _, _, ok := SplitConversationId("khongcodauphancach"); ok {
		t.Error("Chuỗi không có dấu gạch dưới phải trả về ok=false")
	}
	if _, _, ok := SplitConversationId("_psid"); ok {
		t.Error("pageId rỗng phải trả về ok=false")
	}
}

func TestBuildConversationId(t *testing.T) {
	if got := BuildConversationId("99001", "psid1"); got != "99001_psid1" {
		t.Errorf("Danh tính hội thoại phải là pageId_psid, được %s", got)
	}
}

func TestScanMessageSkipsConvertedPhone(t *testing.T) {
	// isKnown trả true: số đã converted phải bị chặn TRƯỚC khi chạm tới
	// tầng lưu trữ (service không có collection, đụng tới là panic)
	checked := []string{}
	svc := &ContactExtractorService{
		isKnown: func(ctx context.Context, phone string) (bool, error) {
			checked = append(checked, phone)
			return true, nil
		},
	}

	conv := fbmodels.FbConversation{ConversationId: "99001_psid_1", PageId: "99001", Psid: "psid_1"}
	message := fbmodels.FbMessageItem{
		ConversationId: "99001_psid_1",
		MessageId:      "mid.1",
		From:           fbmodels.MessageFromCustomer,
		Text:           "Số của mình là 0912345678 nhé shop",
		At:             "2026-08-20T10:00:00Z",
	}

	created, err := svc.ScanMessage(context.Background(), conv, message)
	if err != nil {
		t.Fatalf("ScanMessage trả về lỗi: %v", err)
	}
	if created != 0 {
		t.Errorf("Số đã converted không được tạo candidate mới, được %d", created)
	}
	if len(checked) != 1 || checked[0] != "0912345678" {
		t.Errorf("Số trích được phải đi qua kiểm tra converted: %v", checked)
	}
}

func TestScanMessageSkipsAgentBeforeKnownCheck(t *testing.T) {
	svc := &ContactExtractorService{
		isKnown: func(ctx context.Context, phone string) (bool, error) {
			t.Error("Tin của nhân viên không được quét số")
			return false, nil
		},
	}
	created, err := svc.ScanMessage(context.Background(), fbmodels.FbConversation{}, fbmodels.FbMessageItem{
		From: fbmodels.MessageFromAgent,
		Text: "Shop gọi lại số 0912345678 nhé",
	})
	if err != nil || created != 0 {
		t.Errorf("Tin của nhân viên phải bị bỏ qua: created=%d err=%v", created, err)
	}
}
