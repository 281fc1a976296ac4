package fbsvc

import (
	"testing"
	"time"

	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
)

func TestWithinMessagingWindow(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name           string
		lastCustomerAt string
		want           bool
	}{
		{"khách nhắn 1 giờ trước", "2026-08-20T11:00:00Z", true},
		{"khách nhắn 23h59m trước", "2026-08-19T12:01:00Z", true},
		{"khách nhắn đúng 24 giờ trước", "2026-08-19T12:00:00Z", true},
		{"khách nhắn 24h01m trước", "2026-08-19T11:59:00Z", false},
		{"khách chưa từng nhắn coi như trong cửa sổ", "", true},
		{"timestamp hỏng", "khong-phai-thoi-gian", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := withinMessagingWindow(tc.lastCustomerAt, now); got != tc.want {
				t.Errorf("withinMessagingWindow(%q): muốn %v, được %v", tc.lastCustomerAt, tc.want, got)
			}
		})
	}
}

func TestAllowedMessageTags(t *testing.T) {
	for _, tag := range []string{"CONFIRMED_EVENT_UPDATE", "POST_PURCHASE_UPDATE", "ACCOUNT_UPDATE"} {
		if !global.IsAllowedMessageTag(tag) {
			t.Errorf("Tag %s phải được chấp nhận", tag)
		}
	}
	for _, tag := range []string{"HUMAN_AGENT", "confirmed_event_update", "TAG_TU_CHE", ""} {
		if global.IsAllowedMessageTag(tag) {
			t.Errorf("Tag %q không được chấp nhận", tag)
		}
	}
}

func TestWindowPolicyErrorShape(t *testing.T) {
	// Dashboard phân biệt vi phạm cửa sổ với lỗi thường qua code 10 trong details
	appErr, ok := common.ErrWindowPolicy.(*common.Error)
	if !ok {
		t.Fatalf("ErrWindowPolicy phải là *common.Error, được %T", common.ErrWindowPolicy)
	}
	if appErr.StatusCode != common.StatusForbidden {
		t.Errorf("Vi phạm cửa sổ phải trả 403, được %d", appErr.StatusCode)
	}
	details, ok := appErr.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("Details phải là map, được %T", appErr.Details)
	}
	if details["code"] != common.MessagingWindowViolationCode {
		t.Errorf("Details phải chứa code %d, được %v", common.MessagingWindowViolationCode, details["code"])
	}
}

func TestComposeSenderName(t *testing.T) {
	cases := []struct {
		pageName  string
		adminName string
		want      string
	}{
		{"Shop ABC", "Minh", "Shop ABC (Minh)"},
		{"Shop ABC", "", "Shop ABC (Admin)"},
		{"", "Minh", "Page (Minh)"},
		{"", "", "Page (Admin)"},
	}
	for _, tc := range cases {
		if got := composeSenderName(tc.pageName, tc.adminName); got != tc.want {
			t.Errorf("composeSenderName(%q, %q) = %q, muốn %q", tc.pageName, tc.adminName, got, tc.want)
		}
	}
}
