package fbsvc

import (
	"testing"

	fbmodels "alpha_crm/internal/api/fb/models"
)

func TestMessageSummaryText(t *testing.T) {
	withText := fbmodels.FbMessageItem{Text: "Dạ còn hàng không shop?"}
	if got := messageSummaryText(withText); got != "Dạ còn hàng không shop?" {
		t.Errorf("Tin có text phải lấy nguyên text, được %q", got)
	}

	image := fbmodels.FbMessageItem{Attachments: []fbmodels.FbAttachment{{Type: "image", URL: "http://cdn/a"}}}
	if got := messageSummaryText(image); got != "[Hình ảnh]" {
		t.Errorf("Tin chỉ có ảnh phải tóm tắt là [Hình ảnh], được %q", got)
	}

	file := fbmodels.FbMessageItem{Attachments: []fbmodels.FbAttachment{{Type: "file", URL: "http://cdn/b"}}}
	if got := messageSummaryText(file); got != "[Tệp đính kèm]" {
		t.Errorf("Tin chỉ có file phải tóm tắt là [Tệp đính kèm], được %q", got)
	}

	empty := fbmodels.FbMessageItem{}
	if got := messageSummaryText(empty); got != "" {
		t.Errorf("Tin rỗng phải tóm tắt rỗng, được %q", got)
	}
}
