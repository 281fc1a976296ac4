package webhookhdl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"alpha_crm/config"
	"alpha_crm/internal/global"

	"github.com/gofiber/fiber/v3"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"object":"page"}`)

	if !VerifySignature("secret", body, signBody("secret", body)) {
		t.Error("Chữ ký đúng phải được chấp nhận")
	}
	if VerifySignature("secret", body, signBody("khác", body)) {
		t.Error("Chữ ký ký bằng secret khác phải bị từ chối")
	}
	if VerifySignature("secret", body, "") {
		t.Error("Thiếu header chữ ký phải bị từ chối")
	}
	if VerifySignature("secret", body, "md5=abc") {
		t.Error("Header không có prefix sha256= phải bị từ chối")
	}
	if VerifySignature("", body, signBody("", body)) {
		t.Error("Chưa cấu hình app secret thì không coi chữ ký nào là hợp lệ")
	}
}

func TestHandleVerify(t *testing.T) {
	global.ServerConfig = &config.Configuration{
		MetaWebhookVerifyToken: "verify-token-123",
	}

	app := fiber.New()
	handler := NewMetaWebhookHandler(nil, nil)
	app.Get("/api/webhooks/meta", handler.HandleVerify)

	// Token khớp: echo lại hub.challenge dạng plain text
	req := httptest.NewRequest("GET",
		"/api/webhooks/meta?hub.mode=subscribe&hub.verify_token=verify-token-123&hub.challenge=ch4ll3ng3", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request thất bại: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Verify hợp lệ phải trả 200, got %d", resp.StatusCode)
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	if string(bodyBytes) != "ch4ll3ng3" {
		t.Errorf("Phải echo lại challenge, got %q", string(bodyBytes))
	}

	// Token sai: 403
	req = httptest.NewRequest("GET",
		"/api/webhooks/meta?hub.mode=subscribe&hub.verify_token=sai&hub.challenge=x", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Request thất bại: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("Verify token sai phải trả 403, got %d", resp.StatusCode)
	}
}

func TestHandlePayloadStrictSignature(t *testing.T) {
	global.ServerConfig = &config.Configuration{
		MetaAppSecret:       "app-secret",
		MetaStrictSignature: true,
	}

	app := fiber.New()
	handler := NewMetaWebhookHandler(nil, nil)
	app.Post("/api/webhooks/meta", handler.HandlePayload)

	body := `{"object":"page","entry":[]}`
	req := httptest.NewRequest("POST", "/api/webhooks/meta", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request thất bại: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("Chế độ strict với chữ ký sai phải trả 403, got %d", resp.StatusCode)
	}
}
