// Package graph gọi Meta Graph API và chuẩn hóa dữ liệu thô về
// dạng nội bộ của hệ thống (FbConversation, FbMessageItem).
// Mọi phương thức nhận token tường minh: việc tra token thuộc về
// tầng service, client chỉ biết gọi HTTP.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alpha_crm/config"
	"alpha_crm/internal/common"
	"alpha_crm/internal/logger"
)

// DefaultBaseURL endpoint Graph API production
const DefaultBaseURL = "https://graph.facebook.com"

// Client gọi Meta Graph API cho một phiên bản API cố định.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
}

// NewClient tạo Graph client từ cấu hình server.
// MetaGraphBaseURL chỉ dùng để trỏ về server giả lập khi test.
func NewClient(cfg *config.Configuration) *Client {
	baseURL := cfg.MetaGraphBaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.MetaGraphVersion
	if version == "" {
		version = "v19.0"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
	}
}

// graphError là phần error trong response lỗi của Graph API
type graphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
}

type graphErrorResponse struct {
	Error *graphError `json:"error,omitempty"`
}

// mapGraphError chuyển lỗi Graph API về lỗi nội bộ.
// Code 10 là vi phạm chính sách cửa sổ 24 giờ, code 190 là token hỏng/hết hạn.
func mapGraphError(ge *graphError) error {
	switch ge.Code {
	case common.MessagingWindowViolationCode:
		return common.NewError(common.ErrCodeFbWindow, ge.Message, common.StatusForbidden, nil)
	case 190:
		return common.NewError(common.ErrCodeAuthToken, ge.Message, common.StatusUnauthorized, nil)
	default:
		return common.NewError(common.ErrCodeFbUpstream, ge.Message, common.StatusBadGateway, nil)
	}
}

// get gọi GET và decode JSON vào out, trả lỗi đã map nếu Graph trả error.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, strings.TrimLeft(path, "/"), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "không tạo được request Graph API", common.StatusInternalServerError, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "gọi Graph API thất bại", common.StatusBadGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "đọc response Graph API thất bại", common.StatusBadGateway, err)
	}

	if resp.StatusCode >= 400 {
		var errResp graphErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != nil {
			return mapGraphError(errResp.Error)
		}
		return common.NewError(common.ErrCodeFbUpstream,
			fmt.Sprintf("Graph API trả về HTTP %d", resp.StatusCode), common.StatusBadGateway, nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "Graph API trả về JSON không hợp lệ", common.StatusBadGateway, err)
	}
	return nil
}

// postJSON gọi POST với body JSON và decode response vào out.
func (c *Client) postJSON(ctx context.Context, path string, query url.Values, payload interface{}, out interface{}) error {
	reqURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, strings.TrimLeft(path, "/"), query.Encode())
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "không serialize được payload", common.StatusInternalServerError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "không tạo được request Graph API", common.StatusInternalServerError, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "gọi Graph API thất bại", common.StatusBadGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.NewError(common.ErrCodeFbUpstream, "đọc response Graph API thất bại", common.StatusBadGateway, err)
	}

	if resp.StatusCode >= 400 {
		var errResp graphErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != nil {
			logger.GetErrorLogger().WithFields(map[string]interface{}{
				"path":    path,
				"code":    errResp.Error.Code,
				"subcode": errResp.Error.ErrorSubcode,
			}).Warn("Graph API trả về lỗi")
			return mapGraphError(errResp.Error)
		}
		return common.NewError(common.ErrCodeFbUpstream,
			fmt.Sprintf("Graph API trả về HTTP %d", resp.StatusCode), common.StatusBadGateway, nil)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return common.NewError(common.ErrCodeFbUpstream, "Graph API trả về JSON không hợp lệ", common.StatusBadGateway, err)
		}
	}
	return nil
}
