package fbhdl

import (
	"context"

	basehdl "alpha_crm/internal/api/base/handler"
	fbdto "alpha_crm/internal/api/fb/dto"
	fbmodels "alpha_crm/internal/api/fb/models"
	fbsvc "alpha_crm/internal/api/fb/service"
	"alpha_crm/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// FbPageHandler xử lý các route liên quan đến trang Facebook
type FbPageHandler struct {
	*basehdl.BaseHandler[fbmodels.FbPage, fbdto.FbPageCreateInput, fbdto.FbPageUpdateInput]
	FbPageService *fbsvc.FbPageService
	credentials   *fbsvc.FbCredentialService
	tokens        *fbsvc.FbTokenService
	audits        *fbsvc.AuditLogService
}

// NewFbPageHandler tạo FbPageHandler mới
func NewFbPageHandler(tokens *fbsvc.FbTokenService, credentials *fbsvc.FbCredentialService, audits *fbsvc.AuditLogService) (*FbPageHandler, error) {
	service, err := fbsvc.NewFbPageService()
	if err != nil {
		return nil, err
	}
	hdl := &FbPageHandler{
		FbPageService: service,
		credentials:   credentials,
		tokens:        tokens,
		audits:        audits,
	}
	hdl.BaseHandler = basehdl.NewBaseHandler[fbmodels.FbPage, fbdto.FbPageCreateInput, fbdto.FbPageUpdateInput](service.BaseServiceMongoImpl)
	hdl.Title = "FbPage"
	return hdl, nil
}

// HandleListPages trả về danh sách trang cho dashboard (GET /api/pages).
// Response là mảng trang thuần, không bọc envelope — đây là contract
// của dashboard, khác với các route CRUD /api/v1.
func (h *FbPageHandler) HandleListPages(c fiber.Ctx) error {
	pages, err := h.FbPageService.FindAll(context.Background())
	if err != nil {
		return writeDashboardError(c, err)
	}
	if pages == nil {
		pages = []fbmodels.FbPage{}
	}
	return basehdl.JSONResponse(c, fiber.StatusOK, pages)
}

// HandleFindOneByPageID tìm một trang theo pageId (route /api/v1)
func (h *FbPageHandler) HandleFindOneByPageID(c fiber.Ctx) error {
	pageId := c.Params("id")
	page, err := h.FbPageService.FindOneByPageID(context.Background(), pageId)
	h.HandleResponse(c, page, err)
	return nil
}

// HandleUpdateToken cập nhật page access token (route /api/v1).
// Token được mã hóa trước khi lưu; cache token bị invalidate để token mới
// có hiệu lực ngay; thao tác được ghi audit best-effort.
func (h *FbPageHandler) HandleUpdateToken(c fiber.Ctx) error {
	var input fbdto.FbPageUpdateTokenInput
	if err := h.ParseRequestBody(c, &input); err != nil {
		h.HandleResponse(c, nil, err)
		return nil
	}
	if err := h.ValidateInput(input); err != nil {
		h.HandleResponse(c, nil, err)
		return nil
	}

	ctx := context.Background()
	if err := h.credentials.SetToken(ctx, input.PageId, input.ScopeKey, input.PageAccessToken); err != nil {
		h.HandleResponse(c, nil, err)
		return nil
	}
	h.tokens.InvalidateToken(ctx, input.ScopeKey, input.PageId)

	userId, _ := c.Locals("userID").(string)
	if err := h.audits.LogTokenChange(ctx, userId, input.PageId); err != nil {
		logger.GetAppLogger().WithError(err).Warn("Ghi audit đổi token thất bại")
	}
	logger.LogCRUD("update", "fb_page_credential", input.PageId, c, map[string]interface{}{
		"scopeKey": input.ScopeKey,
	})

	h.HandleResponse(c, fiber.Map{"pageId": input.PageId}, nil)
	return nil
}
