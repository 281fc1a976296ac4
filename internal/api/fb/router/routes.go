// Package router đăng ký các route thuộc domain Facebook inbox:
// Page, Conversation, MessageItem, gửi tin, đồng bộ và contact candidate.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"alpha_crm/internal/api/fb/graph"
	fbhdl "alpha_crm/internal/api/fb/handler"
	fbsvc "alpha_crm/internal/api/fb/service"
	"alpha_crm/internal/api/middleware"
	apirouter "alpha_crm/internal/api/router"
	"alpha_crm/internal/global"
)

// Register đăng ký tất cả route Facebook inbox.
// Các route dashboard (contract shape thuần) nằm dưới /api,
// các route CRUD quản trị nằm dưới /api/v1. Tất cả sau Firebase auth.
func Register(base fiber.Router, v1 fiber.Router, r *apirouter.Router) error {
	// Service graph của domain: dựng một lần, chia sẻ giữa các handler
	graphClient := graph.NewClient(global.ServerConfig)

	pageService, err := fbsvc.NewFbPageService()
	if err != nil {
		return fmt.Errorf("create facebook page service: %w", err)
	}
	credentialService, err := fbsvc.NewFbCredentialService()
	if err != nil {
		return fmt.Errorf("create facebook credential service: %w", err)
	}
	tokenService := fbsvc.NewFbTokenService(fbsvc.NewTokenCacheFromConfig(), credentialService)

	conversationService, err := fbsvc.NewFbConversationService()
	if err != nil {
		return fmt.Errorf("create facebook conversation service: %w", err)
	}
	messageService, err := fbsvc.NewFbMessageItemService()
	if err != nil {
		return fmt.Errorf("create facebook message item service: %w", err)
	}
	auditService, err := fbsvc.NewAuditLogService()
	if err != nil {
		return fmt.Errorf("create audit log service: %w", err)
	}
	contactService, err := fbsvc.NewContactExtractorService(conversationService, messageService)
	if err != nil {
		return fmt.Errorf("create contact extractor service: %w", err)
	}

	sendService := fbsvc.NewFbSendService(graphClient, tokenService, pageService, conversationService, messageService, auditService)
	syncService := fbsvc.NewFbSyncService(graphClient, pageService, tokenService, conversationService, messageService, contactService)

	auth := middleware.AuthMiddleware()
	authOnly := []fiber.Handler{auth}

	// Route dashboard dưới /api
	pageHandler, err := fbhdl.NewFbPageHandler(tokenService, credentialService, auditService)
	if err != nil {
		return fmt.Errorf("create facebook page handler: %w", err)
	}
	inboxHandler, err := fbhdl.NewFbInboxHandler(sendService, syncService)
	if err != nil {
		return fmt.Errorf("create inbox handler: %w", err)
	}
	contactHandler := fbhdl.NewFbContactHandler(contactService)

	apirouter.RegisterRouteWithMiddleware(base, "/pages", "GET", "/", authOnly, pageHandler.HandleListPages)
	apirouter.RegisterRouteWithMiddleware(base, "/messages", "GET", "/", authOnly, inboxHandler.HandleListConversations)
	apirouter.RegisterRouteWithMiddleware(base, "/conversation", "GET", "/:id/messages", authOnly, inboxHandler.HandleConversationMessages)
	apirouter.RegisterRouteWithMiddleware(base, "/conversations", "GET", "/:id", authOnly, inboxHandler.HandleGetConversation)
	apirouter.RegisterRouteWithMiddleware(base, "/conversations", "POST", "/:id/read", authOnly, inboxHandler.HandleMarkRead)
	apirouter.RegisterRouteWithMiddleware(base, "/inbox", "POST", "/send", authOnly, inboxHandler.HandleSend)
	apirouter.RegisterRouteWithMiddleware(base, "/inbox", "POST", "/sync", authOnly, inboxHandler.HandleSyncInbox)
	apirouter.RegisterRouteWithMiddleware(base, "/contacts", "POST", "/rescan", authOnly, contactHandler.HandleRescan)
	apirouter.RegisterRouteWithMiddleware(base, "/contacts", "GET", "/", authOnly, contactHandler.HandleListContacts)
	apirouter.RegisterRouteWithMiddleware(base, "/contacts", "POST", "/:id/convert", authOnly, contactHandler.HandleMarkConverted)

	// Route CRUD quản trị dưới /api/v1
	apirouter.RegisterRouteWithMiddleware(v1, "/facebook/page", "GET", "/find-by-page-id/:id", authOnly, pageHandler.HandleFindOneByPageID)
	apirouter.RegisterRouteWithMiddleware(v1, "/facebook/page", "PUT", "/update-token", authOnly, pageHandler.HandleUpdateToken)
	r.RegisterCRUDRoutes(v1, "/facebook/page", pageHandler, apirouter.ReadWriteConfig, authOnly)

	return nil
}
