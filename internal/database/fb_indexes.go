// Package database - Index cho các collection inbox Facebook (compound, unique, TTL).
package database

import (
	"context"
	"strings"
	"time"

	"alpha_crm/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateFbIndexes tạo các index cho các collection inbox Facebook.
// Gọi một lần khi khởi động server, sau khi đăng ký collections.
func CreateFbIndexes(ctx context.Context, db *mongo.Database) error {
	// fb_conversations: (pageId, psid) unique — danh tính hội thoại
	fbConversations := db.Collection(global.MongoDB_ColNames.FbConversations)
	if _, err := fbConversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "pageId", Value: 1},
			{Key: "psid", Value: 1},
		},
		Options: options.Index().SetName("fb_conversation_page_psid").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// fb_conversations: (pageId, updatedTime desc) — list hội thoại theo trang
	if _, err := fbConversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "pageId", Value: 1},
			{Key: "updatedTime", Value: -1},
		},
		Options: options.Index().SetName("fb_conversation_page_updated"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// fb_message_items: (conversationId, messageId) unique — dedup theo mid
	fbMessageItems := db.Collection(global.MongoDB_ColNames.FbMessageItems)
	if _, err := fbMessageItems.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversationId", Value: 1},
			{Key: "messageId", Value: 1},
		},
		Options: options.Index().SetName("fb_message_conv_mid").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// fb_message_items: (conversationId, at) — đọc tin nhắn theo thứ tự thời gian
	// at là timestamp ISO-8601 UTC nên sort lexicographic trùng với sort thời gian
	if _, err := fbMessageItems.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversationId", Value: 1},
			{Key: "at", Value: 1},
		},
		Options: options.Index().SetName("fb_message_conv_time"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// fb_page_credentials: pageId unique — mỗi trang một credential
	fbPageCredentials := db.Collection(global.MongoDB_ColNames.FbPageCredentials)
	if _, err := fbPageCredentials.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pageId", Value: 1}},
		Options: options.Index().SetName("fb_credential_page").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// fb_pages: pageId unique
	fbPages := db.Collection(global.MongoDB_ColNames.FbPages)
	if _, err := fbPages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pageId", Value: 1}},
		Options: options.Index().SetName("fb_page_id").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// webhook_events: eventId unique — idempotency cho webhook
	webhookEvents := db.Collection(global.MongoDB_ColNames.WebhookEvents)
	if _, err := webhookEvents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "eventId", Value: 1}},
		Options: options.Index().SetName("webhook_event_id").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// webhook_events: TTL 7 ngày — bảng idempotency không phình vô hạn
	if _, err := webhookEvents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "receivedAt", Value: 1}},
		Options: options.Index().SetName("webhook_event_ttl").
			SetExpireAfterSeconds(int32((7 * 24 * time.Hour).Seconds())),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// contact_candidates: (conversationId, phone) unique — mỗi số một candidate per hội thoại
	contactCandidates := db.Collection(global.MongoDB_ColNames.ContactCandidates)
	if _, err := contactCandidates.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversationId", Value: 1},
			{Key: "phone", Value: 1},
		},
		Options: options.Index().SetName("contact_candidate_conv_phone").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
