package fbmodels

import "go.mongodb.org/mongo-driver/bson/primitive"

// FbPage lưu thông tin trang Facebook được đồng bộ vào hệ thống.
// PageId là định danh duy nhất của trang trên Meta, dùng làm khóa nghiệp vụ
// cho mọi thao tác inbox (webhook, token, gửi tin).
type FbPage struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PageId     string             `json:"pageId" bson:"pageId" validate:"required"`     // ID trang trên Meta
	PageName   string             `json:"pageName" bson:"pageName"`                     // Tên hiển thị của trang
	Category   string             `json:"category,omitempty" bson:"category,omitempty"` // Danh mục trang (nếu Graph trả về)
	Avatar     string             `json:"avatar,omitempty" bson:"avatar,omitempty"`     // URL ảnh đại diện trang
	IsSync     bool               `json:"isSync" bson:"isSync"`                         // Trang có đang được đồng bộ inbox không
	CreatedAt  int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt  int64              `json:"updatedAt" bson:"updatedAt"`
}
