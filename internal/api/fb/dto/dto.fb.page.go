package fbdto

// FbPageCreateInput dữ liệu đầu vào tạo trang Facebook
type FbPageCreateInput struct {
	PageId   string `json:"pageId" validate:"required,no_xss"`
	PageName string `json:"pageName" validate:"required,no_xss"`
	Category string `json:"category,omitempty" validate:"omitempty,no_xss"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url"`
	IsSync   bool   `json:"isSync"`
}

// FbPageUpdateInput dữ liệu đầu vào cập nhật trang Facebook
type FbPageUpdateInput struct {
	PageName string `json:"pageName,omitempty" validate:"omitempty,no_xss"`
	Category string `json:"category,omitempty" validate:"omitempty,no_xss"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url"`
	IsSync   *bool  `json:"isSync,omitempty"`
}

// FbPageUpdateTokenInput dữ liệu đầu vào cập nhật page access token.
// Token plaintext chỉ tồn tại trong request body, được mã hóa ngay khi nhận.
type FbPageUpdateTokenInput struct {
	PageId          string `json:"pageId" validate:"required"`
	PageAccessToken string `json:"pageAccessToken" validate:"required"`
	ScopeKey        string `json:"scopeKey,omitempty"`
}
