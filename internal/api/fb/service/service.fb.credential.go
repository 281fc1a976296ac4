package fbsvc

import (
	"context"
	"errors"

	basesvc "alpha_crm/internal/api/base/service"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
	"alpha_crm/internal/vault"

	"go.mongodb.org/mongo-driver/bson"
)

// FbCredentialService quản lý page access token đã mã hóa.
// Token chỉ đi qua service này ở dạng plaintext trong bộ nhớ:
// SetToken mã hóa trước khi ghi, GetToken giải mã sau khi đọc.
type FbCredentialService struct {
	*basesvc.BaseServiceMongoImpl[fbmodels.FbPageCredential]
	vault *vault.Vault
}

// NewFbCredentialService tạo FbCredentialService mới.
// Khóa mã hóa lấy từ cấu hình server (TOKEN_ENCRYPTION_KEY).
func NewFbCredentialService() (*FbCredentialService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.FbPageCredentials)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection fb_page_credentials", common.StatusInternalServerError, nil)
	}
	return &FbCredentialService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[fbmodels.FbPageCredential](collection),
		vault:                vault.NewVault(global.ServerConfig.TokenEncryptionKey),
	}, nil
}

// SetToken mã hóa và lưu token cho một trang (upsert theo pageId).
func (s *FbCredentialService) SetToken(ctx context.Context, pageId, scopeKey, plainToken string) error {
	encrypted, err := s.vault.Encrypt(plainToken)
	if err != nil {
		return err
	}

	update := &basesvc.UpdateData{
		Set: bson.M{
			"scopeKey": scopeKey,
			"token":    encrypted,
		},
	}
	_, err = s.Upsert(ctx, bson.M{"pageId": pageId}, update)
	return err
}

// GetToken đọc và giải mã token của một trang.
// Trả về common.ErrNotFound nếu trang chưa có credential,
// common.ErrDecryption nếu dữ liệu mã hóa hỏng (cần kết nối lại trang).
func (s *FbCredentialService) GetToken(ctx context.Context, pageId string) (string, error) {
	credential, err := s.FindOne(ctx, bson.M{"pageId": pageId}, nil)
	if err != nil {
		return "", err
	}
	return s.vault.Decrypt(&credential.Token)
}

// DeleteToken xóa credential của một trang (khi ngắt kết nối trang).
func (s *FbCredentialService) DeleteToken(ctx context.Context, pageId string) error {
	err := s.DeleteOne(ctx, bson.M{"pageId": pageId})
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}
