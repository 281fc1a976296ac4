// Package vault mã hóa và giải mã page access token trước khi lưu xuống database.
// Token không bao giờ nằm plaintext trong MongoDB; chỉ bộ ba cipher/iv/authTag được lưu.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"alpha_crm/internal/common"
)

// EncryptedToken là kết quả mã hóa một token, cả 3 phần đều base64
type EncryptedToken struct {
	Cipher  string `json:"cipher" bson:"cipher"`   // Ciphertext (không kèm auth tag)
	IV      string `json:"iv" bson:"iv"`           // Nonce 12 bytes của GCM
	AuthTag string `json:"authTag" bson:"authTag"` // Auth tag 16 bytes của GCM
}

// Vault giữ khóa mã hóa đã chuẩn hóa về 32 bytes (AES-256)
type Vault struct {
	key []byte
}

// NewVault tạo vault từ khóa cấu hình.
// Khóa ngắn hơn 32 bytes được pad bằng 0, dài hơn thì cắt bớt.
func NewVault(secret string) *Vault {
	key := make([]byte, 32)
	copy(key, []byte(secret))
	return &Vault{key: key}
}

// Encrypt mã hóa token plaintext thành bộ ba cipher/iv/authTag
func (v *Vault) Encrypt(plaintext string) (*EncryptedToken, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// Tạo nonce (12 bytes cho GCM)
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal trả về ciphertext || authTag; tách tag ra lưu riêng
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	tagSize := gcm.Overhead()
	ciphertext, authTag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return &EncryptedToken{
		Cipher:  base64.StdEncoding.EncodeToString(ciphertext),
		IV:      base64.StdEncoding.EncodeToString(nonce),
		AuthTag: base64.StdEncoding.EncodeToString(authTag),
	}, nil
}

// Decrypt giải mã bộ ba cipher/iv/authTag về token plaintext.
// Thiếu authTag hoặc tag không khớp đều trả về ErrDecryption —
// caller phải coi như credential hỏng và yêu cầu re-auth.
func (v *Vault) Decrypt(enc *EncryptedToken) (string, error) {
	if enc == nil || enc.Cipher == "" || enc.IV == "" || enc.AuthTag == "" {
		return "", common.ErrDecryption
	}

	ciphertext, err := base64.StdEncoding.DecodeString(enc.Cipher)
	if err != nil {
		return "", common.ErrDecryption
	}
	nonce, err := base64.StdEncoding.DecodeString(enc.IV)
	if err != nil {
		return "", common.ErrDecryption
	}
	authTag, err := base64.StdEncoding.DecodeString(enc.AuthTag)
	if err != nil {
		return "", common.ErrDecryption
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(nonce) != gcm.NonceSize() || len(authTag) != gcm.Overhead() {
		return "", common.ErrDecryption
	}

	// Ghép lại ciphertext || authTag cho gcm.Open
	sealed := append(ciphertext, authTag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", common.ErrDecryption
	}

	return string(plaintext), nil
}
