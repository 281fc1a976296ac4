// Package vault - Test mã hóa/giải mã token với AES-256-GCM.
package vault

import (
	"errors"
	"testing"

	"alpha_crm/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v := NewVault("test-secret-key")

	token := "EAAG-page-access-token-0123456789"
	enc, err := v.Encrypt(token)
	if err != nil {
		t.Fatalf("Encrypt trả về lỗi: %v", err)
	}
	if enc.Cipher == "" || enc.IV == "" || enc.AuthTag == "" {
		t.Fatalf("Encrypt thiếu thành phần: %+v", enc)
	}

	got, err := v.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt trả về lỗi: %v", err)
	}
	if got != token {
		t.Errorf("Decrypt trả về %q, muốn %q", got, token)
	}
}

func TestEncrypt_NonceKhacNhauMoiLan(t *testing.T) {
	v := NewVault("test-secret-key")

	enc1, _ := v.Encrypt("same-token")
	enc2, _ := v.Encrypt("same-token")
	if enc1.IV == enc2.IV {
		t.Error("Hai lần Encrypt cùng plaintext không được dùng chung nonce")
	}
	if enc1.Cipher == enc2.Cipher {
		t.Error("Hai lần Encrypt cùng plaintext không được ra cùng ciphertext")
	}
}

func TestDecrypt_ThieuAuthTag(t *testing.T) {
	v := NewVault("test-secret-key")

	enc, err := v.Encrypt("token-can-bao-ve")
	if err != nil {
		t.Fatalf("Encrypt trả về lỗi: %v", err)
	}

	enc.AuthTag = ""
	_, err = v.Decrypt(enc)
	if !errors.Is(err, common.ErrDecryption) {
		t.Errorf("Thiếu authTag phải trả về ErrDecryption, nhận: %v", err)
	}
}

func TestDecrypt_AuthTagSai(t *testing.T) {
	v := NewVault("test-secret-key")

	enc, err := v.Encrypt("token-can-bao-ve")
	if err != nil {
		t.Fatalf("Encrypt trả về lỗi: %v", err)
	}

	// Tráo authTag của một bản mã khác
	other, _ := v.Encrypt("token-khac")
	enc.AuthTag = other.AuthTag

	_, err = v.Decrypt(enc)
	if !errors.Is(err, common.ErrDecryption) {
		t.Errorf("AuthTag sai phải trả về ErrDecryption, nhận: %v", err)
	}
}

func TestDecrypt_KhacKey(t *testing.T) {
	v1 := NewVault("key-mot")
	v2 := NewVault("key-hai")

	enc, _ := v1.Encrypt("token")
	_, err := v2.Decrypt(enc)
	if !errors.Is(err, common.ErrDecryption) {
		t.Errorf("Giải mã bằng key khác phải trả về ErrDecryption, nhận: %v", err)
	}
}

func TestNewVault_KeyDaiHon32Bytes(t *testing.T) {
	// Key dài hơn 32 bytes bị cắt, vẫn round-trip được
	long := "0123456789abcdef0123456789abcdef-phan-du-bi-cat"
	v := NewVault(long)

	enc, err := v.Encrypt("token")
	if err != nil {
		t.Fatalf("Encrypt với key dài trả về lỗi: %v", err)
	}
	got, err := v.Decrypt(enc)
	if err != nil || got != "token" {
		t.Errorf("Round-trip với key dài thất bại: got=%q err=%v", got, err)
	}
}

func TestDecrypt_Nil(t *testing.T) {
	v := NewVault("test-secret-key")
	_, err := v.Decrypt(nil)
	if !errors.Is(err, common.ErrDecryption) {
		t.Errorf("Decrypt(nil) phải trả về ErrDecryption, nhận: %v", err)
	}
}
