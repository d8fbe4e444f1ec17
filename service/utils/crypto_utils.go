/*
 * @module service/utils/crypto_utils
 * @description 加密工具模块，负责数据源连接密码等敏感配置的加解密
 * @architecture 加密工具集模式
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 明文 -> AES-GCM加密 -> base64密文存储 / 密文 -> 解密 -> 运行期使用
 * @rules 密钥从环境变量派生，密文不可逆推密钥；加密算法使用业界标准
 * @dependencies crypto/aes, crypto/cipher, crypto/sha256
 * @refs service/datasource, service/models/validation.go
 */

package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// CryptoUtils 加密工具
type CryptoUtils struct {
	key []byte
}

// NewCryptoUtils 创建加密工具实例，密钥经SHA-256派生为32字节（AES-256）
func NewCryptoUtils(key string) *CryptoUtils {
	if key == "" {
		key = "dataquality-default-key-32-chars"
	}
	sum := sha256.Sum256([]byte(key))
	return &CryptoUtils{key: sum[:]}
}

// Encrypt AES-GCM加密，返回base64编码的 nonce+密文
func (cu *CryptoUtils) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(cu.key)
	if err != nil {
		return "", fmt.Errorf("创建加密块失败: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("创建GCM模式失败: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("生成随机数失败: %w", err)
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 解密base64编码的 nonce+密文
func (cu *CryptoUtils) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64解码失败: %w", err)
	}
	block, err := aes.NewCipher(cu.key)
	if err != nil {
		return "", fmt.Errorf("创建加密块失败: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("创建GCM模式失败: %w", err)
	}
	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("密文长度非法")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("解密失败: %w", err)
	}
	return string(plaintext), nil
}
