/*
 * @module service/utils/crypto_utils_test
 * @description 加密工具测试
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 明文 -> 加密 -> 解密 -> 断言一致
 * @rules 不依赖外部服务
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs crypto_utils.go
 */

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cu := NewCryptoUtils("test-key")

	ciphertext, err := cu.Encrypt("db-password-2024")
	require.NoError(t, err)
	assert.NotEqual(t, "db-password-2024", ciphertext)

	plaintext, err := cu.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "db-password-2024", plaintext)
}

func TestDecryptWithWrongKey(t *testing.T) {
	ciphertext, err := NewCryptoUtils("key-a").Encrypt("secret")
	require.NoError(t, err)

	_, err = NewCryptoUtils("key-b").Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestDecryptInvalidInput(t *testing.T) {
	cu := NewCryptoUtils("")
	_, err := cu.Decrypt("not-base64!!!")
	assert.Error(t, err)
	_, err = cu.Decrypt("AAAA")
	assert.Error(t, err)
}
