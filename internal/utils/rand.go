package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// RandString 生成长度为 n 字节的随机字节，并以 base64url 编码为 URL 安全的字符串（无填充）。
func RandString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// 使用不带填充的 Base64 URL 编码
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashKey 对任意字符串求 SHA-256 摘要的十六进制表示，用于构造稳定的缓存键。
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
