package safe_random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
)

// VoucherIDBits voucherId 的取值范围为 [1, 2^48)
const VoucherIDBits = 48

// Reader 是一个全局共享的加密安全随机数生成器实例。
// 默认为 crypto/rand.Reader，测试中可以替换。
var Reader io.Reader = rand.Reader

// GenerateRandomBytes 生成指定长度的安全随机字节切片。
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	// 注意：只有读取了 len(b) 个字节，err 才为 nil。
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}

// GenerateRandomHexString 生成 n 字节随机数的 Hex 编码 (长度为 2n)，用作锁的持有者标识。
func GenerateRandomHexString(n int) (string, error) {
	b, err := GenerateRandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandomInt 生成一个 [0, max) 范围内的均匀随机值。
func GenerateRandomInt(max *big.Int) (*big.Int, error) {
	if max == nil || max.Sign() <= 0 {
		return nil, fmt.Errorf("最大值必须为正数")
	}
	return rand.Int(Reader, max)
}

// GenerateVoucherID 生成 voucherId
// 0 保留给 "未指定"，因此在 [1, 2^48) 中均匀取值
func GenerateVoucherID() (uint64, error) {
	max := new(big.Int).Lsh(big.NewInt(1), VoucherIDBits)
	max.Sub(max, big.NewInt(1))
	n, err := GenerateRandomInt(max)
	if err != nil {
		return 0, err
	}
	return n.Uint64() + 1, nil
}
