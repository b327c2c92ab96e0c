package safe_random

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
)

func TestGenerateRandomBytes(t *testing.T) {
	n := 32
	b, err := GenerateRandomBytes(n)
	if err != nil {
		t.Fatalf("GenerateRandomBytes 失败: %v", err)
	}
	if len(b) != n {
		t.Errorf("GenerateRandomBytes 返回了 %d 字节, 期望 %d", len(b), n)
	}

	// 简单的随机性检查（极不可能全为零）
	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("GenerateRandomBytes 返回了全零数据，可能未正确生成随机数")
	}
}

func TestGenerateRandomHexString(t *testing.T) {
	n := 16
	s, err := GenerateRandomHexString(n)
	if err != nil {
		t.Fatalf("GenerateRandomHexString 失败: %v", err)
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("解码 Hex 字符串失败: %v", err)
	}

	if len(decoded) != n {
		t.Errorf("GenerateRandomHexString 底层字节长度 = %d, 期望 %d", len(decoded), n)
	}
}

func TestGenerateRandomInt(t *testing.T) {
	max := big.NewInt(100)
	for i := 0; i < 100; i++ {
		n, err := GenerateRandomInt(max)
		if err != nil {
			t.Fatalf("GenerateRandomInt 失败: %v", err)
		}
		if n.Cmp(big.NewInt(0)) < 0 || n.Cmp(max) >= 0 {
			t.Errorf("GenerateRandomInt 返回值 %v 超出范围 [0, %v)", n, max)
		}
	}

	if _, err := GenerateRandomInt(big.NewInt(0)); err == nil {
		t.Error("max = 0 应该返回错误")
	}
}

func TestGenerateVoucherID(t *testing.T) {
	limit := uint64(1) << VoucherIDBits
	seen := make(map[uint64]struct{})
	for i := 0; i < 1000; i++ {
		id, err := GenerateVoucherID()
		if err != nil {
			t.Fatalf("GenerateVoucherID 失败: %v", err)
		}
		if id == 0 || id >= limit {
			t.Fatalf("voucherId %d 超出范围 [1, 2^48)", id)
		}
		seen[id] = struct{}{}
	}
	// 1000 个 48 位随机数出现碰撞的概率约为 1.8e-9
	if len(seen) != 1000 {
		t.Errorf("出现重复 voucherId: %d 个唯一值", len(seen))
	}
}

func TestGenerateVoucherID_FixedReader(t *testing.T) {
	orig := Reader
	defer func() { Reader = orig }()

	// 全 0 字节流 => rand.Int 返回 0 => voucherId 为 1
	Reader = bytes.NewReader(make([]byte, 64))
	id, err := GenerateVoucherID()
	if err != nil {
		t.Fatalf("GenerateVoucherID 失败: %v", err)
	}
	if id != 1 {
		t.Errorf("voucherId = %d, 期望 1", id)
	}
}
