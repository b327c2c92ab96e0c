package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"market-core/internal/model"
)

// ContractCaller ethclient.Client 的子集，测试中可以替换
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Inspector 通过 eth_call 调用 supportsInterface(bytes4)
type Inspector struct {
	client ContractCaller
}

func NewInspector(client ContractCaller) *Inspector {
	return &Inspector{client: client}
}

// Dial 连接 RPC 节点
func Dial(ctx context.Context, rawurl string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("连接 RPC 节点失败: %w", err)
	}
	return client, nil
}

// SupportsInterface 合约不存在或 revert 时视为不支持
func (i *Inspector) SupportsInterface(ctx context.Context, token common.Address, interfaceID [4]byte) (bool, error) {
	data := make([]byte, 4+32)
	copy(data, model.InterfaceERC165[:]) // supportsInterface(bytes4) 的 selector 即 ERC-165 interface id
	copy(data[4:], interfaceID[:])       // bytes4 左对齐

	out, err := i.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return false, nil
	}
	if len(out) < 32 {
		return false, nil
	}
	return new(big.Int).SetBytes(out[:32]).Cmp(big.NewInt(1)) == 0, nil
}

// ChainID 读取节点的 chainId，用于签名域
func (i *Inspector) ChainID(ctx context.Context) (int64, error) {
	id, err := i.client.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	if !id.IsInt64() {
		return 0, fmt.Errorf("chain id %s out of range", id)
	}
	return id.Int64(), nil
}
