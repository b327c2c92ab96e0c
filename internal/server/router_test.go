package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-core/internal/handler"
	"market-core/internal/ledger"
	"market-core/internal/model"
	"market-core/internal/service/access"
	"market-core/internal/service/fee"
	"market-core/internal/service/market"
	"market-core/internal/store"
	"market-core/pkg/eip712"
	"market-core/pkg/errno"
	"market-core/pkg/validator"
)

var (
	self     = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	owner    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	creator  = common.HexToAddress("0x1000000000000000000000000000000000000002")
	seller   = common.HexToAddress("0x1000000000000000000000000000000000000003")
	buyer    = common.HexToAddress("0x1000000000000000000000000000000000000004")
	platform = common.HexToAddress("0x1000000000000000000000000000000000000005")
	nft      = common.HexToAddress("0x2000000000000000000000000000000000000721")
)

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	ledger *ledger.Ledger
	minter *eip712.LazyMinter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Init()

	l := ledger.New(self)
	l.RegisterCollection(nft, ledger.KindERC721, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	domain := eip712.Domain{Name: "LazyMint-Voucher", Version: "1", ChainID: 31337, VerifyingContract: self}
	minter := eip712.NewLazyMinter(domain, key)

	guard, err := access.New(owner, []common.Address{creator}, []common.Address{minter.Address()})
	require.NoError(t, err)
	fees, err := fee.NewDistributor(platform, 2000, false)
	require.NoError(t, err)

	engine, err := market.New(market.Options{
		Self:       self,
		Store:      store.NewMemoryStore(),
		Guard:      guard,
		Fees:       fees,
		Custody:    l,
		Minting:    l,
		Settlement: l,
		Verifier:   eip712.NewVerifier(domain),
		Inspector:  l,
	})
	require.NoError(t, err)

	return &testServer{router: NewHTTPRouter(engine), ledger: l, minter: minter}
}

func (s *testServer) do(t *testing.T, method, path string, caller *common.Address, body interface{}) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req.Header.Set(handler.CallerHeader, caller.Hex())
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "HTTP 状态码异常: %s", w.Body.String())

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func addr(a common.Address) *common.Address {
	return &a
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, errno.OK.Code, resp.Code)
	assert.Contains(t, string(resp.Data), "UP")
}

func TestLotLifecycle(t *testing.T) {
	s := newTestServer(t)
	tokenID, err := s.ledger.Issue(seller, nft, 1)
	require.NoError(t, err)

	createBody := gin.H{"token": nft.Hex(), "token_id": tokenID, "owner": seller.Hex(), "price": "1000"}

	// 1. 缺少调用方地址
	resp := s.do(t, http.MethodPost, "/api/v1/lots", nil, createBody)
	assert.Equal(t, errno.ErrBind.Code, resp.Code)

	// 2. 非 allowed caller
	resp = s.do(t, http.MethodPost, "/api/v1/lots", addr(buyer), createBody)
	assert.Equal(t, errno.ErrOnlyAllowedCaller.Code, resp.Code)

	// 3. 正常上架
	resp = s.do(t, http.MethodPost, "/api/v1/lots", addr(creator), createBody)
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	var created struct {
		LotID uint64 `json:"lot_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, uint64(1), created.LotID)

	// 4. 查询
	resp = s.do(t, http.MethodGet, "/api/v1/lots/1", nil, nil)
	var lot model.Lot
	require.NoError(t, json.Unmarshal(resp.Data, &lot))
	assert.Equal(t, model.LotActive, lot.Status)
	assert.True(t, lot.Price.Equal(decimal.NewFromInt(1000)))

	resp = s.do(t, http.MethodGet, "/api/v1/active_lots?start=0&count=3", nil, nil)
	var page struct {
		Lots []model.Lot `json:"lots"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.Len(t, page.Lots, 3, "返回长度应等于 count")
	assert.Equal(t, uint64(1), page.Lots[0].ID)
	assert.False(t, page.Lots[1].Exists())

	// 5. 付款不足
	s.ledger.Deposit(buyer, decimal.NewFromInt(1000))
	resp = s.do(t, http.MethodPost, "/api/v1/lots/1/buy", addr(buyer), gin.H{"payment": "999"})
	assert.Equal(t, errno.ErrInvalidValue.Code, resp.Code)

	// 6. 购买成功
	resp = s.do(t, http.MethodPost, "/api/v1/lots/1/buy", addr(buyer), gin.H{"payment": "1000"})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	assert.True(t, s.ledger.Funds(seller).Equal(decimal.NewFromInt(800)))

	// 7. 已售出的拍品不能取消
	resp = s.do(t, http.MethodPost, "/api/v1/lots/1/cancel", addr(owner), nil)
	assert.Equal(t, errno.ErrInvalidLotStatus.Code, resp.Code)
	assert.Equal(t, "InvalidLotStatus(2)", resp.Msg)

	resp = s.do(t, http.MethodGet, "/api/v1/market", nil, nil)
	var state struct {
		LastLotID      uint64 `json:"last_lot_id"`
		ActiveLotCount uint64 `json:"active_lot_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &state))
	assert.Equal(t, uint64(1), state.LastLotID)
	assert.Equal(t, uint64(0), state.ActiveLotCount)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"decimal price", http.MethodPost, "/api/v1/lots", gin.H{"token": nft.Hex(), "owner": seller.Hex(), "price": "1.5"}},
		{"bad token", http.MethodPost, "/api/v1/lots", gin.H{"token": "0x12", "owner": seller.Hex(), "price": "1"}},
		{"bad lot id", http.MethodPost, "/api/v1/lots/abc/buy", gin.H{"payment": "1"}},
		{"count too large", http.MethodGet, "/api/v1/active_lots?count=1001", nil},
		{"bad cancel recipient", http.MethodPost, "/api/v1/lots/1/cancel", gin.H{"to": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, tt.method, tt.path, addr(creator), tt.body)
			assert.Equal(t, errno.ErrBind.Code, resp.Code, resp.Msg)
		})
	}
}

func TestCancelLot_ChunkedBody(t *testing.T) {
	s := newTestServer(t)
	recipient := common.HexToAddress("0x1000000000000000000000000000000000000006")

	list := func() uint64 {
		tokenID, err := s.ledger.Issue(seller, nft, 1)
		require.NoError(t, err)
		resp := s.do(t, http.MethodPost, "/api/v1/lots", addr(creator),
			gin.H{"token": nft.Hex(), "token_id": tokenID, "owner": seller.Hex(), "price": "1000"})
		require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
		return tokenID
	}
	cancel := func(path, body string) apiResponse {
		// MultiReader 隐藏长度，请求以 chunked 方式发送
		req := httptest.NewRequest(http.MethodPost, path, io.MultiReader(strings.NewReader(body)))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(handler.CallerHeader, owner.Hex())

		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var resp apiResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	// 1. chunked body 中的 to 生效
	tokenID := list()
	resp := cancel("/api/v1/lots/1/cancel", `{"to":"`+recipient.Hex()+`"}`)
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	holder, err := s.ledger.OwnerOf(context.Background(), nft, tokenID)
	require.NoError(t, err)
	assert.Equal(t, recipient, holder, "资产应退还给 body 指定的 to")

	// 2. 空 body 退还给拍品 owner
	tokenID = list()
	resp = cancel("/api/v1/lots/2/cancel", "")
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	holder, err = s.ledger.OwnerOf(context.Background(), nft, tokenID)
	require.NoError(t, err)
	assert.Equal(t, seller, holder)

	// 3. chunked body 中的非法 to 仍然被拒绝
	list()
	resp = cancel("/api/v1/lots/3/cancel", `{"to":"nope"}`)
	assert.Equal(t, errno.ErrBind.Code, resp.Code)
}

func TestBatchCreateWrongArrayLength(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/v1/batch/lots", addr(creator), gin.H{
		"tokens":       []string{nft.Hex(), nft.Hex()},
		"token_ids":    []uint64{1},
		"owners":       []string{seller.Hex(), seller.Hex()},
		"prices":       []string{"1", "2"},
		"is_multiples": []bool{false, false},
		"amounts":      []uint64{0, 0},
	})
	assert.Equal(t, errno.ErrWrongArrayLength.Code, resp.Code)
}

func TestBuyWithMint(t *testing.T) {
	s := newTestServer(t)
	v, err := s.minter.CreateVoucher(eip712.VoucherParams{
		Token:  nft,
		Price:  decimal.NewFromInt(500),
		Amount: 1,
		URI:    "ipfs://token",
	})
	require.NoError(t, err)
	s.ledger.Deposit(buyer, decimal.NewFromInt(500))

	body := gin.H{"to": buyer.Hex(), "voucher": v, "payment": "500"}
	resp := s.do(t, http.MethodPost, "/api/v1/vouchers/redeem", addr(buyer), body)
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	var minted struct {
		TokenID uint64 `json:"token_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &minted))
	assert.Equal(t, uint64(1), minted.TokenID)
	assert.True(t, s.ledger.Funds(platform).Equal(decimal.NewFromInt(500)), "未提供分账方案时全部归平台")

	owned, err := s.ledger.OwnerOf(context.Background(), nft, minted.TokenID)
	require.NoError(t, err)
	assert.Equal(t, buyer, owned)

	// 同一张 voucher 不能重复使用
	s.ledger.Deposit(buyer, decimal.NewFromInt(500))
	resp = s.do(t, http.MethodPost, "/api/v1/vouchers/redeem", addr(buyer), body)
	assert.Equal(t, errno.ErrVoucherAlreadyUsed.Code, resp.Code)

	resp = s.do(t, http.MethodGet, "/api/v1/vouchers/"+jsonUint(v.VoucherID)+"/used", nil, nil)
	assert.Contains(t, string(resp.Data), `"used":true`)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/v1/admin/pause", addr(creator), nil)
	assert.Equal(t, errno.ErrOnlyOwner.Code, resp.Code)

	resp = s.do(t, http.MethodPost, "/api/v1/admin/pause", addr(owner), nil)
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	resp = s.do(t, http.MethodPost, "/api/v1/admin/pause", addr(owner), nil)
	assert.Equal(t, errno.ErrAlreadySet.Code, resp.Code)

	resp = s.do(t, http.MethodPut, "/api/v1/admin/platform_fee", addr(owner), gin.H{"bps": 10001})
	assert.Equal(t, errno.ErrInvalidFees.Code, resp.Code)
	resp = s.do(t, http.MethodPut, "/api/v1/admin/platform_fee", addr(owner), gin.H{"bps": 0})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)

	resp = s.do(t, http.MethodPost, "/api/v1/admin/minters", addr(owner), gin.H{"account": buyer.Hex()})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	resp = s.do(t, http.MethodGet, "/api/v1/roles/"+buyer.Hex(), nil, nil)
	assert.Contains(t, string(resp.Data), `"is_minter":true`)

	resp = s.do(t, http.MethodDelete, "/api/v1/admin/minters/"+buyer.Hex(), addr(owner), nil)
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)

	resp = s.do(t, http.MethodPut, "/api/v1/admin/recipient", addr(owner), gin.H{"account": common.Address{}.Hex()})
	assert.Equal(t, errno.ErrZeroAddress.Code, resp.Code)

	resp = s.do(t, http.MethodGet, "/api/v1/market", nil, nil)
	assert.Contains(t, string(resp.Data), `"paused":true`)
	assert.Contains(t, string(resp.Data), `"platform_fee_bps":0`)
}

func jsonUint(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
