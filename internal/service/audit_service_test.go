package service

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-core/internal/model"
	"market-core/internal/store"
)

func TestAuditService_Reconcile(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		for id := uint64(1); id <= 3; id++ {
			lot := &model.Lot{
				ID:      id,
				Token:   common.HexToAddress("0xaa"),
				TokenID: id,
				Owner:   common.HexToAddress("0x01"),
				Price:   decimal.NewFromInt(1),
				Status:  model.LotActive,
			}
			if err := tx.InsertLot(lot); err != nil {
				return err
			}
		}
		return tx.SetState(model.MarketState{LastLotID: 3, ActiveLotCount: 3})
	}))

	audit := NewAuditService(s, nil, "")
	report, err := audit.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, uint64(3), report.Actual)

	// 人为制造计数器偏差
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.SetState(model.MarketState{LastLotID: 3, ActiveLotCount: 2})
	}))
	report, err = audit.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, uint64(2), report.Counter)
	assert.Equal(t, uint64(3), report.Actual)
}

func TestAuditService_StartStop(t *testing.T) {
	audit := NewAuditService(store.NewMemoryStore(), nil, "@every 1h")
	require.NoError(t, audit.Start())
	audit.Stop()

	bad := NewAuditService(store.NewMemoryStore(), nil, "not a cron spec")
	assert.Error(t, bad.Start())
}
