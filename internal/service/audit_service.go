package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"market-core/internal/model"
	"market-core/internal/store"
	"market-core/pkg/logger"
	"market-core/pkg/monitor"
	"market-core/pkg/utils/lock"
)

const auditLockKey = "cron:lock:audit_active_lots"

// AuditReport 一次对账结果
type AuditReport struct {
	Counter   uint64 // market_state.active_lot_count
	Actual    uint64 // 状态为 Active 的拍品数
	LastLotID uint64
}

func (r AuditReport) Consistent() bool {
	return r.Counter == r.Actual
}

// AuditService 定时核对 activeLotCount 与拍品表是否一致
// 多实例部署时用分布式锁保证同一时刻只有一个实例执行
type AuditService struct {
	cron   *cron.Cron
	store  store.Store
	locker lock.DistributedLock
	spec   string
	log    *zap.Logger
}

// NewAuditService locker 可为空 (单实例)
func NewAuditService(s store.Store, locker lock.DistributedLock, spec string) *AuditService {
	if spec == "" {
		spec = "@every 5m"
	}
	return &AuditService{
		cron:   cron.New(),
		store:  s,
		locker: locker,
		spec:   spec,
		log:    logger.Named("audit"),
	}
}

func (s *AuditService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runScheduled); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Audit Service started", zap.String("spec", s.spec))
	return nil
}

// Stop 等待正在执行的任务结束
func (s *AuditService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Audit Service stopped")
}

func (s *AuditService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 1. 获取分布式锁，失败说明有其他节点在运行，跳过
	if s.locker != nil {
		token, ok, err := s.locker.Acquire(ctx, auditLockKey, 30*time.Second)
		if err != nil || !ok {
			s.log.Debug("audit: 获取锁失败或已有实例在运行", zap.Error(err))
			return
		}
		defer func() {
			if err := s.locker.Release(context.Background(), auditLockKey, token); err != nil {
				s.log.Warn("audit: 释放锁失败", zap.Error(err))
			}
		}()
	}

	// 2. 执行对账
	if _, err := s.Reconcile(ctx); err != nil {
		s.log.Error("audit: 对账失败", zap.Error(err))
	}
}

// Reconcile 只报告差异，不修正计数器
func (s *AuditService) Reconcile(ctx context.Context) (AuditReport, error) {
	var report AuditReport
	err := s.store.View(ctx, func(tx store.Tx) error {
		state, err := tx.State()
		if err != nil {
			return err
		}
		actual, err := tx.CountLots(model.LotActive)
		if err != nil {
			return err
		}
		report = AuditReport{Counter: state.ActiveLotCount, Actual: actual, LastLotID: state.LastLotID}
		return nil
	})
	if err != nil {
		return report, err
	}

	monitor.Business.SetActiveLots(report.Counter)
	if !report.Consistent() {
		monitor.Business.AuditMismatch()
		s.log.Error("active lot counter mismatch",
			zap.Uint64("counter", report.Counter),
			zap.Uint64("actual", report.Actual),
			zap.Uint64("last_lot_id", report.LastLotID))
	}
	return report, nil
}
