package market

import (
	"context"

	"go.uber.org/zap"

	"market-core/internal/event"
	"market-core/internal/model"
	"market-core/internal/store"
)

// compensation 撤销一次已生效的协作方调用
type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

// unit 一次状态变更操作 (store 事务 + 协作方调用的补偿日志)
type unit struct {
	tx      store.Tx
	journal []compensation
	after   []func()
}

type unitKey struct{}

func withUnit(ctx context.Context, u *unit) context.Context {
	return context.WithValue(ctx, unitKey{}, u)
}

func unitFrom(ctx context.Context) (*unit, bool) {
	u, ok := ctx.Value(unitKey{}).(*unit)
	return u, ok
}

// undo 登记补偿动作，操作失败时逆序执行
func (u *unit) undo(name string, fn func(ctx context.Context) error) {
	u.journal = append(u.journal, compensation{name: name, fn: fn})
}

// onCommit 事务提交后执行 (指标 / 缓存 / 日志)
func (u *unit) onCommit(fn func()) {
	u.after = append(u.after, fn)
}

// emit 事件写入 Outbox，与业务数据同一事务
func (u *unit) emit(ev event.Event) error {
	msg, err := model.NewOutboxMessage(ev.Topic(), ev.Key(), ev)
	if err != nil {
		return err
	}
	return u.tx.AppendOutbox(&msg)
}

func (u *unit) compensate(ctx context.Context, log *zap.Logger, op string) {
	for i := len(u.journal) - 1; i >= 0; i-- {
		c := u.journal[i]
		if err := c.fn(ctx); err != nil {
			// 补偿失败只能人工处理
			log.Error("compensation failed",
				zap.String("op", op),
				zap.String("step", c.name),
				zap.Error(err))
		}
	}
	u.journal = nil
}

// mergeInto 嵌套操作成功后并入外层，外层失败时一起补偿
func (u *unit) mergeInto(parent *unit) {
	parent.journal = append(parent.journal, u.journal...)
	parent.after = append(parent.after, u.after...)
}
