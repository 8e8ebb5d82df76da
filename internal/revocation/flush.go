package revocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
)

// Flusher периодически удаляет истёкшие записи из хранилища.
type Flusher struct {
	store Store
	log   *slog.Logger
	cron  *cron.Cron
	now   func() time.Time

	onFlushed func(int64)
}

// NewFlusher создаёт задачу очистки по cron-расписанию (например, "@hourly").
func NewFlusher(store Store, schedule string, log *slog.Logger) (*Flusher, error) {
	const op = "revocation.NewFlusher"
	f := &Flusher{
		store: store,
		log:   log,
		cron:  cron.New(),
		now:   time.Now,
	}
	if _, err := f.cron.AddFunc(schedule, f.run); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// OnFlushed задаёт функцию, вызываемую с числом удалённых записей после каждого запуска.
func (f *Flusher) OnFlushed(fn func(int64)) {
	f.onFlushed = fn
}

// Start запускает расписание в фоне.
func (f *Flusher) Start() {
	f.cron.Start()
}

// Stop останавливает расписание и ждёт завершения текущего запуска.
func (f *Flusher) Stop() {
	<-f.cron.Stop().Done()
}

// RunOnce выполняет одну очистку.
func (f *Flusher) RunOnce(ctx context.Context) (int64, error) {
	return f.store.FlushExpired(ctx, f.now())
}

func (f *Flusher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := f.RunOnce(ctx)
	if err != nil {
		f.log.Error("failed to flush expired tokens", sl.Err(err))
		return
	}
	if f.onFlushed != nil {
		f.onFlushed(n)
	}
	f.log.Info("flushed expired tokens", slog.Int64("count", n))
}
