package impression

import (
	"ai_impression/model"
	"ai_impression/pkg/metrics"
	"ai_impression/pkg/tools"
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const dispatcherName = "impression"

// Dispatcher 异步消息分发，批内按用户分组，同一用户按到达顺序串行，不同用户并行
type Dispatcher struct {
	service         *Service
	processor       *tools.Processor[*model.MessageEvent]
	userParallelism int
	timeout         time.Duration
	metrics         *metrics.Metrics
}

func NewDispatcher(service *Service, cfg *tools.Config, userParallelism int, timeout time.Duration) *Dispatcher {
	if userParallelism <= 0 {
		userParallelism = 1
	}
	d := &Dispatcher{
		service:         service,
		userParallelism: userParallelism,
		timeout:         timeout,
		metrics:         service.metrics,
	}
	d.processor = tools.NewProcessor[*model.MessageEvent](dispatcherName, cfg, d.handle)
	return d
}

// Start 启动分发，ctx 取消时进行中的消息处理随之取消
func (d *Dispatcher) Start(ctx context.Context) {
	d.processor.Start(ctx)
}

// Stop 处理完已入队的消息后返回
func (d *Dispatcher) Stop() {
	d.processor.Stop()
}

// Enqueue 入队，队列已满或分发器未启动时返回 false
func (d *Dispatcher) Enqueue(event *model.MessageEvent) bool {
	if !d.processor.Submit(event) {
		d.metrics.QueueDropped()
		return false
	}
	return true
}

func (d *Dispatcher) handle(ctx context.Context, batch []*model.MessageEvent) error {
	order := make([]string, 0)
	byUser := make(map[string][]*model.MessageEvent)
	for _, event := range batch {
		userID := NormalizeUserID(event.UserID)
		if _, ok := byUser[userID]; !ok {
			order = append(order, userID)
		}
		byUser[userID] = append(byUser[userID], event)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.userParallelism)
	for _, userID := range order {
		events := byUser[userID]
		g.Go(func() error {
			for _, event := range events {
				d.processOne(gctx, event)
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) processOne(ctx context.Context, event *model.MessageEvent) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	resp, err := d.service.ProcessMessage(ctx, event)
	if err != nil {
		log.WithFields(log.Fields{"user_id": event.UserID, "message_id": event.MessageID}).
			Errorf("dispatch message error: %v", err)
		return
	}
	log.WithFields(log.Fields{"user_id": resp.UserID, "message_id": resp.MessageID}).
		Debugf("dispatch message outcome: %s", resp.Outcome)
}
