package tools

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	MaxThread                int
	CacheNum                 int
	QueueSize                int
	TimeIntervalMilliSeconds int64
}

func GetDefaultConfig() *Config {
	return &Config{
		MaxThread:                1,
		CacheNum:                 200,
		QueueSize:                1024,
		TimeIntervalMilliSeconds: 500,
	}
}

// Processor 攒批处理器，消息按提交顺序分批交给 handler
// MaxThread 为 1 时批与批之间严格串行，批内顺序与提交顺序一致
type Processor[T any] struct {
	Name          string
	config        *Config
	messageChan   chan T
	isOpen        bool
	cacheChan     chan T
	cacheChanLock sync.Mutex
	threadChan    chan struct{}
	ctx           context.Context
	cancelFunc    context.CancelFunc
	handlerCtx    context.Context
	loopWg        sync.WaitGroup
	messageWg     sync.WaitGroup
	serviceLock   sync.RWMutex
	updateTime    int64
	handler       func(ctx context.Context, batchData []T) error
}

func NewProcessor[T any](name string, config *Config, handler func(ctx context.Context, batchData []T) error) *Processor[T] {
	if config == nil {
		config = GetDefaultConfig()
	}
	if config.MaxThread <= 0 {
		config.MaxThread = 1
	}
	if config.CacheNum <= 0 {
		config.CacheNum = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}
	if config.TimeIntervalMilliSeconds <= 0 {
		config.TimeIntervalMilliSeconds = 500
	}
	return &Processor[T]{
		Name:        name,
		config:      config,
		handler:     handler,
		messageChan: make(chan T, config.QueueSize),
	}
}

// Start 启动处理器，ctx 传给每次 handler 调用，取消后进行中的批次随之结束
// Stop 只停止接收，排空期间 handler 仍使用 ctx
func (p *Processor[T]) Start(ctx context.Context) {

	p.serviceLock.Lock()
	defer p.serviceLock.Unlock()

	if p.isOpen {
		return
	}

	p.threadChan = make(chan struct{}, p.config.MaxThread)
	p.cacheChan = make(chan T, p.config.CacheNum)

	if ctx == nil {
		ctx = context.Background()
	}
	p.handlerCtx = ctx
	p.ctx, p.cancelFunc = context.WithCancel(context.Background())

	p.updateCacheDataChan()

	p.loopWg.Add(1)
	go func() {
		defer p.loopWg.Done()
		for {
			select {
			case <-p.ctx.Done():
				return
			case msg := <-p.messageChan:
				p.process(msg)
			}
		}

	}()

	p.isOpen = true

}

// Submit 非阻塞提交，处理器未启动或队列已满时返回 false
func (p *Processor[T]) Submit(data T) bool {
	p.serviceLock.RLock()
	defer p.serviceLock.RUnlock()

	if !p.isOpen {
		return false
	}

	select {
	case p.messageChan <- data:
		return true
	default:
		return false
	}
}

// Stop 停止接收，剩余消息作为最后一批处理完后返回
func (p *Processor[T]) Stop() {

	p.serviceLock.Lock()
	defer p.serviceLock.Unlock()

	if !p.isOpen {
		return
	}

	p.cancelFunc()
	p.loopWg.Wait()

	p.cacheChanLock.Lock()
	dataSlice := p.drainCache()
	for {
		select {
		case msg := <-p.messageChan:
			dataSlice = append(dataSlice, msg)
			continue
		default:
		}
		break
	}
	if len(dataSlice) > 0 {
		p.dispatch(dataSlice)
	}
	p.cacheChanLock.Unlock()

	p.messageWg.Wait()

	p.isOpen = false

}

func (p *Processor[T]) updateCacheDataChan() {

	p.loopWg.Add(1)
	go func() {
		defer p.loopWg.Done()

		logrus.Infof("batch process: %s batch handle thread start", p.Name)
		defer logrus.Infof("batch process: %s batch handle thread close", p.Name)

		ticker := time.NewTicker(time.Millisecond * time.Duration(p.config.TimeIntervalMilliSeconds))
		defer ticker.Stop()

		for {
			select {
			case <-p.ctx.Done():
				return
			case <-ticker.C:

				p.cacheChanLock.Lock()
				if time.Now().UnixNano()-p.updateTime > p.config.TimeIntervalMilliSeconds*1000000 ||
					time.Now().UnixNano()-p.updateTime < 0 {

					dataSlice := p.drainCache()
					if len(dataSlice) > 0 {
						p.dispatch(dataSlice)
						//update time
						p.updateTime = time.Now().UnixNano()
					}
				}

				p.cacheChanLock.Unlock()

			}

		}

	}()

}

func (p *Processor[T]) process(data T) {
	p.cacheChanLock.Lock()
	defer p.cacheChanLock.Unlock()

	select {
	case p.cacheChan <- data:
		return
	default:
		// 先取出已缓存的消息，当前消息放在最后
		dataSlice := p.drainCache()
		dataSlice = append(dataSlice, data)

		p.dispatch(dataSlice)

		//update time
		p.updateTime = time.Now().UnixNano()
	}
}

// drainCache 调用方需持有 cacheChanLock
func (p *Processor[T]) drainCache() []T {
	var dataSlice []T
	for {
		select {
		case cacheData := <-p.cacheChan:
			dataSlice = append(dataSlice, cacheData)
			continue
		default:
		}
		break
	}
	return dataSlice
}

// dispatch 占用一个线程槽后异步执行 handler，槽位占满时阻塞
func (p *Processor[T]) dispatch(batchData []T) {
	p.threadChan <- struct{}{}
	p.messageWg.Add(1)

	go func() {
		defer func() {
			p.messageWg.Done()
			<-p.threadChan
		}()

		if err := p.handler(p.handlerCtx, batchData); err != nil {
			logrus.Errorf("batch process: %s batch handle err: %s", p.Name, err.Error())
		}
	}()
}
