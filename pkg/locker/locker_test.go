package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/suite"
)

type LockerTest struct {
	suite.Suite
}

func TestLocker(t *testing.T) {
	suite.Run(t, new(LockerTest))
}

func (s *LockerTest) TestLocal_SerializesSameKey() {
	l := NewLocalLocker()
	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "u1")
			if !s.NoError(err) {
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()

	s.Equal(int32(1), maxActive)
	s.Equal(0, l.size())
}

func (s *LockerTest) TestLocal_DifferentKeysDoNotBlock() {
	l := NewLocalLocker()
	unlockA, err := l.Lock(context.Background(), "a")
	s.Require().NoError(err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	s.Require().NoError(err)
	unlockB()
}

func (s *LockerTest) TestLocal_CanceledWhileWaiting() {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "u1")
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "u1")
	s.ErrorIs(err, context.DeadlineExceeded)

	unlock()
	// 重复释放无副作用
	unlock()
	s.Equal(0, l.size())
}

func (s *LockerTest) newRedisLocker(ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	server := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, ttl, 10*time.Millisecond), server
}

func (s *LockerTest) TestRedis_Exclusive() {
	l, server := s.newRedisLocker(5 * time.Second)

	unlock, err := l.Lock(context.Background(), "u1")
	s.Require().NoError(err)
	s.True(server.Exists(redisKeyPrefix + "u1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "u1")
	s.ErrorIs(err, context.DeadlineExceeded)

	// 其他用户不受影响
	unlockOther, err := l.Lock(context.Background(), "u2")
	s.Require().NoError(err)
	unlockOther()

	unlock()
	unlock()
	s.False(server.Exists(redisKeyPrefix + "u1"))

	unlock2, err := l.Lock(context.Background(), "u1")
	s.Require().NoError(err)
	unlock2()
}

func (s *LockerTest) TestRedis_RenewedWhileHeld() {
	l, server := s.newRedisLocker(300 * time.Millisecond)
	key := redisKeyPrefix + "u1"

	unlock, err := l.Lock(context.Background(), "u1")
	s.Require().NoError(err)

	// 持有时间远超 ttl，续期保证锁不过期
	for i := 0; i < 6; i++ {
		time.Sleep(150 * time.Millisecond)
		server.FastForward(200 * time.Millisecond)
		s.Require().True(server.Exists(key), "lock expired after %d rounds", i+1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "u1")
	s.ErrorIs(err, context.DeadlineExceeded)

	unlock()
	s.False(server.Exists(key))
}

func (s *LockerTest) TestRedis_DoesNotTouchForeignLock() {
	l, server := s.newRedisLocker(300 * time.Millisecond)
	key := redisKeyPrefix + "u1"

	unlock, err := l.Lock(context.Background(), "u1")
	s.Require().NoError(err)

	// 锁已被其他实例持有，续期和释放都不能影响它
	s.Require().NoError(server.Set(key, "other-instance"))
	time.Sleep(250 * time.Millisecond)
	s.Zero(server.TTL(key))

	unlock()
	value, err := server.Get(key)
	s.Require().NoError(err)
	s.Equal("other-instance", value)
}
