package impression

import (
	"ai_impression/constant"
	"ai_impression/model"
	"ai_impression/pkg/prompt"
	"ai_impression/pkg/tools"
	"context"
	"fmt"
	"time"
)

func (s *ServiceTest) TestDispatcher_PerUserOrder() {
	d := NewDispatcher(s.service, &tools.Config{MaxThread: 1, CacheNum: 4, QueueSize: 100, TimeIntervalMilliSeconds: 10}, 4, 10*time.Second)
	d.Start(context.Background())

	users := []string{"u1", "u2", "u3"}
	for i := 0; i < 6; i++ {
		for _, u := range users {
			s.Require().True(d.Enqueue(&model.MessageEvent{
				UserID:         u,
				MessageID:      fmt.Sprintf("m%d", i),
				MessageContent: fmt.Sprintf("%s 的第 %d 条消息", u, i),
				Timestamp:      time.Now().Unix(),
			}))
		}
	}
	d.Stop()

	perUser := make(map[string][]string)
	for _, req := range s.completer.requestsFor(constant.PromptIDImpression) {
		msg := req.Variables[constant.PromptVarMessage]
		var u string
		var n int
		_, err := fmt.Sscanf(msg, "%s 的第 %d 条消息", &u, &n)
		s.Require().NoError(err)
		perUser[u] = append(perUser[u], msg)
	}
	for _, u := range users {
		s.Require().Len(perUser[u], 6)
		for i, msg := range perUser[u] {
			s.Equal(fmt.Sprintf("%s 的第 %d 条消息", u, i), msg)
		}
		state := s.state(u)
		s.Equal(int64(6), state.TotalMessages)
		s.Equal(int64(6), state.ImpressionUpdateCount)
	}
}

func (s *ServiceTest) TestDispatcher_EnqueueBeforeStart() {
	d := NewDispatcher(s.service, nil, 2, time.Second)
	s.False(d.Enqueue(&model.MessageEvent{UserID: "u1", MessageContent: "未启动"}))
}

func (s *ServiceTest) TestDispatcher_FailureDoesNotBlockOtherUsers() {
	s.completer.replyFunc(constant.PromptIDImpression, func(req *prompt.Request) (string, error) {
		if req.Variables[constant.PromptVarMessage] == "bad" {
			return "", errFakeOracle
		}
		return impressionOK, nil
	})

	d := NewDispatcher(s.service, &tools.Config{MaxThread: 1, CacheNum: 10, QueueSize: 10, TimeIntervalMilliSeconds: 10}, 2, time.Second)
	d.Start(context.Background())
	s.True(d.Enqueue(&model.MessageEvent{UserID: "u1", MessageID: "m1", MessageContent: "bad"}))
	s.True(d.Enqueue(&model.MessageEvent{UserID: "u2", MessageID: "m1", MessageContent: "good"}))
	d.Stop()

	s.False(s.record("u1", "m1").Processed)
	s.True(s.record("u2", "m1").Processed)
}
