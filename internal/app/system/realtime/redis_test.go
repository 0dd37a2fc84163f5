package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type RelaySuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	ctx    context.Context
	cancel context.CancelFunc

	hubA, hubB     *Hub
	relayA, relayB *RedisRelay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.ctx, s.cancel = context.WithCancel(context.Background())

	newClient := func() *redis.Client {
		return redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	}

	s.hubA = NewHub(zap.NewNop())
	s.hubB = NewHub(zap.NewNop())
	s.relayA = NewRedisRelay(newClient(), "", s.hubA, zap.NewNop())
	s.relayB = NewRedisRelay(newClient(), "", s.hubB, zap.NewNop())

	s.Require().NoError(s.relayA.Start(s.ctx))
	s.Require().NoError(s.relayB.Start(s.ctx))
}

func (s *RelaySuite) TearDownTest() {
	s.relayA.Stop()
	s.relayB.Stop()
	s.cancel()
	s.hubA.Close()
	s.hubB.Close()
	_ = s.relayA.client.Close()
	_ = s.relayB.client.Close()
	s.mini.Close()
}

func (s *RelaySuite) next(ch <-chan Event) Event {
	select {
	case ev, ok := <-ch:
		s.Require().True(ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for event")
		return Event{}
	}
}

func (s *RelaySuite) TestCrossProcessDelivery() {
	remote, cancel := s.hubB.Subscribe(InCollection(CollUsers))
	defer cancel()

	ev := NewEvent(CollUsers, OpUpdate, "u1", map[string]string{"application_status": "approved"})
	s.Require().NoError(s.relayA.Publish(s.ctx, ev))

	got := s.next(remote)
	s.Equal(ev.ID, got.ID)
	s.Equal("u1", got.DocID)
	s.JSONEq(`{"application_status":"approved"}`, string(got.Data))
}

func (s *RelaySuite) TestLocalDeliveryIsNotDuplicated() {
	local, cancel := s.hubA.Subscribe(nil)
	defer cancel()

	ev := NewEvent(CollMessages, OpInsert, "m1", nil)
	s.Require().NoError(s.relayA.Publish(s.ctx, ev))

	s.Equal(ev.ID, s.next(local).ID)

	// The echo from Redis is dropped by origin.
	select {
	case dup := <-local:
		s.Failf("duplicate delivery", "%+v", dup)
	case <-time.After(100 * time.Millisecond):
	}
}

func (s *RelaySuite) TestStopEndsForwarding() {
	s.relayB.Stop()

	remote, cancel := s.hubB.Subscribe(nil)
	defer cancel()

	s.Require().NoError(s.relayA.Publish(s.ctx, NewEvent(CollCalendar, OpInsert, "c1", nil)))

	select {
	case ev := <-remote:
		s.Failf("event after Stop", "%+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNewRedisClient(t *testing.T) {
	mini := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{URL: "redis://" + mini.Addr(), PoolSize: 4})
	require.NoError(t, err)
	defer client.Close()
	require.Equal(t, 4, client.Options().PoolSize)

	_, err = NewRedisClient(context.Background(), RedisConfig{URL: "not a url"})
	require.Error(t, err)
}
