//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"sealedreg/internal/audit"
	"sealedreg/pkg/testutil/containers"
)

const auditTopic = "sealedreg.audit.test"

type KafkaSinkSuite struct {
	suite.Suite
	broker string
	sink   *audit.KafkaSink
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	ctx := context.Background()
	s.broker = containers.NewRedpandaContainer(s.T()).Broker

	adminClient, err := kgo.NewClient(kgo.SeedBrokers(s.broker))
	s.Require().NoError(err)
	defer adminClient.Close()

	admin := kadm.NewClient(adminClient)
	_, err = admin.CreateTopic(ctx, 1, 1, nil, auditTopic)
	s.Require().NoError(err)

	s.sink, err = audit.NewKafkaSink([]string{s.broker}, auditTopic)
	s.Require().NoError(err)
	s.T().Cleanup(s.sink.Close)
}

func (s *KafkaSinkSuite) TestAppendProducesKeyedEvents() {
	ctx := context.Background()

	events := []audit.Event{
		{ID: "evt-1", Timestamp: time.Now().UTC(), Action: audit.ActionRegistered, Owner: "alice"},
		{ID: "evt-2", Timestamp: time.Now().UTC(), Action: audit.ActionFinalized, Owner: "alice", Actor: "coordinator-1"},
		{ID: "evt-3", Timestamp: time.Now().UTC(), Action: audit.ActionRegistered, Owner: "bob"},
	}
	for _, event := range events {
		s.Require().NoError(s.sink.Append(ctx, event))
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(auditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	consumed := make(map[string]audit.Event)
	deadline, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for len(consumed) < len(events) {
		fetches := consumer.PollFetches(deadline)
		s.Require().NoError(fetches.Err())
		fetches.EachRecord(func(record *kgo.Record) {
			var event audit.Event
			s.Require().NoError(json.Unmarshal(record.Value, &event))
			s.Equal(event.Owner, string(record.Key))
			consumed[event.ID] = event
		})
	}

	s.Len(consumed, 3)
	s.Equal(audit.ActionFinalized, consumed["evt-2"].Action)
	s.Equal("coordinator-1", consumed["evt-2"].Actor)
}
