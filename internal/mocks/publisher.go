package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// PublisherMock stands in for the AMQP publisher used by audit and push
// dispatch. Every Publish call is also recorded by routing key and event name.
type PublisherMock struct {
	mock.Mock

	mu     sync.Mutex
	events map[string][]string
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	m.record(routingKey, event)
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// EventNames returns the names of events published on routingKey, in order.
// Events without an EventName method are recorded as "unknown".
func (m *PublisherMock) EventNames(routingKey string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events[routingKey]...)
}

func (m *PublisherMock) record(routingKey string, event any) {
	name := "unknown"
	if named, ok := event.(interface{ EventName() string }); ok {
		name = named.EventName()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[string][]string)
	}
	m.events[routingKey] = append(m.events[routingKey], name)
}
