package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"group-service/internal/mocks"
	"group-service/internal/notify"
)

func TestQueueDispatcherPublishesOnTopic(t *testing.T) {
	pub := new(mocks.PublisherMock)
	msg := notify.PushMessage{Token: "tok", Title: "Hikers", Body: "Ann joined"}
	pub.On("Publish", mock.Anything, "push.send", msg).Return(nil).Once()

	require.NoError(t, notify.NewQueueDispatcher(pub, "push.send").Send(context.Background(), msg))
	pub.AssertExpectations(t)
	require.Equal(t, []string{"push_message"}, pub.EventNames("push.send"))
	require.Empty(t, pub.EventNames("audit"))
}

func TestBreakerPassesThroughQueueErrors(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, "push.send", mock.Anything).Return(errors.New("channel closed")).Once()

	d := notify.NewBreakerDispatcher(notify.NewQueueDispatcher(pub, "push.send"), notify.BreakerConfig{Name: "push", FailureThreshold: 3}, zerolog.Nop())
	require.Error(t, d.Send(context.Background(), notify.PushMessage{Token: "tok"}))
	require.Equal(t, "closed", d.State())
	pub.AssertExpectations(t)
}

func TestNoopDispatcher(t *testing.T) {
	require.NoError(t, notify.NewNoopDispatcher(zerolog.Nop()).Send(context.Background(), notify.PushMessage{}))
}
