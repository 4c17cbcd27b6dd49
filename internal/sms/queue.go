package sms

import (
	"context"
	"encoding/json"

	"github.com/tunebox/apiserver/internal/mq"
)

// QueueSender publishes messages to the dispatch queue instead of calling
// the gateway inline. A worker drains the queue and does the delivery.
type QueueSender struct {
	mq    *mq.MQ
	queue string
}

func NewQueueSender(broker *mq.MQ, queue string) *QueueSender {
	return &QueueSender{mq: broker, queue: queue}
}

func (q *QueueSender) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = q.mq.Publish(ctx, q.queue, data, nil)
	return err
}

// DecodeMessage parses a queued payload back into a Message.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}
