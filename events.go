package polyglot

import (
	"context"
	"strconv"

	"gocloud.dev/pubsub"
	// Inbuilt memory pubsub driver.
	_ "gocloud.dev/pubsub/mempubsub"
)

const (
	eventHeaderMode          = "polyglot.mode"
	eventHeaderSystemDefault = "polyglot.system_default"
)

// changePublisher sends every applied mode to a pubsub topic so components
// without an in-process subscription can still react to language changes.
type changePublisher struct {
	url   string
	topic *pubsub.Topic
}

func newChangePublisher(topicURL string) *changePublisher {
	return &changePublisher{url: topicURL}
}

func (p *changePublisher) connect(ctx context.Context) error {
	topic, err := pubsub.OpenTopic(ctx, p.url)
	if err != nil {
		return err
	}

	p.topic = topic
	return nil
}

func (p *changePublisher) publish(ctx context.Context, mode Mode) error {
	return p.topic.Send(ctx, &pubsub.Message{
		Body: []byte(mode.Code()),
		Metadata: map[string]string{
			eventHeaderMode:          mode.String(),
			eventHeaderSystemDefault: strconv.FormatBool(mode.IsSystemDefault()),
		},
	})
}

func (p *changePublisher) close(ctx context.Context) error {
	if p.topic == nil {
		return nil
	}

	return p.topic.Shutdown(ctx)
}
