package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/events"
)

// reportedPrefixes select the events forwarded to the broker.
var reportedPrefixes = []string{"stage.", "map.", "operator."}

// Reporter forwards trigger point events to the broker.
type Reporter struct {
	pub   Publisher
	topic string
}

// NewReporter creates a reporter publishing to EventsTopic(contentID).
func NewReporter(pub Publisher, contentID string) *Reporter {
	return &Reporter{pub: pub, topic: EventsTopic(contentID)}
}

// Topic returns the topic events are published to.
func (r *Reporter) Topic() string { return r.topic }

// Reported reports whether an event with this name is forwarded.
func Reported(name string) bool {
	for _, p := range reportedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Run forwards events until ctx is done or the event stream closes.
func (r *Reporter) Run(ctx context.Context) error {
	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub:
			if !ok {
				return nil
			}
			r.Report(e)
		}
	}
}

// Report publishes e if it is a reported event. Publish failures are logged
// and dropped; the broker is not a source of truth.
func (r *Reporter) Report(e events.Event) {
	if !Reported(e.Name) {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		Logger().Warn("mqtt report encode failed", zap.String("event", e.Name), zap.Error(err))
		return
	}
	if err := r.pub.Publish(r.topic, payload); err != nil {
		Logger().Warn("mqtt report failed", zap.String("event", e.Name), zap.Error(err))
	}
}
