package amqp

import (
	"encoding/json"

	"finsight/internal/analytics"
)

// The wire message is the analytics report event itself; its json tags are
// the message schema. Consumers fetch nothing else: the event carries the
// full audit payload.

// EncodeReportEvent converts an event to its message body.
func EncodeReportEvent(ev analytics.ReportEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeReportEvent parses a message body into an event.
func DecodeReportEvent(data []byte) (*analytics.ReportEvent, error) {
	var ev analytics.ReportEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
