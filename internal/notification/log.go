package notification

import (
	"context"
	"log"
)

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, id int, title, body string) error {
	n.logger.Printf("[notify] #%d %s: %s", id, title, body)
	return nil
}
