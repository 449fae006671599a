// Package notify delivers terminal-state notifications. The core only
// requests them; actual desktop/UI delivery belongs to the subscriber
// on the other side of the event bus.
package notify

import (
	"fmt"

	"discpress/internal/domain"
	"discpress/internal/infrastructure/logger"
	"discpress/internal/port"
	"discpress/internal/service"
)

type BusNotifier struct {
	bus *service.EventBus
}

func NewBusNotifier(bus *service.EventBus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) JobSucceeded(wf domain.Workflow, job domain.Job) {
	msg := fmt.Sprintf("%s finished: %s", wf.Label(), job.Name)
	logger.Info.Printf("%s", msg)
	n.bus.Publish(wf, service.Event{
		Type:    service.EventNotification,
		JobID:   job.ID,
		Message: msg,
	})
}

func (n *BusNotifier) JobFailed(wf domain.Workflow, job domain.Job) {
	msg := fmt.Sprintf("%s failed: %s (%s)", wf.Label(), job.Name, job.ErrorMessage)
	logger.Warn.Printf("%s", msg)
	n.bus.Publish(wf, service.Event{
		Type:    service.EventNotification,
		JobID:   job.ID,
		Message: msg,
	})
}

var _ port.Notifier = (*BusNotifier)(nil)
