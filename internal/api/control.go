// Package api holds the operations shared by the gRPC and HTTP control
// surfaces. Every operation validates its event and publishes it on the bus;
// the pipeline consumes the topics.
package api

import (
	"time"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/schema"
)

// StatusFunc reports the current pipeline status.
type StatusFunc func() models.PipelineStatus

// Control validates presentation-layer events and publishes them.
type Control struct {
	publisher bus.Publisher
	validator *schema.Validator
	status    StatusFunc
}

func NewControl(publisher bus.Publisher, status StatusFunc) *Control {
	if status == nil {
		status = func() models.PipelineStatus { return models.PipelineStatus{} }
	}
	return &Control{publisher: publisher, validator: schema.New(), status: status}
}

// Ask publishes a manual query. Errors wrap schema.ErrInvalidEvent for bad
// input.
func (c *Control) Ask(q models.UserQuery) error {
	if err := c.validator.Validate(q); err != nil {
		return err
	}
	return c.publisher.Publish(models.TopicUserManualQuery, q)
}

func (c *Control) Feedback(f models.UserFeedback) error {
	if err := c.validator.Validate(f); err != nil {
		return err
	}
	return c.publisher.Publish(models.TopicUserFeedback, f)
}

func (c *Control) Pause(p models.UserPause) error {
	return c.publisher.Publish(models.TopicUserPause, p)
}

func (c *Control) Hotkey() error {
	return c.publisher.Publish(models.TopicTriggerHotkey, models.HotkeyTrigger{Timestamp: time.Now()})
}

func (c *Control) Typed(t models.TypedInput) error {
	if t.Text == "" {
		return nil
	}
	return c.publisher.Publish(models.TopicInputTyped, t)
}

func (c *Control) Status() models.PipelineStatus {
	return c.status()
}
