package tools

import (
	"context"
	"fmt"
	"time"
)

// Clock reports the current time, optionally in a named time zone.
type Clock struct {
	now func() time.Time
}

// NewClock creates a clock tool.
func NewClock() *Clock { return &Clock{now: time.Now} }

func (c *Clock) Name() string        { return "current_time" }
func (c *Clock) Description() string { return "Get the current date and time" }
func (c *Clock) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timezone": map[string]any{"type": "string", "description": "IANA time zone such as Europe/Paris. Defaults to UTC."},
		},
	}
}

func (c *Clock) Execute(_ context.Context, params map[string]any) (any, error) {
	name := optionalString(params, "timezone")
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}
	now := c.now().In(loc)
	return map[string]any{
		"timezone": name,
		"time":     now.Format(time.RFC3339),
		"weekday":  now.Weekday().String(),
	}, nil
}
