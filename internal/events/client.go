// Package events reports mission milestones to an external HTTP endpoint,
// such as an MES or line controller.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/pickplace-simulator/internal/config"
)

const queueSize = 64

// Type names an event kind
type Type string

const (
	TypeMissionStarted Type = "mission_started"
	TypeCycleCompleted Type = "cycle_completed"
	TypeRuntimeError   Type = "runtime_error"
)

// Event is the JSON body posted for every milestone
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Simulator string    `json:"simulator"`
	MissionID string    `json:"missionId,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Cycle     int       `json:"cycle,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client posts events to the configured endpoint from a single worker.
// With no endpoint configured every call is a no-op.
type Client struct {
	url        string
	simulator  string
	httpClient *http.Client
	queue      chan Event
}

// NewClient creates an event client from cfg
func NewClient(cfg *config.Config) *Client {
	c := &Client{
		simulator: cfg.SimulatorName,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		queue: make(chan Event, queueSize),
	}
	if cfg.EventEndpoint != "" {
		c.url = strings.TrimRight(cfg.EventEndpoint, "/") + cfg.EventPath
	}
	return c
}

// Enabled reports whether an endpoint is configured
func (c *Client) Enabled() bool {
	return c.url != ""
}

// URL returns the full event endpoint, empty when disabled
func (c *Client) URL() string {
	return c.url
}

// Publish queues e for delivery without blocking. Events are dropped when
// the queue is full.
func (c *Client) Publish(e Event) {
	if !c.Enabled() {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Simulator == "" {
		e.Simulator = c.simulator
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	select {
	case c.queue <- e:
	default:
		log.Warn().Str("type", string(e.Type)).Msg("Event queue full, dropping event")
	}
}

// Run delivers queued events until ctx is cancelled. Delivery failures
// are logged and never stop the simulator.
func (c *Client) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-c.queue:
			if err := c.Send(ctx, e); err != nil {
				log.Warn().Err(err).Str("url", c.url).Msg("Failed to send event (endpoint may not be available)")
			}
		}
	}
}

// Send posts one event synchronously
func (c *Client) Send(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "post event")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Errorf("endpoint returned status %d for %s event", resp.StatusCode, e.Type)
	}

	log.Debug().
		Str("id", e.ID).
		Str("type", string(e.Type)).
		Str("missionId", e.MissionID).
		Msg("Event sent")
	return nil
}
