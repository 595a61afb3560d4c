package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sebastiankruger/pickplace-simulator/internal/config"
)

func newTestClient(endpoint string) *Client {
	cfg := config.Default()
	cfg.EventEndpoint = endpoint
	return NewClient(cfg)
}

func TestClient_Disabled(t *testing.T) {
	c := newTestClient("")
	assert.False(t, c.Enabled())
	assert.Empty(t, c.URL())

	c.Publish(Event{Type: TypeCycleCompleted})
	assert.Len(t, c.queue, 0)
}

func TestClient_URL(t *testing.T) {
	c := newTestClient("http://mes.local:9000/")
	assert.True(t, c.Enabled())
	assert.Equal(t, "http://mes.local:9000/api/simulator/events", c.URL())
}

func TestClient_RunDelivers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	received := make(chan Event, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/simulator/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var e Event
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&e)) {
			received <- e
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Publish(Event{Type: TypeCycleCompleted, MissionID: "m-1", Cycle: 3})

	select {
	case e := <-received:
		assert.Equal(t, TypeCycleCompleted, e.Type)
		assert.Equal(t, "PickPlaceArm-01", e.Simulator)
		assert.Equal(t, "m-1", e.MissionID)
		assert.Equal(t, 3, e.Cycle)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	<-done
	srv.CloseClientConnections()
	c.httpClient.CloseIdleConnections()
}

func TestClient_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.Send(context.Background(), Event{Type: TypeRuntimeError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_PublishDropsWhenFull(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	for i := 0; i < queueSize+10; i++ {
		c.Publish(Event{Type: TypeCycleCompleted, Cycle: i})
	}
	assert.Len(t, c.queue, queueSize)
}
