package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/waybridge/internal/realtime"
)

// heartbeatInterval keeps intermediaries from closing an idle SSE stream.
const heartbeatInterval = 15 * time.Second

// handleSSE streams broker events to the client as server-sent events.
func handleSSE(broker *realtime.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		// Send connected event.
		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Without a broker there is nothing to stream.
		if broker == nil {
			return
		}

		events, cancel := broker.Subscribe()
		defer cancel()

		ctx := c.Request.Context()
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case evt, ok := <-events:
				if !ok {
					return
				}
				writeSSE(c.Writer, evt.Type, evt.Payload)
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
