package replserver

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/replicad/internal/eventbus"
	"github.com/annel0/replicad/internal/replication"
)

// eventType names published on the Host's EventBus subject, one per
// replication.EventKind write callback.
const (
	eventTypeCreate = "replication.create"
	eventTypeUpdate = "replication.update"
	eventTypeRemove = "replication.remove"
	eventTypeOwner  = "replication.owner"
)

// wireEvents registers write handlers on world that republish every
// admitted segval onto h's EventBus, so other region nodes (or an
// analytics sink) can observe replication traffic without being a
// Query participant themselves (SPEC_FULL.md §D.2).
func (h *Host) wireEvents(world *replication.World) {
	world.RegisterHandler(replication.EventCreateWrite, h.publishingHandler(eventTypeCreate))
	world.RegisterHandler(replication.EventUpdateWrite, h.publishingHandler(eventTypeUpdate))
	world.RegisterHandler(replication.EventRemoveWrite, h.publishingHandler(eventTypeRemove))
	world.RegisterHandler(replication.EventOwnerWrite, h.publishingHandler(eventTypeOwner))
}

// publishingHandler wraps the host's application-level write callback
// (h.appHandlers[kind], if any) so the segment still gets published to
// the event bus regardless of what the app payload looks like. The
// application callback, not this wrapper, decides rejection.
func (h *Host) publishingHandler(eventType string) replication.Handler {
	return func(w *replication.World, ev *replication.Event) int {
		n := -1
		if app := h.appHandlers[ev.Kind]; app != nil {
			n = app(w, ev)
		} else {
			n = 0
		}
		if n < 0 {
			// The engine records the rejection through its MetricsSink.
			return n
		}

		env := &eventbus.Envelope{
			ID:        uuid.NewString(),
			Timestamp: time.Now().UTC(),
			Source:    "replserver",
			EventType: eventType,
			Version:   1,
			Priority:  5,
			Payload:   append([]byte(nil), ev.Buffer[:n]...),
			Metadata: map[string]string{
				"entity_id": strconv.FormatInt(ev.EntityID, 10),
				"owner_id":  strconv.FormatInt(ev.OwnerID, 10),
			},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.bus.Publish(ctx, env); err != nil {
			h.log.Warn("failed to publish %s event for entity %d: %v", eventType, ev.EntityID, err)
		}

		return n
	}
}
