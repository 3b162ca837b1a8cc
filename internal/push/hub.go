package push

import (
	"log/slog"
	"time"

	"github.com/scriptsensei/videoforge/internal/job"
)

// subscriberBuffer is the per-subscriber event queue depth. When the queue is
// full the oldest queued event is dropped so the latest one always fits.
const subscriberBuffer = 16

// eventBuffer is the hub's inbound event queue depth.
const eventBuffer = 256

// Subscriber is one observer connection. A subscriber may join any number of
// rooms; joining the same room twice yields two deliveries per event until
// one subscription is removed again.
type Subscriber struct {
	send chan Event
}

// Events returns the channel the hub delivers on. The hub closes it when the
// subscriber is detached or the hub shuts down.
func (s *Subscriber) Events() <-chan Event {
	return s.send
}

// roomChange is a join or leave request for one room.
type roomChange struct {
	sub   *Subscriber
	jobID string
	join  bool
}

// countReq asks the hub loop for the size of one room.
type countReq struct {
	jobID string
	reply chan int
}

// Hub owns the room registry and fans emitted events out to room members.
// All state is confined to the run loop, so events for one job reach each
// subscriber in emission order.
type Hub struct {
	logger *slog.Logger

	rooms       map[string][]*Subscriber
	subscribers map[*Subscriber]bool

	register   chan *Subscriber
	unregister chan *Subscriber
	changes    chan roomChange
	events     chan Event
	counts     chan countReq

	done    chan struct{}
	stopped chan struct{}
}

// NewHub creates a hub. Call Start before emitting.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger,
		rooms:       make(map[string][]*Subscriber),
		subscribers: make(map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		changes:     make(chan roomChange),
		events:      make(chan Event, eventBuffer),
		counts:      make(chan countReq),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Start launches the run loop.
func (h *Hub) Start() {
	go h.run()
}

// Stop shuts the hub down and closes every subscriber channel.
func (h *Hub) Stop() {
	close(h.done)
	<-h.stopped
}

// Attach registers a new subscriber with the hub.
func (h *Hub) Attach() *Subscriber {
	sub := &Subscriber{send: make(chan Event, subscriberBuffer)}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.send)
	}
	return sub
}

// Detach removes the subscriber from every room and closes its channel.
func (h *Hub) Detach(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Subscribe joins the subscriber to the job's room.
func (h *Hub) Subscribe(sub *Subscriber, jobID string) {
	select {
	case h.changes <- roomChange{sub: sub, jobID: jobID, join: true}:
	case <-h.done:
	}
}

// Unsubscribe removes one of the subscriber's subscriptions to the room.
func (h *Hub) Unsubscribe(sub *Subscriber, jobID string) {
	select {
	case h.changes <- roomChange{sub: sub, jobID: jobID, join: false}:
	case <-h.done:
	}
}

// RoomSize returns the number of active subscriptions to a job's room.
func (h *Hub) RoomSize(jobID string) int {
	req := countReq{jobID: jobID, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

// EmitStarted implements Emitter.
func (h *Hub) EmitStarted(jobID, message string) {
	h.emit(Event{JobID: jobID, Type: EventStarted, Data: StartedData{Message: message}})
}

// EmitProgress implements Emitter.
func (h *Hub) EmitProgress(jobID string, progress float64, message, step string) {
	h.emit(Event{JobID: jobID, Type: EventProgress, Data: ProgressData{
		Progress: progress,
		Message:  message,
		Step:     step,
	}})
}

// EmitCompleted implements Emitter.
func (h *Hub) EmitCompleted(jobID string, result job.Result) {
	h.emit(Event{JobID: jobID, Type: EventCompleted, Data: CompletedData{Result: result}})
}

// EmitFailed implements Emitter.
func (h *Hub) EmitFailed(jobID, errMsg string) {
	h.emit(Event{JobID: jobID, Type: EventFailed, Data: FailedData{Error: errMsg}})
}

// EmitCancelled implements Emitter.
func (h *Hub) EmitCancelled(jobID string) {
	h.emit(Event{JobID: jobID, Type: EventCancelled, Data: CancelledData{Message: "Job cancelled"}})
}

// emit hands an event to the run loop. Emissions never block the pipeline:
// progress events are dropped when the hub is saturated, terminal events
// wait for queue space because subscribers must see them.
func (h *Hub) emit(ev Event) {
	ev.Timestamp = time.Now().UTC()

	if ev.Type.Terminal() {
		select {
		case h.events <- ev:
		case <-h.done:
		}
		return
	}

	select {
	case h.events <- ev:
	default:
		h.logger.Debug("push queue saturated, dropping progress event",
			slog.String("job_id", ev.JobID))
	}
}

func (h *Hub) run() {
	defer close(h.stopped)

	for {
		select {
		case <-h.done:
			for sub := range h.subscribers {
				close(sub.send)
			}
			h.rooms = make(map[string][]*Subscriber)
			h.subscribers = make(map[*Subscriber]bool)
			h.logger.Debug("push hub stopped")
			return

		case sub := <-h.register:
			h.subscribers[sub] = true

		case sub := <-h.unregister:
			if !h.subscribers[sub] {
				continue
			}
			delete(h.subscribers, sub)
			for jobID := range h.rooms {
				h.removeAll(jobID, sub)
			}
			close(sub.send)

		case change := <-h.changes:
			if !h.subscribers[change.sub] {
				continue
			}
			if change.join {
				h.rooms[change.jobID] = append(h.rooms[change.jobID], change.sub)
			} else {
				h.removeOne(change.jobID, change.sub)
			}

		case ev := <-h.events:
			for _, sub := range h.rooms[ev.JobID] {
				h.deliver(sub, ev)
			}

		case req := <-h.counts:
			req.reply <- len(h.rooms[req.jobID])
		}
	}
}

// deliver queues the event for one subscriber. A slow subscriber loses the
// oldest queued event so the newest, and in particular the terminal one,
// always fits.
func (h *Hub) deliver(sub *Subscriber, ev Event) {
	select {
	case sub.send <- ev:
		return
	default:
	}

	select {
	case <-sub.send:
	default:
	}
	select {
	case sub.send <- ev:
	default:
	}
}

// removeOne deletes a single subscription of sub from the room.
func (h *Hub) removeOne(jobID string, sub *Subscriber) {
	members := h.rooms[jobID]
	for i, m := range members {
		if m == sub {
			h.rooms[jobID] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(h.rooms[jobID]) == 0 {
		delete(h.rooms, jobID)
	}
}

// removeAll deletes every subscription of sub from the room.
func (h *Hub) removeAll(jobID string, sub *Subscriber) {
	members := h.rooms[jobID]
	kept := members[:0]
	for _, m := range members {
		if m != sub {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		delete(h.rooms, jobID)
	} else {
		h.rooms[jobID] = kept
	}
}
