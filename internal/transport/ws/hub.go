package ws

import (
	"sync"
)

const defaultBufferSize = 32

// Subscriber receives the messages published to one channel.
type Subscriber struct {
	channel string
	send    chan []byte
}

// Messages is closed once the subscriber has been removed from the hub.
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

// Channel returns the channel name the subscriber listens on.
func (s *Subscriber) Channel() string {
	return s.channel
}

// Hub is an in-process pub/sub registry keyed by channel name. Delivery is
// best effort: a subscriber whose buffer is full is dropped.
type Hub struct {
	mu         sync.RWMutex
	channels   map[string]map[*Subscriber]struct{}
	bufferSize int
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Hub{
		channels:   make(map[string]map[*Subscriber]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new subscriber on channel.
func (h *Hub) Subscribe(channel string) *Subscriber {
	sub := &Subscriber{
		channel: channel,
		send:    make(chan []byte, h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.channels[channel] = subs
	}
	subs[sub] = struct{}{}

	return sub
}

// Unsubscribe removes sub and closes its message stream. It is safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[sub.channel]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.channels, sub.channel)
	}
}

// Publish delivers payload to every subscriber of channel and returns how many
// received it.
func (h *Hub) Publish(channel string, payload []byte) int {
	var (
		delivered int
		slow      []*Subscriber
	)

	h.mu.RLock()
	for sub := range h.channels[channel] {
		select {
		case sub.send <- payload:
			delivered++
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.Unsubscribe(sub)
	}

	return delivered
}

// Subscribers returns the number of subscribers on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.channels[channel])
}
