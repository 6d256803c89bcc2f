package server

import (
	"fmt"
	"os"

	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
)

// Router delivers frames to sessions. Recipients are looked up under the
// registry lock; writes happen outside it under each client's send lock.
type Router struct {
	registry *Registry
	logger   *logger.Logger
}

// NewRouter creates a router over registry
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		logger:   logger.Relay,
	}
}

// BroadcastAll sends msg to every online user except exclude (nil for everyone)
func (r *Router) BroadcastAll(msg string, exclude *Client) {
	for _, c := range r.registry.Clients(exclude) {
		r.Deliver(c, msg)
	}
}

// BroadcastRoster sends the sorted list of online users to everyone
func (r *Router) BroadcastRoster() {
	r.BroadcastAll(network.FormatRoster(r.registry.Names()), nil)
}

// SendToMany sends msg to each named user that is online, never to sender.
// Names that are not online are skipped and returned.
func (r *Router) SendToMany(msg string, targets []string, sender *Client) []string {
	found, missing := r.registry.Resolve(targets, sender)
	for _, c := range found {
		r.Deliver(c, msg)
	}
	if len(missing) > 0 {
		r.logger.Debug("Skipped offline recipients %v", missing)
	}
	return missing
}

// SendToOne sends msg to target
func (r *Router) SendToOne(msg, target string) error {
	c, ok := r.registry.Lookup(target)
	if !ok {
		return fmt.Errorf("%s: %w", target, ErrTargetNotFound)
	}
	if !r.Deliver(c, msg) {
		return fmt.Errorf("%s: delivery failed", target)
	}
	return nil
}

// Deliver writes frames to c as one message. On failure c is dropped and
// false is returned. A nil client is ignored.
func (r *Router) Deliver(c *Client, frames ...string) bool {
	if c == nil {
		return false
	}
	if err := c.Send(frames...); err != nil {
		r.drop(c, err)
		return false
	}
	return true
}

// DeliverFile streams the file at path to c behind the header frames
func (r *Router) DeliverFile(c *Client, headers []string, path string, size int64) bool {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Error("Failed to open scratch file %s: %v", path, err)
		return false
	}
	defer f.Close()

	if err := c.SendFile(headers, f, size); err != nil {
		r.drop(c, err)
		return false
	}
	return true
}

// drop releases a recipient whose connection failed and closes it. Its own
// handler then runs teardown and announces the departure.
func (r *Router) drop(c *Client, err error) {
	r.logger.Warn("Dropping %s after write failure: %v", c.name(), err)
	r.registry.Release(c)
	c.Close()
}
