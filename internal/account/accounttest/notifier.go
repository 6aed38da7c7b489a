// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package accounttest

import (
	"context"
	"regexp"
	"sync"
	"time"
)

// Message is one delivery recorded by a Notifier.
type Message struct {
	To      string
	Subject string
	Body    string
}

var codePattern = regexp.MustCompile(`\b[0-9]{6}\b`)

// Notifier records deliveries instead of sending them.
type Notifier struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

// Send records the message, or returns the configured failure.
func (n *Notifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Fail makes later sends return err. A nil err restores delivery.
func (n *Notifier) Fail(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Sent returns the recorded messages.
func (n *Notifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}

// LastCode extracts the six-digit code from the latest message, or "".
func (n *Notifier) LastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ""
	}
	return codePattern.FindString(n.sent[len(n.sent)-1].Body)
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
