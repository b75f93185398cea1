package service

import (
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type endedEvent struct {
	UserID    string
	SessionID string
	Score     float64
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []endedEvent
}

func (n *fakeNotifier) NotifyEnded(userID, sessionID string, score float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, endedEvent{userID, sessionID, score})
}

func (n *fakeNotifier) Events() []endedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]endedEvent(nil), n.events...)
}
