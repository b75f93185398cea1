package service

// Notifier pushes session events to the owner's live connections. The
// WebSocket hub implements it; keeping the interface here avoids an import cycle.
type Notifier interface {
	NotifyEnded(userID, sessionID string, standardizedScore float64)
}

type nopNotifier struct{}

func (nopNotifier) NotifyEnded(string, string, float64) {}
