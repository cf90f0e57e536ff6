package covault

import (
	"time"
)

// Event is the envelope published on wallet channels and delivered to
// realtime subscribers.
type Event struct {
	WalletID  string    `json:"walletId"`
	Kind      string    `json:"kind"`
	ActorID   string    `json:"actorId,omitempty"`
	Item      any       `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification is the document published to a user's notification channel,
// consumed by the push relay.
type Notification struct {
	UserID    string            `json:"userId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Category  string            `json:"category"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// UserProfile is the identity directory's view of a user.
type UserProfile struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Suspended bool   `json:"suspended,omitempty"`
}

type CovaultEndpoint struct {
	Template string    `json:"template"`
	Method   string    `json:"method"`
	Query    *[]string `json:"query,omitempty"`
}

type WellKnownCovault struct {
	Version   string                     `json:"version"`
	Domain    string                     `json:"domain"`
	ServiceID string                     `json:"serviceId"`
	Endpoints map[string]CovaultEndpoint `json:"endpoints"`
}

// WalletChannel returns the pub/sub channel carrying a wallet's events.
func WalletChannel(walletID string) string {
	return "wallet:" + walletID
}

// NotifyChannel returns the pub/sub channel carrying a user's notifications.
func NotifyChannel(userID string) string {
	return "notify:" + userID
}
