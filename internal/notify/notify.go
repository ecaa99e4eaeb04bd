// Package notify broadcasts console events to globally configured Shoutrrr
// URLs (ntfy, Discord, SMTP, ...). There is no per-user delivery: the
// console is a coach tool and the channels are shared.
package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/containrrr/shoutrrr"

	"github.com/maheo/foulee/internal/remote"
)

// send is the delivery function, swappable in tests.
var send = shoutrrr.Send

// Notifier fans one message out to every configured URL.
type Notifier struct {
	urls []string
}

// New creates a Notifier for a comma-or-newline-separated URL list. An
// empty list yields a Notifier that silently drops everything.
func New(urls string) *Notifier {
	return &Notifier{urls: parseURLs(urls)}
}

// Enabled reports whether at least one channel is configured.
func (n *Notifier) Enabled() bool {
	return len(n.urls) > 0
}

// Broadcast sends the message to all channels in the background. Errors are
// logged but never propagate — notifications must not block the caller.
func (n *Notifier) Broadcast(body string) {
	if !n.Enabled() || body == "" {
		return
	}
	urls := n.urls
	go func() {
		for _, u := range urls {
			if err := send(u, body); err != nil {
				log.Printf("notify: broadcast send failed for url %q: %v", maskURL(u), err)
			}
		}
	}()
}

// Test sends a probe message to every channel synchronously and reports
// every failure.
func (n *Notifier) Test() error {
	if !n.Enabled() {
		return fmt.Errorf("notify: no channels configured")
	}
	var errs []string
	for _, u := range n.urls {
		if err := send(u, "Foulée test — if you see this, notifications are working!"); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", maskURL(u), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}

// FeedbackMessage formats the broadcast for newly seen athlete feedback.
func FeedbackMessage(groupID, athleteID string, entries []remote.FeedbackEntry) string {
	scope := groupID
	if athleteID != "" {
		scope = groupID + "/" + athleteID
	}
	if len(entries) == 1 {
		e := entries[0]
		return fmt.Sprintf("New feedback for %s: week %d day %d %s — %s km at %s, RPE %d",
			scope, e.WeekIndex, e.DayOfWeek, e.Slot, e.Distance, e.Pace, e.RPE)
	}
	return fmt.Sprintf("%d new feedback entries for %s", len(entries), scope)
}

// parseURLs splits a comma-or-newline-separated URL string and trims whitespace.
func parseURLs(urlsStr string) []string {
	urlsStr = strings.ReplaceAll(urlsStr, "\n", ",")
	parts := strings.Split(urlsStr, ",")
	var urls []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// maskURL masks credentials in a Shoutrrr URL for safe logging.
func maskURL(u string) string {
	if len(u) <= 15 {
		return u[:min(5, len(u))] + "••••"
	}
	return u[:15] + "••••"
}
