package convo

import "trash-notify/internal/render"

// Event is one inbound user action. The concrete types are TextMessage,
// MenuSelection and Unfollow.
type Event interface {
	kind() string
}

// TextMessage is free-form text typed by the user.
type TextMessage struct {
	Text string
}

// MenuSelection is a tapped menu button.
type MenuSelection struct {
	Mode render.Mode
}

// Unfollow reports the user blocked or unfollowed the bot.
type Unfollow struct{}

func (TextMessage) kind() string   { return "message" }
func (MenuSelection) kind() string { return "postback" }
func (Unfollow) kind() string      { return "unfollow" }

// Kind returns a short label for ev, used in logs and metrics.
func Kind(ev Event) string {
	if ev == nil {
		return "unknown"
	}
	return ev.kind()
}

// Envelope carries an event together with its sender and reply handle.
type Envelope struct {
	UserID     string
	ReplyToken string
	Event      Event
}
