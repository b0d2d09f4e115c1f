package line

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"trash-notify/internal/convo"
	"trash-notify/internal/metrics"
	"trash-notify/internal/render"
)

var (
	// ErrTransport wraps every failed LINE Messaging API call.
	ErrTransport = errors.New("line transport error")
	// ErrInvalidSignature indicates the webhook body failed authentication.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent indicates the webhook body could not be parsed.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// Config holds configuration to initialise the LINE client.
type Config struct {
	ChannelSecret string
	ChannelToken  string
	// APIEndpoint overrides the Messaging API base URL.
	APIEndpoint string
	Metrics     *metrics.Metrics
}

// Client wraps the LINE SDK client and associated dependencies.
type Client struct {
	bot     *linebot.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a new LINE client. No network call is made.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ChannelSecret == "" {
		return nil, errors.New("channel secret is required")
	}
	if cfg.ChannelToken == "" {
		return nil, errors.New("channel token is required")
	}

	var opts []linebot.ClientOption
	if cfg.APIEndpoint != "" {
		opts = append(opts, linebot.WithEndpointBase(cfg.APIEndpoint))
	}
	bot, err := linebot.New(cfg.ChannelSecret, cfg.ChannelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create line client: %w", err)
	}

	return &Client{
		bot:     bot,
		logger:  logger.With("component", "line"),
		metrics: cfg.Metrics,
	}, nil
}

// Reply answers an inbound event through its reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, msg render.Message) error {
	_, err := c.bot.ReplyMessage(replyToken, toSending(msg)).WithContext(ctx).Do()
	if c.metrics != nil {
		c.metrics.Replies.WithLabelValues(string(msg.Kind), metrics.Status(err)).Inc()
	}
	if err != nil {
		c.logAPIError("reply failed", err)
		return fmt.Errorf("%w: reply: %w", ErrTransport, err)
	}
	return nil
}

// Push sends an unsolicited message to userID.
func (c *Client) Push(ctx context.Context, userID string, msg render.Message) error {
	_, err := c.bot.PushMessage(userID, toSending(msg)).WithContext(ctx).Do()
	if err != nil {
		c.logAPIError("push failed", err)
		return fmt.Errorf("%w: push: %w", ErrTransport, err)
	}
	return nil
}

// DisplayName looks up the profile name of userID.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	res, err := c.bot.GetProfile(userID).WithContext(ctx).Do()
	if err != nil {
		c.logAPIError("profile lookup failed", err)
		return "", fmt.Errorf("%w: get profile: %w", ErrTransport, err)
	}
	return res.DisplayName, nil
}

// ParseRequest authenticates the webhook request and converts its events.
// Events the bot does not act on (follow, stickers, images, ...) are dropped.
func (c *Client) ParseRequest(r *http.Request) ([]convo.Envelope, error) {
	events, err := c.bot.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return convertEvents(events)
}

func convertEvents(events []*linebot.Event) ([]convo.Envelope, error) {
	res := make([]convo.Envelope, 0, len(events))
	for _, ev := range events {
		if ev == nil {
			continue
		}
		var inner convo.Event
		switch ev.Type {
		case linebot.EventTypeMessage:
			text, ok := ev.Message.(*linebot.TextMessage)
			if !ok {
				continue
			}
			inner = convo.TextMessage{Text: text.Text}
		case linebot.EventTypePostback:
			if ev.Postback == nil {
				return nil, fmt.Errorf("%w: postback without data", ErrMalformedEvent)
			}
			inner = convo.MenuSelection{Mode: render.DecodeMode(ev.Postback.Data)}
		case linebot.EventTypeUnfollow:
			inner = convo.Unfollow{}
		default:
			continue
		}
		if ev.Source == nil || ev.Source.UserID == "" {
			return nil, fmt.Errorf("%w: %s event without user id", ErrMalformedEvent, ev.Type)
		}
		res = append(res, convo.Envelope{
			UserID:     ev.Source.UserID,
			ReplyToken: ev.ReplyToken,
			Event:      inner,
		})
	}
	return res, nil
}

func toSending(msg render.Message) linebot.SendingMessage {
	if msg.Kind != render.KindMenu {
		return linebot.NewTextMessage(msg.Text)
	}
	actions := make([]linebot.TemplateAction, 0, len(msg.Choices))
	for _, choice := range msg.Choices {
		actions = append(actions, linebot.NewPostbackAction(choice.Label, choice.Data, "", "", "", ""))
	}
	alt := msg.AltText
	if alt == "" {
		alt = msg.Text
	}
	return linebot.NewTemplateMessage(alt, linebot.NewButtonsTemplate("", "", msg.Text, actions...))
}

func (c *Client) logAPIError(msg string, err error) {
	var apiErr *linebot.APIError
	if errors.As(err, &apiErr) {
		attrs := []any{"code", apiErr.Code}
		if apiErr.Response != nil {
			attrs = append(attrs, "message", apiErr.Response.Message)
			for _, d := range apiErr.Response.Details {
				attrs = append(attrs, d.Property, d.Message)
			}
		}
		c.logger.Error(msg, attrs...)
		return
	}
	c.logger.Error(msg, "error", err)
}
