package slack

import (
	"context"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/slack-go/slack"
)

const (
	// DefaultUsername is the display name of notice messages
	DefaultUsername = "Identity Console"

	// maxSectionTextBytes is the Slack limit of a section block text
	maxSectionTextBytes = 3000
)

// client implements Service interface
type client struct {
	api       *slack.Client
	channelID string
	username  string
	apiURL    string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithUsername sets the display name of posted messages
func WithUsername(name string) Option {
	return func(c *client) {
		c.username = name
	}
}

// WithAPIURL replaces the Slack Web API endpoint. The URL must end with a slash.
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiURL = url
	}
}

// New creates a new Slack service with the provided bot token and target channel
func New(token, channelID string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	c := &client{
		channelID: channelID,
		username:  DefaultUsername,
	}

	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []slack.Option
	if c.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(c.apiURL))
	}
	c.api = slack.New(token, apiOpts...)

	return c, nil
}

func (c *client) PostNotice(ctx context.Context, notice *model.Notice) (string, error) {
	if notice == nil {
		return "", goerr.New("notice is required")
	}

	_, ts, err := c.api.PostMessageContext(ctx, c.channelID,
		slack.MsgOptionBlocks(buildNoticeBlocks(notice)...),
		slack.MsgOptionText(noticeFallbackText(notice), false),
		slack.MsgOptionUsername(c.username),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post notice",
			goerr.V("channel_id", c.channelID),
			goerr.V("notice_type", notice.Type))
	}

	return ts, nil
}

func (c *client) Notify(ctx context.Context, notice *model.Notice) error {
	_, err := c.PostNotice(ctx, notice)
	return err
}

// truncateToMaxBytes cuts s to at most maxBytes without splitting a UTF-8 sequence
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
