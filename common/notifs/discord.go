package notifs

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/common/utils"
	"github.com/ceramicnetwork/go-mint/models"
)

type DiscordColor int

const (
	DiscordColor_None  = iota
	DiscordColor_Info  = 3447003
	DiscordColor_Alert = 16711712
)

const DiscordPacing = 2 * time.Second

// Discord rejects embed descriptions longer than this
const maxEmbedDescLen = 4096

var _ models.Notifier = &DiscordHandler{}

type DiscordHandler struct {
	alertWebhook webhook.Client
	testWebhook  webhook.Client
	logger       models.Logger
}

// NewDiscordHandler returns a handler for whichever webhooks are configured. With none configured, alerts are only
// logged.
func NewDiscordHandler(logger models.Logger) (*DiscordHandler, error) {
	if a, err := parseDiscordWebhookUrl(os.Getenv(mint.Env_DiscordAlertWebhook)); err != nil {
		return nil, fmt.Errorf("%s: %w", mint.Env_DiscordAlertWebhook, err)
	} else if t, err := parseDiscordWebhookUrl(os.Getenv(mint.Env_DiscordTestWebhook)); err != nil {
		return nil, fmt.Errorf("%s: %w", mint.Env_DiscordTestWebhook, err)
	} else {
		return &DiscordHandler{a, t, logger}, nil
	}
}

func parseDiscordWebhookUrl(webhookUrl string) (webhook.Client, error) {
	if len(webhookUrl) > 0 {
		if parsedUrl, err := url.Parse(webhookUrl); err != nil {
			return nil, err
		} else {
			urlParts := strings.Split(strings.TrimSuffix(parsedUrl.Path, "/"), "/")
			if len(urlParts) < 2 {
				return nil, errors.New("webhook url must end in /<id>/<token>")
			}
			if id, err := snowflake.Parse(urlParts[len(urlParts)-2]); err != nil {
				return nil, err
			} else {
				return webhook.New(id, urlParts[len(urlParts)-1]), nil
			}
		}
	}
	return nil, nil
}

func (d DiscordHandler) SendAlert(title, desc string) error {
	if (d.alertWebhook == nil) && (d.testWebhook == nil) {
		d.logger.Warnf("discord: no webhook configured for alert: %s, %s", title, desc)
		return nil
	}
	var err error
	if d.alertWebhook != nil {
		err = d.sendNotif(d.alertWebhook, title, desc, DiscordColor_Alert)
	}
	// Always duplicate notifications to the test channel, if configured.
	if d.testWebhook != nil {
		if testErr := d.sendNotif(d.testWebhook, title, desc, DiscordColor_Alert); err == nil {
			err = testErr
		}
	}
	return err
}

func (d DiscordHandler) sendNotif(wh webhook.Client, title, desc string, color DiscordColor) error {
	messageEmbed := discord.Embed{
		Title:       title,
		Description: embedDescription(desc),
		Type:        discord.EmbedTypeRich,
		Color:       int(color),
	}
	_, err := wh.CreateMessage(discord.NewWebhookMessageCreateBuilder().
		SetEmbeds(messageEmbed).
		SetUsername(models.ServiceName).
		Build(),
		rest.WithDelay(DiscordPacing),
	)
	if err != nil {
		d.logger.Errorf("discord: error sending notification: %v, %s, %s", err, title, desc)
		return err
	}
	return nil
}

// embedDescription wraps desc in a code block that fits the embed description limit.
func embedDescription(desc string) string {
	const fence = "```"
	limit := maxEmbedDescLen - 2*len(fence)
	if len(desc) > limit {
		desc = utils.TruncateUtf8(desc, limit-3) + "..."
	}
	return fence + desc + fence
}
