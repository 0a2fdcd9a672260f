package notifs

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ceramicnetwork/go-mint/common/loggers"
)

func TestParseDiscordWebhookUrl(t *testing.T) {
	tests := map[string]struct {
		webhookUrl  string
		expectedId  string
		expectedErr bool
	}{
		"not configured": {
			webhookUrl: "",
		},
		"valid webhook": {
			webhookUrl: "https://discord.com/api/webhooks/1098711239470026812/abcDEF-token",
			expectedId: "1098711239470026812",
		},
		"trailing slash": {
			webhookUrl: "https://discord.com/api/webhooks/1098711239470026812/abcDEF-token/",
			expectedId: "1098711239470026812",
		},
		"non-numeric id": {
			webhookUrl:  "https://discord.com/api/webhooks/not-an-id/abcDEF-token",
			expectedErr: true,
		},
		"missing token": {
			webhookUrl:  "https://discord.com/",
			expectedErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			client, err := parseDiscordWebhookUrl(test.webhookUrl)
			if test.expectedErr {
				if err == nil {
					t.Errorf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(test.expectedId) == 0 {
				if client != nil {
					t.Errorf("expected no client")
				}
				return
			}
			if client.ID().String() != test.expectedId {
				t.Errorf("incorrect webhook id: %s", client.ID())
			}
		})
	}
}

func TestSendAlertWithoutWebhooks(t *testing.T) {
	t.Setenv("DISCORD_ALERT_WEBHOOK", "")
	t.Setenv("DISCORD_TEST_WEBHOOK", "")
	handler, err := NewDiscordHandler(loggers.NewTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err = handler.SendAlert("title", "desc"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEmbedDescription(t *testing.T) {
	tests := map[string]struct {
		desc      string
		truncated bool
	}{
		"short description": {
			desc: "attempt failed at pin-image",
		},
		"long ascii description": {
			desc:      strings.Repeat("a", maxEmbedDescLen*2),
			truncated: true,
		},
		"long multi-byte description": {
			desc:      strings.Repeat("é", maxEmbedDescLen),
			truncated: true,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			embedDesc := embedDescription(test.desc)
			if len(embedDesc) > maxEmbedDescLen {
				t.Errorf("description exceeds limit: %d", len(embedDesc))
			}
			if !utf8.ValidString(embedDesc) {
				t.Errorf("description is not valid utf-8")
			}
			if strings.HasSuffix(embedDesc, "...```") != test.truncated {
				t.Errorf("incorrect truncation: %q", embedDesc[len(embedDesc)-10:])
			}
		})
	}
}
