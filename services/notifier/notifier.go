package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sjsage522/hoyocodeworker/internal/profile"
	"sjsage522/hoyocodeworker/internal/scraper"
	apperrors "sjsage522/hoyocodeworker/pkg/errors"

	"github.com/go-resty/resty/v2"
)

// Notifier delivers messages about one game
type Notifier interface {
	// SendCode announces a newly discovered code
	SendCode(ctx context.Context, code scraper.CodeRecord) error

	// SendText posts a plain message
	SendText(ctx context.Context, content string) error

	// SendAlert posts a message that mentions the operator
	SendAlert(ctx context.Context, content string) error
}

// Message is a Discord webhook payload
type Message struct {
	Content   string  `json:"content,omitempty"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// Embed is a rich block of a Discord message
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DiscordNotifier posts to a Discord webhook
type DiscordNotifier struct {
	client     *resty.Client
	webhookURL string
	mentionID  string
	profile    *profile.Profile
}

// NewDiscordNotifier creates a notifier branded for p
func NewDiscordNotifier(webhookURL, mentionID string, p *profile.Profile) *DiscordNotifier {
	return &DiscordNotifier{
		client:     resty.New().SetTimeout(10 * time.Second),
		webhookURL: webhookURL,
		mentionID:  mentionID,
		profile:    p,
	}
}

// CodeMessage builds the announcement of code
func CodeMessage(p *profile.Profile, code scraper.CodeRecord) Message {
	var rewards strings.Builder
	for _, r := range code.Rewards {
		fmt.Fprintf(&rewards, "×%s %s\n", r.Amount, r.Name)
	}

	description := fmt.Sprintf("```%s```\n[Click to activate](%s)\n\n**Valid**\n%s\n\n**Rewards**\n%s",
		code.Code,
		p.ActivationLink(code.Code),
		strings.Join(validLines(code), "\n"),
		rewards.String(),
	)

	return Message{
		Username:  p.BotName,
		AvatarURL: p.Avatar,
		Embeds: []Embed{{
			Title:       fmt.Sprintf("[%s] %s", code.Server, p.Name),
			Description: description,
		}},
	}
}

// validLines labels the validity window, naming the end date as the expiry
// once the code is expired
func validLines(code scraper.CodeRecord) []string {
	lines := code.Duration.Lines()
	if code.IsExpired && code.Duration.ValidUntil != nil {
		lines[1] = "Expired: " + *code.Duration.ValidUntil
	}
	return lines
}

// AlertContent prefixes content with a mention of mentionID when set
func AlertContent(mentionID, content string) string {
	if mentionID == "" {
		return content
	}
	return fmt.Sprintf("<@%s> %s", mentionID, content)
}

func (n *DiscordNotifier) SendCode(ctx context.Context, code scraper.CodeRecord) error {
	return n.post(ctx, CodeMessage(n.profile, code))
}

func (n *DiscordNotifier) SendText(ctx context.Context, content string) error {
	return n.post(ctx, Message{
		Content:   content,
		Username:  n.profile.BotName,
		AvatarURL: n.profile.Avatar,
	})
}

func (n *DiscordNotifier) SendAlert(ctx context.Context, content string) error {
	return n.SendText(ctx, AlertContent(n.mentionID, content))
}

// post sends msg once. Only 204 No Content counts as delivered.
func (n *DiscordNotifier) post(ctx context.Context, msg Message) error {
	game := n.profile.ID
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(n.webhookURL)
	if err != nil {
		return apperrors.NewNotify(game, "failed to post webhook", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		return apperrors.NewNotify(game, fmt.Sprintf("webhook returned status %d", resp.StatusCode()), nil)
	}
	return nil
}
