// Package notify sends recommendation alerts to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

var (
	ErrNotifierStopped = errors.New("notifier stopped")
	ErrQueueFull       = errors.New("message queue is full")
)

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier queues alerts and sends them from one goroutine,
// spacing messages by a fixed interval.
type TelegramNotifier struct {
	bot           sender
	chatID        int64
	minConfidence int
	interval      time.Duration

	mu       sync.Mutex
	lastSend time.Time

	queue     chan string
	queueDone chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier connects to the bot API and starts the sender.
func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	n := newTelegramNotifier(bot, cfg.ChatID, cfg.MinConfidence, telegramSendInterval)
	slog.Info("Telegram notifier initialized", "chat_id", cfg.ChatID, "bot", bot.Self.UserName)
	return n, nil
}

func newTelegramNotifier(bot sender, chatID int64, minConfidence int, interval time.Duration) *TelegramNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:           bot,
		chatID:        chatID,
		minConfidence: minConfidence,
		interval:      interval,
		queue:         make(chan string, 100),
		queueDone:     make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
	go n.messageSender()
	return n
}

// QueueLen returns current number of messages in the send queue.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil {
		return 0
	}
	return len(n.queue)
}

// NotifyRecommendations queues one alert per recommendation at or above the
// alert confidence. It never blocks on a full queue.
func (n *TelegramNotifier) NotifyRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if n == nil {
		return nil
	}
	var errs []error
	for i := range recs {
		if recs[i].Confidence < n.minConfidence {
			continue
		}
		if err := n.enqueue(ctx, FormatRecommendation(&recs[i])); err != nil {
			slog.Warn("Telegram alert dropped", "match", recs[i].MatchID, "error", err)
			errs = append(errs, err)
			if !errors.Is(err, ErrQueueFull) {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// SendTestAlert queues a test message.
func (n *TelegramNotifier) SendTestAlert(ctx context.Context, message string) error {
	if n == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	text := fmt.Sprintf("*Test Alert*\n\n%s\n\n_Time: %s_", escapeMarkdown(message), time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	return n.enqueue(ctx, text)
}

func (n *TelegramNotifier) enqueue(ctx context.Context, text string) error {
	if n.ctx.Err() != nil {
		return ErrNotifierStopped
	}
	select {
	case <-n.ctx.Done():
		return ErrNotifierStopped
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop stops the notifier and waits for all queued messages to be sent
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
}

func (n *TelegramNotifier) messageSender() {
	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case text := <-n.queue:
					n.send(text)
				default:
					close(n.queueDone)
					return
				}
			}
		case text := <-n.queue:
			n.send(text)
		}
	}
}

func (n *TelegramNotifier) send(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := n.interval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	n.lastSend = time.Now()
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send: failed", "error", err, "message_preview", truncateString(text, 50))
		return
	}
	slog.Debug("Telegram send: success", "queue_length", len(n.queue))
}

// FormatRecommendation renders a recommendation as a Markdown alert.
func FormatRecommendation(r *models.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: %s vs %s\n", r.Category, escapeMarkdown(r.HomeTeam), escapeMarkdown(r.AwayTeam))
	if r.League != "" {
		fmt.Fprintf(&b, "%s | ", escapeMarkdown(r.League))
	}
	fmt.Fprintf(&b, "%s UTC\n\n", r.Kickoff.UTC().Format("Jan 2 15:04"))
	fmt.Fprintf(&b, "Pick: *%s* (%s)\n", escapeMarkdown(r.RecommendedSide), r.BetType)
	fmt.Fprintf(&b, "Confidence: *%d%%*\n", r.Confidence)
	if r.Odds > 0 {
		fmt.Fprintf(&b, "Best price: *%.2f*", r.Odds)
		if r.Bookmaker != "" {
			fmt.Fprintf(&b, " @ %s", escapeMarkdown(r.Bookmaker))
		}
		b.WriteString("\n")
	}
	if len(r.KeyFactors) > 0 {
		fmt.Fprintf(&b, "\n%s\n", escapeMarkdown(strings.Join(r.KeyFactors, ", ")))
	}
	return b.String()
}

// escapeMarkdown escapes the characters legacy Markdown treats as markup.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
