package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"

	"github.com/rs/zerolog"
)

// LogNotifier writes the reminder to the log. It is the fallback when no push
// URL is configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, reminder *domain.Reminder) error {
	n.Log.Info().
		Str("name", reminder.Name).
		Str("kind", reminder.Kind).
		Str("message", reminder.Message).
		Msg("reminder due")
	return nil
}

// WebhookNotifier posts the reminder as JSON to the push URL in settings. The
// URL is re-read on every notification so changing it takes effect without a
// restart; with no URL configured it falls back to logging.
type WebhookNotifier struct {
	settings storage.SettingsStore
	client   *http.Client
	fallback LogNotifier
}

func NewWebhookNotifier(settings storage.SettingsStore, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		settings: settings,
		client:   &http.Client{Timeout: 10 * time.Second},
		fallback: LogNotifier{Log: log},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, reminder *domain.Reminder) error {
	settings, err := n.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings for reminder push: %w", err)
	}
	if settings.FeedDuePushURL == nil || *settings.FeedDuePushURL == "" {
		return n.fallback.Notify(ctx, reminder)
	}

	body, err := json.Marshal(map[string]string{
		"name":    reminder.Name,
		"kind":    reminder.Kind,
		"message": reminder.Message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *settings.FeedDuePushURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("reminder push failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("reminder push returned status %d", resp.StatusCode)
	}
	return nil
}
