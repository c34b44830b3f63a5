package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "campus/internal/adapters/email"
	domain "campus/internal/domain/outbox"
)

// OutboxStoreForProcessor defines the store interface needed by OutboxProcessor.
type OutboxStoreForProcessor interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
}

// ActionExecutor executes a specific type of deferred action.
type ActionExecutor interface {
	// Execute runs the action and returns the provider's reference for it.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor replays queued notification deliveries with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStoreForProcessor
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStoreForProcessor, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 25,
		now:       time.Now,
	}
}

// WithClock replaces the processor's clock.
func (p *OutboxProcessor) WithClock(now func() time.Time) *OutboxProcessor {
	p.now = now
	return p
}

// ProcessPending attempts every due entry in one batch.
// PRE: Context is valid
// POST: Returns the number of entries attempted; each attempt is saved
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox entries: %w", err)
	}

	attempted := 0
	for _, entry := range entries {
		if !entry.IsDue(p.now(), p.baseDelay, p.maxDelay) {
			continue
		}
		attempted++
		if err := p.run(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err)
		}
	}
	return attempted, nil
}

// ProcessSingle retries one entry immediately, ignoring backoff.
// PRE: entryID is non-empty
// POST: Entry is attempted and saved unless it is terminal
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.Status == domain.StatusDone || entry.Status == domain.StatusAbandoned {
		return fmt.Errorf("entry %s is %s and cannot be retried", entryID, entry.Status)
	}
	if entry.Attempts >= entry.MaxAttempts {
		entry.MaxAttempts = entry.Attempts + 1
	}
	return p.run(ctx, entry)
}

// AbandonEntry marks an entry as abandoned by an admin.
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

func (p *OutboxProcessor) run(ctx context.Context, entry domain.Entry) error {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "status", entry.Status, "error", err)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// EmailPayload is the JSON structure of a queued email.
type EmailPayload struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// EmailExecutor replays queued emails through the configured sender.
type EmailExecutor struct {
	Sender emailAdapter.Sender
}

// Execute sends an email from the payload.
// PRE: payload is valid JSON matching EmailPayload
// POST: Returns the provider message ID
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(p.To) == 0 {
		return "", fmt.Errorf("queued email has no recipients")
	}
	res, err := e.Sender.Send(ctx, emailAdapter.SendRequest{To: p.To, From: p.From, Subject: p.Subject, HTML: p.HTML})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// StartBackgroundWorker periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed; done is closed after the last batch
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if n, err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err)
				} else if n > 0 {
					slog.Info("outbox_background_batch", "attempted", n)
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
	return finished
}
