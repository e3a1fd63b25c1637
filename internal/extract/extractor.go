// Package extract turns free-form journal notes into candidate task lines
// using the Anthropic completion API. It is the upstream collaborator of
// the merge engine: extraction failures surface here, before any merge
// runs, and malformed model output is dropped with a count rather than
// crashing the capture.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/noleftovers/nlv/internal/task"
)

// DefaultModel is used when the config does not name one. Task extraction
// is a simple structured-output job, so the cost-efficient model is the
// default.
const DefaultModel = "claude-3-5-haiku-20241022"

// maxNoteBytes bounds how much note text is sent per extraction.
const maxNoteBytes = 64 * 1024

// Config holds extractor configuration.
type Config struct {
	APIKey   string      // Anthropic API key (if empty, reads ANTHROPIC_API_KEY)
	Model    string      // Model to use (default: DefaultModel)
	MaxTasks int         // Upper bound on tasks returned per note (default: 20)
	Retry    RetryConfig // Retry configuration (uses defaults if zero)
}

// Extractor calls the completion API and maps its reply to task values.
type Extractor struct {
	client         *anthropic.Client
	model          string
	maxTasks       int
	retry          RetryConfig
	limiter        *rate.Limiter
	concurrencySem *semaphore.Weighted
}

// Report carries per-extraction metrics for logging and history.
type Report struct {
	TaskCount    int           `json:"task_count"`
	DroppedCount int           `json:"dropped_count"` // malformed model entries
	InputTokens  int64         `json:"input_tokens"`
	OutputTokens int64         `json:"output_tokens"`
	Duration     time.Duration `json:"duration"`
	Model        string        `json:"model"`
}

// New creates an extractor. The API key comes from cfg or the
// ANTHROPIC_API_KEY environment variable.
func New(cfg Config) (*Extractor, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTasks := cfg.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 20
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	var limiter *rate.Limiter
	if retry.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(retry.RequestsPerMinute)/60.0), 1)
	}
	var sem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		sem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Extractor{
		client:         &client,
		model:          model,
		maxTasks:       maxTasks,
		retry:          retry,
		limiter:        limiter,
		concurrencySem: sem,
	}, nil
}

// Model returns the model name this extractor calls.
func (e *Extractor) Model() string {
	return e.model
}

// ExtractTasks asks the model for the unresolved action items in noteText
// and returns them in the model's order, bounded by MaxTasks. Entries the
// model returns that are empty or malformed are dropped and counted in the
// report; they are never fatal.
func (e *Extractor) ExtractTasks(ctx context.Context, noteText string) ([]task.Task, *Report, error) {
	startTime := time.Now()

	if strings.TrimSpace(noteText) == "" {
		return nil, &Report{Model: e.model, Duration: time.Since(startTime)}, nil
	}
	if len(noteText) > maxNoteBytes {
		noteText = noteText[:maxNoteBytes]
	}

	prompt := e.buildPrompt(noteText)

	var response *anthropic.Message
	err := e.retryWithBackoff(ctx, "extract-tasks", func(attemptCtx context.Context) error {
		resp, apiErr := e.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(e.model),
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	parseResult := ParseJSON[[]string](responseText, "task extraction response")
	if !parseResult.Success {
		return nil, nil, fmt.Errorf("could not parse extraction response: %s", parseResult.Error)
	}

	tasks, dropped := TasksFromStrings(parseResult.Data, e.maxTasks)

	report := &Report{
		TaskCount:    len(tasks),
		DroppedCount: dropped,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
		Duration:     time.Since(startTime),
		Model:        e.model,
	}
	return tasks, report, nil
}

// TasksFromStrings maps raw model entries to tasks, in order, bounded by
// maxTasks. Entries are accepted either as bare descriptions or as full
// checkbox lines; blank and checked entries are dropped with a count.
func TasksFromStrings(entries []string, maxTasks int) ([]task.Task, int) {
	var tasks []task.Task
	dropped := 0
	for _, entry := range entries {
		if len(tasks) >= maxTasks {
			dropped++
			continue
		}
		if t, ok := task.ParseLine(entry); ok {
			if t.IsZero() {
				dropped++
				continue
			}
			tasks = append(tasks, t)
			continue
		}
		if task.IsChecked(entry) {
			dropped++
			continue
		}
		desc := strings.TrimSpace(entry)
		if desc == "" {
			dropped++
			continue
		}
		tasks = append(tasks, task.Task{Description: desc})
	}
	return tasks, dropped
}

// buildPrompt builds the extraction prompt. It asks for a bare JSON array
// so the reply parses with the resilient parser even when the model adds
// fences or prose.
func (e *Extractor) buildPrompt(noteText string) string {
	return fmt.Sprintf(`You are an assistant that extracts unresolved action items from a personal journal note.

Journal note:
---
%s
---

Find the action items the author has NOT yet completed: things to do, follow up on, buy, send, fix, or decide. Ignore anything already done, and ignore ideas that are not actionable.

Respond with ONLY a JSON array of strings, at most %d entries, each entry one short imperative task description. Do not include checkbox markers, dates, or links. If there are no unresolved action items, respond with [].

Example response:
["Email the vendor about the invoice", "File taxes"]`, noteText, e.maxTasks)
}
