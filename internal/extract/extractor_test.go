package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	e, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, e.Model())
	assert.Equal(t, 20, e.maxTasks)
	assert.Equal(t, DefaultRetryConfig().MaxRetries, e.retry.MaxRetries)
	assert.NotNil(t, e.limiter)
	assert.NotNil(t, e.concurrencySem)
}

func TestTasksFromStrings(t *testing.T) {
	entries := []string{
		"Email the vendor",
		"- [ ] File taxes",
		"- [x] already done",
		"   ",
		"Call Bob",
	}
	tasks, dropped := TasksFromStrings(entries, 20)

	require.Len(t, tasks, 3)
	assert.Equal(t, "Email the vendor", tasks[0].Description)
	assert.Equal(t, "File taxes", tasks[1].Description)
	assert.Equal(t, "Call Bob", tasks[2].Description)
	assert.Equal(t, 2, dropped)
}

func TestTasksFromStringsBounded(t *testing.T) {
	entries := []string{"a", "b", "c", "d"}
	tasks, dropped := TasksFromStrings(entries, 2)

	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Description)
	assert.Equal(t, "b", tasks[1].Description)
	assert.Equal(t, 2, dropped)
}

func TestBuildPromptBounds(t *testing.T) {
	e := &Extractor{model: DefaultModel, maxTasks: 7}
	prompt := e.buildPrompt("met Bob, need to email the vendor")

	assert.Contains(t, prompt, "at most 7 entries")
	assert.Contains(t, prompt, "met Bob, need to email the vendor")
	assert.Contains(t, prompt, "JSON array")
}

func TestExtractTasksEmptyNote(t *testing.T) {
	e := &Extractor{model: DefaultModel, maxTasks: 20, retry: DefaultRetryConfig()}
	tasks, report, err := e.ExtractTasks(context.Background(), "   \n\t")

	require.NoError(t, err)
	assert.Empty(t, tasks)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.TaskCount)
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retriable bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limit", errors.New("429 Too Many Requests"), true},
		{"server error", errors.New("500 Internal Server Error"), true},
		{"service unavailable", errors.New("service unavailable"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"auth failure", errors.New("401 Unauthorized"), false},
		{"bad request", errors.New("400 invalid request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retriable, isRetriableError(tt.err))
		})
	}
}

func TestRetryWithBackoffNonRetriable(t *testing.T) {
	e := &Extractor{retry: RetryConfig{MaxRetries: 3, InitialBackoff: 1, MaxBackoff: 1, BackoffMultiplier: 1, Timeout: 100}}

	calls := 0
	err := e.retryWithBackoff(context.Background(), "test-op", func(context.Context) error {
		calls++
		return errors.New("401 Unauthorized")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "non-retriable errors must not be retried")
}

func TestRetryWithBackoffRetriesUntilSuccess(t *testing.T) {
	e := &Extractor{retry: RetryConfig{MaxRetries: 3, InitialBackoff: 1, MaxBackoff: 1, BackoffMultiplier: 1, Timeout: 1 << 30}}

	calls := 0
	err := e.retryWithBackoff(context.Background(), "test-op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	e := &Extractor{retry: RetryConfig{MaxRetries: 2, InitialBackoff: 1, MaxBackoff: 1, BackoffMultiplier: 1, Timeout: 1 << 30}}

	calls := 0
	err := e.retryWithBackoff(context.Background(), "test-op", func(context.Context) error {
		calls++
		return errors.New("503 service unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, strings.Contains(err.Error(), "after 3 attempts"))
}
