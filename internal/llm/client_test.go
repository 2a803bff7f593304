package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls    atomic.Int32
	failures int32
	reply    string
	err      error
	deadline atomic.Int64
}

func (f *fakeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	n := f.calls.Add(1)
	if dl, ok := ctx.Deadline(); ok {
		f.deadline.Store(int64(time.Until(dl)))
	}
	if n <= f.failures {
		return "", f.err
	}
	return f.reply + req.Prompt, nil
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *countingObserver) ObserveLLMCall(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func fastConfig() ClientConfig {
	return ClientConfig{MaxAttempts: 2, Backoff: time.Millisecond, Timeout: time.Minute, LightTimeout: time.Second}
}

func TestClientRetriesOnce(t *testing.T) {
	fc := &fakeCompleter{failures: 1, err: errors.New("503"), reply: "ok:"}
	obs := &countingObserver{}
	c := NewClient(fastConfig(), func() (Completer, error) { return fc, nil }, nil, WithObserver(obs))

	out, err := c.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok:p", out)
	assert.Equal(t, int32(2), fc.calls.Load())
	assert.Equal(t, []string{"error", "ok"}, obs.outcomes)
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	fc := &fakeCompleter{failures: 10, err: errors.New("timeout")}
	c := NewClient(fastConfig(), func() (Completer, error) { return fc, nil }, nil)

	_, err := c.Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, int32(2), fc.calls.Load())
}

func TestClientLightTimeout(t *testing.T) {
	fc := &fakeCompleter{reply: "x"}
	c := NewClient(fastConfig(), func() (Completer, error) { return fc, nil }, nil)

	_, err := c.Complete(context.Background(), Request{Prompt: "p", Light: true})
	require.NoError(t, err)
	assert.LessOrEqual(t, time.Duration(fc.deadline.Load()), time.Second)

	_, err = c.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Greater(t, time.Duration(fc.deadline.Load()), time.Second)
}

func TestClientBuildsProviderOnce(t *testing.T) {
	var builds atomic.Int32
	fc := &fakeCompleter{reply: "x"}
	c := NewClient(fastConfig(), func() (Completer, error) {
		builds.Add(1)
		return fc, nil
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Complete(context.Background(), Request{Prompt: "p"})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, int32(10), fc.calls.Load())
}

func TestClientNotConfigured(t *testing.T) {
	var builds atomic.Int32
	c := NewClient(fastConfig(), func() (Completer, error) {
		builds.Add(1)
		return nil, ErrNotConfigured
	}, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Complete(context.Background(), Request{Prompt: "p"})
		require.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.Equal(t, int32(1), builds.Load())
}

func TestClientHonoursCancellation(t *testing.T) {
	fc := &fakeCompleter{failures: 10, err: errors.New("boom")}
	cfg := fastConfig()
	cfg.Backoff = time.Hour
	c := NewClient(cfg, func() (Completer, error) { return fc, nil }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Complete(ctx, Request{Prompt: "p"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), fc.calls.Load())
}

func TestClientEmptyReplyIsRetried(t *testing.T) {
	fc := &fakeCompleter{}
	c := NewClient(fastConfig(), func() (Completer, error) { return fc, nil }, nil)
	_, err := c.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, int32(2), fc.calls.Load())
}

func TestClientCompleteImageNeedsVisionProvider(t *testing.T) {
	c := NewClient(fastConfig(), func() (Completer, error) { return &fakeCompleter{reply: "x"}, nil }, nil)
	_, err := c.CompleteImage(context.Background(), "prompt", []byte("png"))
	require.Error(t, err)
}
