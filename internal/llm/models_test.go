package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(initial string) *ModelManager {
	return NewModelManager(testCatalog(), "test", initial, 3, silentLog())
}

func TestModelManagerDefaultsToSequenceHead(t *testing.T) {
	m := newManager("")
	assert.Equal(t, "m1", m.CurrentModel())
	assert.Equal(t, StateActive, m.State())
}

func TestFallbackWithinAndAcrossGroups(t *testing.T) {
	m := newManager("m1")

	require.True(t, m.FallbackToNextModel())
	assert.Equal(t, "m2", m.CurrentModel(), "next in same group")

	require.True(t, m.FallbackToNextModel())
	assert.Equal(t, "m3", m.CurrentModel(), "first of next group")
}

func TestFallbackAtEndOfSequence(t *testing.T) {
	m := newManager("m3")
	assert.False(t, m.FallbackToNextModel())
	assert.Equal(t, "m3", m.CurrentModel())
}

func TestFallbackAbsentModel(t *testing.T) {
	m := newManager("not-in-any-group")
	assert.False(t, m.FallbackToNextModel())
	assert.Equal(t, "not-in-any-group", m.CurrentModel())
}

func TestSetModel(t *testing.T) {
	m := newManager("m1")
	assert.True(t, m.SetModel("m3"))
	assert.Equal(t, "m3", m.CurrentModel())

	assert.False(t, m.SetModel("gpt-4"))
	assert.Equal(t, "m3", m.CurrentModel())
}

func TestAvailableModels(t *testing.T) {
	m := newManager("")
	var ids []string
	for _, model := range m.AvailableModels() {
		ids = append(ids, model.ID)
	}
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)
}

func TestInferenceConfigLayering(t *testing.T) {
	m := newManager("m1")

	p, err := m.InferenceConfig(InferenceParams{})
	require.NoError(t, err)
	assert.Equal(t, InferenceParams{MaxTokens: 1000, Temperature: 0.5, TopP: 0.9}, p)

	p, err = m.InferenceConfig(InferenceParams{Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.1, p.Temperature)
	assert.Equal(t, 1000, p.MaxTokens)

	require.True(t, m.SetModel("m2"))
	p, err = m.InferenceConfig(InferenceParams{})
	require.NoError(t, err)
	assert.Equal(t, DefaultInference, p)
}

func TestInferenceConfigUnknownModel(t *testing.T) {
	m := newManager("ghost")
	_, err := m.InferenceConfig(InferenceParams{})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRecoverFallbackWorthy(t *testing.T) {
	m := newManager("m1")
	m.Reset()

	err := errors.New("ThrottlingException: Rate limit exceeded")
	assert.NoError(t, m.Recover(err))
	assert.Equal(t, "m2", m.CurrentModel())
}

func TestRecoverProviderCodes(t *testing.T) {
	for _, code := range []int{429, 503, 529} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			m := newManager("m1")
			m.Reset()
			assert.NoError(t, m.Recover(&ProviderError{Provider: "test", Code: code, Message: "x"}))
			assert.Equal(t, "m2", m.CurrentModel())
		})
	}
}

func TestRecoverTransientKeepsModel(t *testing.T) {
	m := newManager("m1")
	m.Reset()
	assert.NoError(t, m.Recover(&ProviderError{Provider: "test", Code: 502, Message: "bad gateway"}))
	assert.Equal(t, "m1", m.CurrentModel())
}

func TestRecoverFatalErrors(t *testing.T) {
	fatal := []error{
		errors.New("validation error: bad request"),
		&ProviderError{Provider: "test", Code: 400, Message: "bad request"},
		fmt.Errorf("test: %w: stop reason %q", ErrUnrecognizedResponse, "content_filter"),
		context.Canceled,
	}
	for _, err := range fatal {
		m := newManager("m1")
		m.Reset()
		assert.Same(t, err, m.Recover(err))
		assert.Equal(t, "m1", m.CurrentModel())
	}
}

func TestRecoverCapReturnsOriginalError(t *testing.T) {
	m := newManager("m1")
	m.Reset()

	errs := []error{
		errors.New("rate limit 1"),
		errors.New("rate limit 2"),
		errors.New("rate limit 3"),
	}
	assert.NoError(t, m.Recover(errs[0]))
	assert.NoError(t, m.Recover(errs[1]))
	assert.Same(t, errs[2], m.Recover(errs[2]))
	assert.Equal(t, "m3", m.CurrentModel(), "the capped attempt does not advance")
	assert.Equal(t, StateActive, m.State())
}

func TestRecoverExhaustsAtLastModel(t *testing.T) {
	m := newManager("m3")
	m.Reset()

	err := errors.New("model is overloaded")
	assert.Same(t, err, m.Recover(err))
	assert.Equal(t, StateExhausted, m.State())
	assert.Equal(t, "", m.CurrentModel())

	assert.True(t, m.Restart())
	assert.Equal(t, "m1", m.CurrentModel())
	assert.Equal(t, StateActive, m.State())
}

func TestHandleErrorAbsentModelNeverMoves(t *testing.T) {
	m := newManager("orphan")
	m.Reset()

	calls := 0
	orig := errors.New("rate limit exceeded")
	_, err := m.HandleError(orig, func() (*Result, error) {
		calls++
		return nil, errors.New("rate limit again")
	})
	assert.Same(t, orig, err)
	assert.Equal(t, 0, calls)
	assert.Equal(t, "orphan", m.CurrentModel())
}

func TestHandleErrorRetriesOnNextModel(t *testing.T) {
	m := newManager("m1")
	m.Reset()

	var seen []string
	res, err := m.HandleError(errors.New("quota exceeded"), func() (*Result, error) {
		seen = append(seen, m.CurrentModel())
		return &Result{Kind: KindResponse, Content: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
	assert.Equal(t, []string{"m2"}, seen)
}

func TestHandleErrorBounded(t *testing.T) {
	m := newManager("m1")
	m.Reset()

	calls := 0
	_, err := m.HandleError(errors.New("connection reset by peer"), func() (*Result, error) {
		calls++
		return nil, errors.New("connection reset by peer")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "one initial failure plus two retries")
}

func TestIsFallbackWorthy(t *testing.T) {
	yes := []string{
		"Too many requests, please wait",
		"ServiceQuotaExceededException",
		"ThrottlingException",
		"The model is not available in this region",
		"Invocation of model ID x with on-demand throughput isn't supported",
		"Retry your request with the ID or ARN of an inference profile",
		"Overloaded",
	}
	for _, msg := range yes {
		assert.True(t, IsFallbackWorthy(errors.New(msg)), msg)
	}
	assert.False(t, IsFallbackWorthy(errors.New("invalid api key")))
	assert.False(t, IsFallbackWorthy(nil))
}
