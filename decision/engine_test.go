// ABOUTME: Tests for the decision engine and response parsing
// ABOUTME: Covers JSON extraction, validation, fallback decisions, and audit logging
package decision

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

type recordingAudit struct {
	mu      sync.Mutex
	records []models.DecisionRecord
	err     error
}

func (a *recordingAudit) Record(_ context.Context, rec models.DecisionRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return a.err
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"prose around", "Sure! Here it is:\n{\"action\":\"engage\"}\nThanks.", `{"action":"engage"}`},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"brace in string", `{"reasoning":"use {name}","a":1}`, `{"reasoning":"use {name}","a":1}`},
		{"invalid then valid", `{not json} {"a":2}`, `{"a":2}`},
		{"unclosed then valid", `{ oops {"a":3}`, `{"a":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExtractJSON("no json here")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision(models.DecisionShouldEngage,
		`{"action":"ENGAGE","reasoning":"fit","confidence":1.7,"alternatives":[{"action":"skip","score":0.1},{"action":"defer","score":0.4}]}`)
	require.NoError(t, err)
	assert.Equal(t, "engage", d.Action)
	assert.Equal(t, 1.0, d.Confidence)
	require.Len(t, d.Alternatives, 2)
	assert.Equal(t, "defer", d.Alternatives[0].Action)

	_, err = ParseDecision(models.DecisionChannelSelection, `{"action":"fax","confidence":0.9}`)
	assert.Error(t, err)

	_, err = ParseDecision(models.DecisionMessaging, `{"reasoning":"no action"}`)
	assert.Error(t, err)

	d, err = ParseDecision(models.DecisionMessaging, `{"action":"send","metadata":{"subject":"Hi"}}`)
	require.NoError(t, err)
	assert.Equal(t, 0.5, d.Confidence)
	assert.Equal(t, "Hi", d.MetadataString("subject"))
}

func TestDecideSuccessIsAudited(t *testing.T) {
	fake := NewFakeProvider()
	audit := &recordingAudit{}
	engine := NewEngine(fake, audit, nil)

	d := engine.Decide(context.Background(), models.DecisionShouldEngage, map[string]interface{}{
		"prospect_id":  "p-1",
		"intent_score": 80,
	})

	assert.Equal(t, "engage", d.Action)
	assert.False(t, d.IsFallback())
	require.Len(t, audit.records, 1)
	assert.Equal(t, "p-1", audit.records[0].ProspectID)
	assert.Equal(t, models.DecisionShouldEngage, audit.records[0].Type)
	assert.Contains(t, audit.records[0].Context, `"intent_score":80`)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, FormatJSON, calls[0].Hints[HintFormat])
	assert.Contains(t, calls[0].SystemPrompt, "engage")
}

func TestDecideTransportFailureFallsBack(t *testing.T) {
	fake := NewFakeProvider()
	fake.Fail(string(models.DecisionShouldEngage), &TransportError{Kind: KindServerError, Status: 503, Err: errors.New("unavailable")})
	engine := NewEngine(fake, nil, nil)

	d := engine.Decide(context.Background(), models.DecisionShouldEngage, nil)

	assert.Equal(t, models.ActionDefer, d.Action)
	assert.Equal(t, FallbackConfidence, d.Confidence)
	assert.True(t, d.IsFallback())
	assert.True(t, IsTransportFallback(d))
	assert.Equal(t, FailureTransport, d.MetadataString("failure"))
	assert.Contains(t, d.MetadataString("error"), "unavailable")
	assert.Equal(t, Stats{Decisions: 1, Fallbacks: 1}, engine.Stats())
}

func TestDecideParseFailureFallsBack(t *testing.T) {
	fake := NewFakeProvider()
	fake.Script(string(models.DecisionTiming), FakeResponse{Text: "I think Tuesday works."})
	engine := NewEngine(fake, nil, nil)

	d := engine.Decide(context.Background(), models.DecisionTiming, map[string]interface{}{})

	assert.Equal(t, models.ActionDefer, d.Action)
	assert.False(t, IsTransportFallback(d))
	assert.Equal(t, FailureParse, d.MetadataString("failure"))
	assert.Equal(t, "I think Tuesday works.", d.MetadataString("raw"))
}

func TestDecideAuditFailureIsNotFatal(t *testing.T) {
	engine := NewEngine(NewFakeProvider(), &recordingAudit{err: errors.New("disk full")}, nil)
	d := engine.Decide(context.Background(), models.DecisionHandoff, nil)
	assert.Equal(t, "handoff", d.Action)
}

func TestFakeProviderScriptsRepeatLastEntry(t *testing.T) {
	fake := NewFakeProvider()
	fake.Script("classify", FakeResponse{Text: "one"}, FakeResponse{Text: "two"})
	req := Request{Hints: map[string]string{HintKind: "classify"}}

	var got []string
	for i := 0; i < 3; i++ {
		resp, err := fake.Invoke(context.Background(), req)
		require.NoError(t, err)
		got = append(got, resp.Text)
	}
	assert.Equal(t, []string{"one", "two", "two"}, got)
	assert.Equal(t, 3, fake.CallCount("classify"))

	_, err := fake.Invoke(context.Background(), Request{Hints: map[string]string{HintKind: "unknown"}})
	assert.Error(t, err)
}
