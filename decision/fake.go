// ABOUTME: Deterministic in-process Provider for tests and offline runs
// ABOUTME: Serves scripted responses per request kind, records calls, and can inject failures
package decision

import (
	"context"
	"fmt"
	"sync"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// FakeResponse is one scripted reply. A non-nil Err is returned instead of Text.
type FakeResponse struct {
	Text string
	Err  error
}

// FakeProvider answers from scripts keyed by the request's kind hint. Each
// script is consumed in order and its last entry repeats. Kinds without a
// script get a fixed default answer.
type FakeProvider struct {
	mu      sync.Mutex
	scripts map[string][]FakeResponse
	calls   []Request
}

// NewFakeProvider creates an unscripted fake.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{scripts: make(map[string][]FakeResponse)}
}

// Script queues responses for a kind (a decision type or "classify").
func (f *FakeProvider) Script(kind string, responses ...FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[kind] = append(f.scripts[kind], responses...)
}

// Fail makes every call of a kind fail with err.
func (f *FakeProvider) Fail(kind string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[kind] = []FakeResponse{{Err: err}}
}

// Calls returns the requests received so far.
func (f *FakeProvider) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}

// CallCount returns how many requests of a kind were received.
func (f *FakeProvider) CallCount(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Hints[HintKind] == kind {
			n++
		}
	}
	return n
}

func (f *FakeProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, &TransportError{Kind: KindTimeout, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	kind := req.Hints[HintKind]
	script := f.scripts[kind]
	if len(script) > 0 {
		next := script[0]
		if len(script) > 1 {
			f.scripts[kind] = script[1:]
		}
		if next.Err != nil {
			return Response{}, next.Err
		}
		return Response{Text: next.Text}, nil
	}

	text, ok := defaultFakeAnswers[kind]
	if !ok {
		return Response{}, &TransportError{Kind: KindOther, Err: fmt.Errorf("no fake answer for %q", kind)}
	}
	return Response{Text: text}, nil
}

var defaultFakeAnswers = map[string]string{
	string(models.DecisionShouldEngage): `{"action":"engage","reasoning":"recent activity and sufficient intent","confidence":0.8,
		"alternatives":[{"action":"defer","score":0.15},{"action":"skip","score":0.05}]}`,
	string(models.DecisionChannelSelection): `{"action":"email","reasoning":"email address on file","confidence":0.75,
		"alternatives":[{"action":"linkedin","score":0.25}]}`,
	string(models.DecisionMessaging): `{"action":"send","reasoning":"personalized opener","confidence":0.7,
		"metadata":{"subject":"Quick question","body":"Hi, I noticed your team has been evaluating tools in this space. Open to a short chat?"}}`,
	string(models.DecisionTiming): `{"action":"propose","reasoning":"prospect asked for a call","confidence":0.7,
		"metadata":{"proposed_time":"next business day 14:00"}}`,
	string(models.DecisionHandoff): `{"action":"handoff","reasoning":"qualified and engaged","confidence":0.8,
		"metadata":{"summary":"Prospect is qualified and ready for an account executive."}}`,
	string(models.DecisionDraftResponse): `{"action":"respond","reasoning":"answer the reply directly","confidence":0.7,
		"metadata":{"body":"Thanks for getting back to me. Happy to share more detail."}}`,
}
