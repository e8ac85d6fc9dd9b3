package usecase

import (
	"context"
	"sync"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/infrastructure/storage"
	"CompetitorWatch/internal/ports"
)

// fakeFetcher returns canned results per source and records calls.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string]domain.ScrapingResult
	calls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, src domain.Source) domain.ScrapingResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, src.ID)
	if res, ok := f.results[src.ID]; ok {
		return res
	}
	return domain.ScrapingResult{Reason: "no canned result"}
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeClassifier classifies via a configurable function.
type fakeClassifier struct {
	fn func(title string) (domain.Classification, error)
}

func (f *fakeClassifier) Classify(_ context.Context, title, _, _ string) (domain.Classification, error) {
	return f.fn(title)
}

func staticClassifier(impact domain.Impact) *fakeClassifier {
	return &fakeClassifier{fn: func(string) (domain.Classification, error) {
		return domain.Classification{
			Category:   domain.CategoryFeature,
			Impact:     impact,
			Confidence: 0.9,
			Summary:    "canned verdict",
		}, nil
	}}
}

// fakeNotifier records every dispatch attempt.
type fakeNotifier struct {
	mu        sync.Mutex
	alerts    []ports.Alert
	notices   []string
	digests   []domain.Digest
	digestRef string
	failAll   bool
}

func (f *fakeNotifier) NotifySystem(_ context.Context, _ ports.Severity, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, message)
	if f.failAll {
		return errChannelDown
	}
	return nil
}

func (f *fakeNotifier) NotifyHighImpact(_ context.Context, alert ports.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	if f.failAll {
		return errChannelDown
	}
	return nil
}

func (f *fakeNotifier) DeliverDigest(_ context.Context, digest domain.Digest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.digests = append(f.digests, digest)
	if f.failAll {
		return "", errChannelDown
	}
	if f.digestRef != "" {
		return f.digestRef, nil
	}
	return "channel:1", nil
}

func (f *fakeNotifier) alertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

func (f *fakeNotifier) digestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.digests)
}

func (f *fakeNotifier) noticeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}

type channelError string

func (e channelError) Error() string { return string(e) }

const errChannelDown = channelError("channel down")

// fakeOracle answers narrative synthesis with canned text.
type fakeOracle struct {
	reply string
	err   error
}

func (f *fakeOracle) Complete(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

func (f *fakeOracle) CompleteJSON(_ context.Context, _, _ string) ([]byte, error) {
	return []byte(f.reply), f.err
}

func memStore(sources ...domain.Source) *storage.MemoryStore {
	return storage.NewMemoryStore(sources)
}
