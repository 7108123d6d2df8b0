package memory

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/voicedesk/agent/contract"
	"github.com/tanpawarit/voicedesk/pkg/mem0"
)

type fakeClient struct {
	calls []string

	addRecords []mem0.Record
	addErr     error

	searchQuery   string
	searchResults []mem0.SearchResult
	searchErr     error
}

func (f *fakeClient) Add(_ context.Context, records []mem0.Record, _ string) error {
	f.calls = append(f.calls, "add")
	f.addRecords = records
	return f.addErr
}

func (f *fakeClient) Search(_ context.Context, query, _ string) ([]mem0.SearchResult, error) {
	f.calls = append(f.calls, "search")
	f.searchQuery = query
	return f.searchResults, f.searchErr
}

func newTestContext() *contractx.ConversationContext {
	cc := contractx.NewConversationContext("You are a helpful assistant.")
	cc.Append(contractx.RoleUser, "I want an SUV")
	return cc
}

func TestEnrichAddsBeforeSearch(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	enricher, err := NewEnricher(client, "user-1")
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}

	enricher.Enrich(context.Background(), newTestContext())

	if len(client.calls) != 2 || client.calls[0] != "add" || client.calls[1] != "search" {
		t.Fatalf("call order = %v, want [add search]", client.calls)
	}
	if len(client.addRecords) != 1 || client.addRecords[0].Content != "I want an SUV" {
		t.Fatalf("unexpected add records: %#v", client.addRecords)
	}
	if client.searchQuery != "I want an SUV" {
		t.Fatalf("search query = %q, want the utterance", client.searchQuery)
	}
}

func TestEnrichNoResultsLeavesContextUnchanged(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	enricher, err := NewEnricher(client, "user-1")
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}

	cc := newTestContext()
	enricher.Enrich(context.Background(), cc)

	if cc.Len() != 2 {
		t.Fatalf("context has %d messages, want 2", cc.Len())
	}
	last, _ := cc.Last()
	if last.Role != contractx.RoleUser || last.Content != "I want an SUV" {
		t.Fatalf("unexpected last message: %#v", last)
	}
}

func TestEnrichInsertsMemoryBeforeUtterance(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		searchResults: []mem0.SearchResult{{Memory: "likes SUVs"}},
	}
	enricher, err := NewEnricher(client, "user-1")
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}

	cc := newTestContext()
	enricher.Enrich(context.Background(), cc)

	if cc.Len() != 3 {
		t.Fatalf("context has %d messages, want 3", cc.Len())
	}
	memoryMsg := cc.Messages[1]
	if memoryMsg.Role != contractx.RoleMemory || memoryMsg.Content != "likes SUVs" {
		t.Fatalf("unexpected memory message: %#v", memoryMsg)
	}
	last, _ := cc.Last()
	if last.Role != contractx.RoleUser || last.Content != "I want an SUV" {
		t.Fatalf("utterance must stay last, got %#v", last)
	}
}

func TestEnrichJoinsMultipleMemoriesInServiceOrder(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		searchResults: []mem0.SearchResult{
			{Memory: "name is Pat"},
			{Memory: "likes SUVs"},
		},
	}
	enricher, err := NewEnricher(client, "user-1")
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}

	cc := newTestContext()
	enricher.Enrich(context.Background(), cc)

	memoryMsg := cc.Messages[1]
	if memoryMsg.Content != "name is Pat likes SUVs" {
		t.Fatalf("joined memory = %q", memoryMsg.Content)
	}
}

func TestEnrichAddFailureStillSearches(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		addErr:        errors.New("service down"),
		searchResults: []mem0.SearchResult{{Memory: "likes SUVs"}},
	}
	enricher, err := NewEnricher(client, "user-1")
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}

	cc := newTestContext()
	enricher.Enrich(context.Background(), cc)

	if len(client.calls) != 2 {
		t.Fatalf("calls = %v, want add then search", client.calls)
	}
	if cc.Len() != 3 {
		t.Fatalf("context has %d messages, want 3", cc.Len())
	}
}

func TestEnrichSearchFailureLeavesContextUnchanged(t *testing.T) {
	t.Parallel()

	client := &fakeClient{searchErr: errors.New("service down")}
	enricher, err := NewEnricher(client, "user-1")
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}

	cc := newTestContext()
	enricher.Enrich(context.Background(), cc)

	if cc.Len() != 2 {
		t.Fatalf("context has %d messages, want 2", cc.Len())
	}
}

func TestEnrichEmptyContextIsNoop(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	enricher, err := NewEnricher(client, "user-1")
	if err != nil {
		t.Fatalf("NewEnricher() error = %v", err)
	}

	enricher.Enrich(context.Background(), &contractx.ConversationContext{})

	if len(client.calls) != 0 {
		t.Fatalf("expected no memory calls, got %v", client.calls)
	}
}
