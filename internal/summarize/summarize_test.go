// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/pkg/types"
)

// mockClient replays scripted replies in call order. failAt makes the n-th
// call (1-based) return err instead.
type mockClient struct {
	replies  []string
	failAt   int
	err      error
	calls    int
	requests []llm.Request
}

func (m *mockClient) Complete(_ context.Context, req llm.Request) (string, error) {
	m.calls++
	m.requests = append(m.requests, req)
	if m.failAt != 0 && m.calls == m.failAt {
		return "", m.err
	}
	idx := m.calls - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx], nil
}

var testModels = types.ModelConfig{
	Segment:   "segment-model",
	Summary:   "summary-model",
	Quotes:    "quotes-model",
	Vision:    "vision-model",
	Organize:  "organize-model",
	Keynote:   "keynote-model",
	Translate: "translate-model",
}

func TestSummarizeSection(t *testing.T) {
	mock := &mockClient{replies: []string{"A short summary."}}
	s := New(mock, testModels, nil)

	got, err := s.SummarizeSection(context.Background(), "Method", "We train a model.")
	if err != nil {
		t.Fatalf("SummarizeSection() error = %v", err)
	}
	if got != "A short summary." {
		t.Errorf("SummarizeSection() = %q, want model reply", got)
	}

	req := mock.requests[0]
	if req.Model != "summary-model" {
		t.Errorf("model = %q, want summary-model", req.Model)
	}
	if len(req.Messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %q, want system", req.Messages[0].Role)
	}
	last := req.Messages[3].Text
	if !strings.Contains(last, "## Title: Method") {
		t.Errorf("payload message %q missing the title", last)
	}
	if !strings.Contains(last, "We train a model.") {
		t.Errorf("payload message %q missing the content", last)
	}
}

func TestDescribeImage(t *testing.T) {
	mock := &mockClient{replies: []string{"The figure shows accuracy."}}
	s := New(mock, testModels, nil)

	got, err := s.DescribeImage(context.Background(), "aGVsbG8=", "A summary.")
	if err != nil {
		t.Fatalf("DescribeImage() error = %v", err)
	}
	if got != "The figure shows accuracy." {
		t.Errorf("DescribeImage() = %q, want model reply", got)
	}

	req := mock.requests[0]
	if req.Model != "vision-model" {
		t.Errorf("model = %q, want vision-model", req.Model)
	}
	if len(req.Images) != 1 {
		t.Fatalf("got %d images, want 1", len(req.Images))
	}
	if req.Images[0].MediaType != "image/jpeg" {
		t.Errorf("media type = %q, want image/jpeg", req.Images[0].MediaType)
	}
	if req.Images[0].Data != "aGVsbG8=" {
		t.Errorf("image data = %q, want the encoding", req.Images[0].Data)
	}
	if req.Messages[len(req.Messages)-1].Text != "A summary." {
		t.Error("commentary prompt not conditioned on the section summary")
	}
}

func TestOrganizeSummary(t *testing.T) {
	mock := &mockClient{replies: []string{"- bullet one\n- bullet two"}}
	s := New(mock, testModels, nil)

	got, err := s.OrganizeSummary(context.Background(), "line one\nline two", []string{"img A", "img B"})
	if err != nil {
		t.Fatalf("OrganizeSummary() error = %v", err)
	}
	if got != "- bullet one\n- bullet two" {
		t.Errorf("OrganizeSummary() = %q, want model reply", got)
	}

	req := mock.requests[0]
	if req.Model != "organize-model" {
		t.Errorf("model = %q, want organize-model", req.Model)
	}
	var joined string
	for _, msg := range req.Messages {
		joined += msg.Text + "\n"
	}
	for _, want := range []string{"line one\nline two", "img A", "img B"} {
		if !strings.Contains(joined, want) {
			t.Errorf("organize prompt missing %q", want)
		}
	}
}

func TestExtractQuotesTitlePolicy(t *testing.T) {
	tests := []struct {
		title     string
		wantCall  bool
		wantValue string
	}{
		{title: "Abstract", wantCall: false, wantValue: NoQuotes},
		{title: "abstract", wantCall: false, wantValue: NoQuotes},
		{title: "References", wantCall: false, wantValue: NoQuotes},
		{title: "5. Conclusion", wantCall: false, wantValue: NoQuotes},
		{title: "Conclusions", wantCall: false, wantValue: NoQuotes},
		{title: "Method", wantCall: true, wantValue: "> 'A quote.'"},
		{title: "Experiments", wantCall: true, wantValue: "> 'A quote.'"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			mock := &mockClient{replies: []string{"> 'A quote.'"}}
			s := New(mock, testModels, nil)

			got, err := s.ExtractQuotes(context.Background(), tt.title, "content")
			if err != nil {
				t.Fatalf("ExtractQuotes() error = %v", err)
			}
			if got != tt.wantValue {
				t.Errorf("ExtractQuotes() = %q, want %q", got, tt.wantValue)
			}
			wantCalls := 0
			if tt.wantCall {
				wantCalls = 1
			}
			if mock.calls != wantCalls {
				t.Errorf("model called %d times, want %d", mock.calls, wantCalls)
			}
		})
	}
}

func TestExtractQuotesPromptShape(t *testing.T) {
	mock := &mockClient{replies: []string{"> 'A quote.'"}}
	s := New(mock, testModels, nil)

	if _, err := s.ExtractQuotes(context.Background(), "Method", "We train a model."); err != nil {
		t.Fatalf("ExtractQuotes() error = %v", err)
	}

	req := mock.requests[0]
	if req.Model != "quotes-model" {
		t.Errorf("model = %q, want quotes-model", req.Model)
	}
	task := req.Messages[1].Text
	if !strings.Contains(task, "NO_QUOTES") {
		t.Error("quote prompt missing the sentinel instruction")
	}
	if !strings.Contains(task, "ONLY three critical quotes") {
		t.Error("quote prompt missing the quote limit")
	}
	if !strings.Contains(req.Messages[2].Text, "## Title: Method") {
		t.Error("quote prompt missing the section title")
	}
}

func TestSectionNotes(t *testing.T) {
	// Method carries one image: summary, image, organize, quotes = 4 calls.
	// Experiments carries none: summary, organize, quotes = 3 calls.
	mock := &mockClient{replies: []string{
		"summary-1", "image-1", "organized-1", "quotes-1",
		"summary-2", "organized-2", "quotes-2",
	}}
	s := New(mock, testModels, nil)

	infos := []types.ResolvedSectionInfo{
		{
			Title:      "Method",
			Content:    "method text",
			ImagePaths: []string{"/s/figure-12-1.jpg"},
			Encodings:  []string{"Zmln"},
		},
		{
			Title:      "Experiments",
			Content:    "experiment text",
			TablePaths: []string{"/s/table-3-2.jpg"},
		},
	}

	notes, degradation := s.SectionNotes(context.Background(), infos)
	if degradation != nil {
		t.Fatalf("SectionNotes() degradation = %v", degradation)
	}
	if mock.calls != 7 {
		t.Errorf("model called %d times, want 7", mock.calls)
	}

	want := []types.SectionNote{
		{
			Header:         "Method",
			SummaryContent: "organized-1",
			Quotes:         "quotes-1",
			ImagePaths:     []string{"/s/figure-12-1.jpg"},
		},
		{
			Header:         "Experiments",
			SummaryContent: "organized-2",
			Quotes:         "quotes-2",
			TablePaths:     []string{"/s/table-3-2.jpg"},
		},
	}
	if !reflect.DeepEqual(notes, want) {
		t.Errorf("SectionNotes() = %+v, want %+v", notes, want)
	}

	// The image commentary call is conditioned on the first summary.
	imgReq := mock.requests[1]
	if imgReq.Model != "vision-model" {
		t.Errorf("second call model = %q, want vision-model", imgReq.Model)
	}
	if imgReq.Messages[len(imgReq.Messages)-1].Text != "summary-1" {
		t.Error("image call not conditioned on the section summary")
	}
}

func TestSectionNotesTitlePolicyApplies(t *testing.T) {
	// Abstract skips the quote call: summary, organize only.
	mock := &mockClient{replies: []string{"summary", "organized"}}
	s := New(mock, testModels, nil)

	notes, degradation := s.SectionNotes(context.Background(), []types.ResolvedSectionInfo{
		{Title: "Abstract", Content: "abstract text"},
	})
	if degradation != nil {
		t.Fatalf("SectionNotes() degradation = %v", degradation)
	}
	if len(notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(notes))
	}
	if notes[0].Quotes != NoQuotes {
		t.Errorf("Quotes = %q, want %q", notes[0].Quotes, NoQuotes)
	}
	if mock.calls != 2 {
		t.Errorf("model called %d times, want 2", mock.calls)
	}
}

func TestSectionNotesDegradesOnFailure(t *testing.T) {
	mock := &mockClient{
		replies: []string{"summary-1", "organized-1", "quotes-1", "summary-2"},
		failAt:  5,
		err:     errors.New("api down"),
	}
	s := New(mock, testModels, nil)

	infos := []types.ResolvedSectionInfo{
		{Title: "Method", Content: "method text"},
		{Title: "Experiments", Content: "experiment text"},
	}

	notes, degradation := s.SectionNotes(context.Background(), infos)
	if notes != nil {
		t.Errorf("notes = %v, want nil on degradation", notes)
	}
	if degradation == nil {
		t.Fatal("expected a degradation, got nil")
	}
	if degradation.Stage != StageSectionNotes {
		t.Errorf("Stage = %q, want %q", degradation.Stage, StageSectionNotes)
	}
	if !strings.Contains(degradation.Message, "api down") {
		t.Errorf("Message = %q, does not carry the cause", degradation.Message)
	}
}

func TestSectionNotesEmptyInput(t *testing.T) {
	mock := &mockClient{err: errors.New("must not be called"), failAt: 1}
	s := New(mock, testModels, nil)

	notes, degradation := s.SectionNotes(context.Background(), nil)
	if degradation != nil {
		t.Fatalf("SectionNotes() degradation = %v", degradation)
	}
	if len(notes) != 0 {
		t.Errorf("got %d notes, want 0", len(notes))
	}
	if mock.calls != 0 {
		t.Errorf("model called %d times, want 0", mock.calls)
	}
}

func TestKeynote(t *testing.T) {
	mock := &mockClient{replies: []string{"### Problem\n- Slow training."}}
	s := New(mock, testModels, nil)

	got, degradation := s.Keynote(context.Background(), "full paper text")
	if degradation != nil {
		t.Fatalf("Keynote() degradation = %v", degradation)
	}
	if got != "### Problem\n- Slow training." {
		t.Errorf("Keynote() = %q, want model reply", got)
	}

	req := mock.requests[0]
	if req.Model != "keynote-model" {
		t.Errorf("model = %q, want keynote-model", req.Model)
	}
	task := req.Messages[1].Text
	for _, heading := range []string{"### Problem", "### Solution", "### Experiment", "### Innovation", "### Comments / Critique"} {
		if !strings.Contains(task, heading) {
			t.Errorf("keynote prompt missing heading %q", heading)
		}
	}
	if !strings.Contains(req.Messages[2].Text, "full paper text") {
		t.Error("keynote prompt missing the paper text")
	}
}

func TestKeynoteDegradesOnFailure(t *testing.T) {
	mock := &mockClient{failAt: 1, err: errors.New("api down")}
	s := New(mock, testModels, nil)

	got, degradation := s.Keynote(context.Background(), "full paper text")
	if got != "" {
		t.Errorf("Keynote() = %q, want empty on degradation", got)
	}
	if degradation == nil {
		t.Fatal("expected a degradation, got nil")
	}
	if degradation.Stage != StageKeynote {
		t.Errorf("Stage = %q, want %q", degradation.Stage, StageKeynote)
	}
}
