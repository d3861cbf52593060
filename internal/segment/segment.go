// Package segment splits a paper's plain text into titled sections with
// figure and table references, using a generation call that returns a fenced
// JSON array. Model replies are repaired and validated before use; malformed
// replies trigger a bounded re-request.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/pkg/types"
)

// segmentAttempts is the total number of generation attempts before giving up.
const segmentAttempts = 3

// SegmentationError reports that every attempt produced an unusable reply.
// Segmentation is a required stage, so callers treat this as fatal for the
// paper being processed.
type SegmentationError struct {
	Attempts int
	Err      error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmenting paper failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }

// ExtractSections asks the model to organize the paper text into sections
// and parses the reply. A reply with no fenced JSON array, undecodable JSON,
// or missing fields is discarded and the full generation call repeated, three
// attempts in total, sequentially and without backoff. Transport errors are
// returned immediately; they are not repaired by re-asking the same model.
func ExtractSections(ctx context.Context, client llm.Client, model, text string) ([]types.ExtractedSection, error) {
	messages, err := segmentMessages(text)
	if err != nil {
		return nil, fmt.Errorf("building segmentation prompt: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= segmentAttempts; attempt++ {
		reply, err := client.Complete(ctx, llm.Request{Model: model, Messages: messages})
		if err != nil {
			return nil, fmt.Errorf("segmentation call: %w", err)
		}

		sections, err := parseSections(reply)
		if err != nil {
			lastErr = err
			continue
		}
		return sections, nil
	}

	return nil, &SegmentationError{Attempts: segmentAttempts, Err: lastErr}
}

// rawSection decodes one array element with pointer fields, so a missing
// field is distinguishable from an empty one.
type rawSection struct {
	Section *string   `json:"section"`
	Content *string   `json:"content"`
	RefFig  *[]string `json:"ref_fig"`
	RefTb   *[]string `json:"ref_tb"`
}

// parseSections turns a raw model reply into validated sections: locate the
// fenced JSON array, sanitize raw newlines inside string values, decode, and
// check that every element carries all four fields. Sections with empty
// content are kept; the resolver drops them later.
func parseSections(reply string) ([]types.ExtractedSection, error) {
	block, err := jsonArrayBlock(reply)
	if err != nil {
		return nil, err
	}

	cleaned := sanitizeStrings(block)

	var raws []rawSection
	if err := json.Unmarshal([]byte(cleaned), &raws); err != nil {
		return nil, fmt.Errorf("decoding section array: %w", err)
	}

	sections := make([]types.ExtractedSection, 0, len(raws))
	for i, raw := range raws {
		switch {
		case raw.Section == nil:
			return nil, fmt.Errorf("section element %d: missing field %q", i, "section")
		case raw.Content == nil:
			return nil, fmt.Errorf("section element %d: missing field %q", i, "content")
		case raw.RefFig == nil:
			return nil, fmt.Errorf("section element %d: missing field %q", i, "ref_fig")
		case raw.RefTb == nil:
			return nil, fmt.Errorf("section element %d: missing field %q", i, "ref_tb")
		}
		sections = append(sections, types.ExtractedSection{
			Section:    *raw.Section,
			Content:    *raw.Content,
			RefFigures: *raw.RefFig,
			RefTables:  *raw.RefTb,
		})
	}
	return sections, nil
}

// jsonArrayBlock extracts the outermost JSON array from the first fenced
// ```json block in the reply.
func jsonArrayBlock(reply string) (string, error) {
	const fence = "```json"

	start := strings.Index(reply, fence)
	if start < 0 {
		return "", fmt.Errorf("no fenced JSON block in reply")
	}
	rest := reply[start+len(fence):]

	end := strings.Index(rest, "```")
	if end < 0 {
		return "", fmt.Errorf("unterminated JSON fence in reply")
	}
	inner := rest[:end]

	open := strings.Index(inner, "[")
	closing := strings.LastIndex(inner, "]")
	if open < 0 || closing < open {
		return "", fmt.Errorf("no JSON array inside fence")
	}
	return inner[open : closing+1], nil
}

// sanitizeStrings replaces raw newlines inside quoted JSON strings with a
// single space. Models frequently emit section content with literal line
// breaks, which is invalid JSON. The scanner tracks quote and escape state
// so escaped quotes inside values do not end the string.
func sanitizeStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case inString && r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			b.WriteRune(r)
			inString = !inString
		case inString && r == '\n':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
