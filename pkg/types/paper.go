// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper holds the fetched content and metadata for one paper, plus any
// reference papers fetched alongside it.
type Paper struct {
	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Text is the full extracted plain text of the paper.
	Text string `json:"text" yaml:"text"`

	// URL is the canonical entry URL (e.g. "https://arxiv.org/abs/2301.07041").
	URL string `json:"url" yaml:"url"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the publication timestamp. The zero value means unknown.
	Published time.Time `json:"published,omitempty" yaml:"published,omitempty"`

	// References holds papers cited by this one, when reference fetching
	// was requested. Nil otherwise.
	References []*Paper `json:"references,omitempty" yaml:"references,omitempty"`
}

// Flatten returns the paper followed by all transitively referenced papers,
// root first. Each paper appears at most once; insertion order is preserved.
func (p *Paper) Flatten() []*Paper {
	seen := make(map[*Paper]bool)
	var out []*Paper

	var walk func(*Paper)
	walk = func(q *Paper) {
		if q == nil || seen[q] {
			return
		}
		seen[q] = true
		out = append(out, q)
		for _, ref := range q.References {
			walk(ref)
		}
	}

	walk(p)
	return out
}
