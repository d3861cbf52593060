// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assets resolves figure and table references from segmented
// sections against the image files the partitioner extracted. Partitioners
// name crops page-first (e.g. "figure-12-1" for the first figure on page
// twelve) while sections reference them ordinal-only ("figure-1"); both
// sides are normalized to a shared form before matching.
package assets

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/report-engine/pkg/types"
)

// NormalizeTag maps an image name to its matchable form: for names whose
// stem starts with "figure" or "table" and carries more than one dash, only
// the first and last dash-separated segments are kept. Other names pass
// through unchanged. The mapping is idempotent.
func NormalizeTag(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if (strings.HasPrefix(stem, "figure") || strings.HasPrefix(stem, "table")) && strings.Count(stem, "-") > 1 {
		parts := strings.Split(stem, "-")
		return parts[0] + "-" + parts[len(parts)-1] + ext
	}
	return name
}

// Index maps normalized image names to the original on-disk stems.
type Index map[string]string

// BuildIndex indexes extracted images by their normalized name. Assets with
// an empty stem are ignored; a later normalized duplicate overwrites an
// earlier one, matching the partitioner's page order.
func BuildIndex(images []types.ImageAsset) Index {
	idx := make(Index, len(images))
	for _, img := range images {
		if img.Filename == "" {
			continue
		}
		idx[NormalizeTag(img.Filename)] = img.Filename
	}
	return idx
}

// BuildSectionInfos resolves every section's references against the index.
// Sections with empty content are dropped. References are walked in order,
// figures before tables; a reference with no matching image is skipped and
// counted, never an error. Resolved images are read from imageDir and
// base64-encoded for the vision calls, figures first, aligned with the
// combined reference order. A file that matched but cannot be read is an
// error: resolution is a required stage.
func BuildSectionInfos(sections []types.ExtractedSection, idx Index, imageDir string) ([]types.ResolvedSectionInfo, int, error) {
	infos := make([]types.ResolvedSectionInfo, 0, len(sections))
	skipped := 0

	for _, section := range sections {
		if section.Content == "" {
			continue
		}

		info := types.ResolvedSectionInfo{
			Title:   section.Section,
			Content: section.Content,
		}

		refs := make([]string, 0, len(section.RefFigures)+len(section.RefTables))
		refs = append(refs, section.RefFigures...)
		refs = append(refs, section.RefTables...)

		for _, ref := range refs {
			original, ok := idx[NormalizeTag(ref)]
			if !ok || original == "" {
				skipped++
				continue
			}

			path := filepath.Join(imageDir, original+".jpg")
			switch {
			case strings.HasPrefix(ref, "figure"):
				info.ImagePaths = append(info.ImagePaths, path)
			case strings.HasPrefix(ref, "table"):
				info.TablePaths = append(info.TablePaths, path)
			}

			encoded, err := EncodeImage(path)
			if err != nil {
				return nil, skipped, fmt.Errorf("encoding image for section %q: %w", section.Section, err)
			}
			info.Encodings = append(info.Encodings, encoded)
		}

		infos = append(infos, info)
	}
	return infos, skipped, nil
}

// firstFigureRE matches the first figure crop of any page.
var firstFigureRE = regexp.MustCompile(`^figure-\d+-1$`)

// CoverImage returns the path of the first asset whose stem names the first
// figure of a page, or "" when no asset qualifies. The report uses it as the
// cover illustration.
func CoverImage(images []types.ImageAsset) string {
	for _, img := range images {
		if firstFigureRE.MatchString(img.Filename) {
			return img.Path
		}
	}
	return ""
}

// EncodeImage reads an image file and returns its base64 encoding.
func EncodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
