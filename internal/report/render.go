// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/report-engine/internal/container"
)

const imageWeasyprint = "weasyprint:latest"

// Renderer turns an HTML document into a paginated PDF file at outputPath.
type Renderer interface {
	Render(html, outputPath string) error
}

// WeasyprintRenderer renders by piping HTML through the weasyprint
// container image; the PDF bytes come back on stdout. It depends on a
// container.Runtime (docker or podman) injected at construction time.
type WeasyprintRenderer struct {
	runtime container.Runtime
	image   string
}

// NewWeasyprintRenderer creates a renderer that uses the given container
// runtime, with an empty image falling back to the default. It verifies
// that the image exists locally before returning.
func NewWeasyprintRenderer(rt container.Runtime, image string) (*WeasyprintRenderer, error) {
	if image == "" {
		image = imageWeasyprint
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("render image not available in %s: %w", rt.Name(), err)
	}
	return &WeasyprintRenderer{runtime: rt, image: image}, nil
}

// Render pipes the HTML document through weasyprint and writes the
// resulting PDF to outputPath.
func (r *WeasyprintRenderer) Render(html, outputPath string) error {
	var out bytes.Buffer
	if err := r.runtime.Run(r.image, strings.NewReader(html), &out); err != nil {
		return fmt.Errorf("rendering PDF with weasyprint: %w", err)
	}

	if out.Len() == 0 {
		return fmt.Errorf("weasyprint produced empty output for %s", outputPath)
	}

	if err := os.WriteFile(outputPath, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", outputPath, err)
	}
	return nil
}
