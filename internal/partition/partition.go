// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package partition runs PDF layout analysis through a container image and
// exposes the extracted elements. The image reads a PDF from the mounted
// work directory, crops figure and table regions into that directory as
// JPEG files, and prints one JSON array of typed elements on stdout.
package partition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/report-engine/internal/container"
	"github.com/pdiddy/report-engine/pkg/types"
)

const (
	defaultImage    = "paper-partition:latest"
	defaultStrategy = "hi_res"

	// containerWorkDir is where the work directory is mounted inside the
	// container; element paths in the output are rooted here.
	containerWorkDir = "/work"
)

// Element is one layout element from the partitioning output. Only the
// fields the pipeline consumes are decoded.
type Element struct {
	Type     string          `json:"type"`
	Metadata ElementMetadata `json:"metadata"`
}

// ElementMetadata carries the extracted-asset location for image and table
// elements. Other element types leave it empty.
type ElementMetadata struct {
	ImagePath string `json:"image_path"`
}

// Partitioner analyzes the layout of a PDF inside a work directory.
type Partitioner interface {
	// Partition processes workDir/pdfName and returns the layout
	// elements, with asset paths rewritten to host paths under workDir.
	Partition(workDir, pdfName string) ([]Element, error)
}

// ContainerPartitioner runs the partitioning image through a
// container.Runtime with the work directory bind-mounted.
type ContainerPartitioner struct {
	runtime  container.Runtime
	image    string
	strategy string
}

// NewContainerPartitioner creates a partitioner from the given runtime and
// config, applying defaults for an unset image or strategy. It verifies the
// image exists locally before returning.
func NewContainerPartitioner(rt container.Runtime, cfg types.PartitionConfig) (*ContainerPartitioner, error) {
	image := cfg.Image
	if image == "" {
		image = defaultImage
	}
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = defaultStrategy
	}

	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("partition image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerPartitioner{runtime: rt, image: image, strategy: strategy}, nil
}

// Partition mounts workDir into the container, runs the partitioning tool
// over the PDF, and decodes the element array from stdout.
func (p *ContainerPartitioner) Partition(workDir, pdfName string) ([]Element, error) {
	mounts := []container.Mount{{Host: workDir, Container: containerWorkDir}}
	args := []string{"--strategy", p.strategy, path.Join(containerWorkDir, pdfName)}

	var out bytes.Buffer
	if err := p.runtime.RunMounted(p.image, mounts, args, &out); err != nil {
		return nil, fmt.Errorf("partitioning %s: %w", pdfName, err)
	}

	var elements []Element
	if err := json.Unmarshal(out.Bytes(), &elements); err != nil {
		return nil, fmt.Errorf("parsing partition output for %s: %w", pdfName, err)
	}

	for i := range elements {
		elements[i].Metadata.ImagePath = hostPath(elements[i].Metadata.ImagePath, workDir)
	}
	return elements, nil
}

// hostPath rewrites a container-side asset path to its host location.
func hostPath(p, workDir string) string {
	rel, ok := strings.CutPrefix(p, containerWorkDir+"/")
	if !ok {
		return p
	}
	return filepath.Join(workDir, rel)
}

// Assets filters the image and table elements into the asset list the
// reference resolver indexes. Element order, and so the partitioner's page
// order, is preserved.
func Assets(elements []Element) []types.ImageAsset {
	var assets []types.ImageAsset
	for _, el := range elements {
		if el.Type != "Image" && el.Type != "Table" {
			continue
		}
		p := el.Metadata.ImagePath
		if p == "" {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		assets = append(assets, types.ImageAsset{Path: p, Filename: stem})
	}
	return assets
}
