// Package models defines core data structures for source documents, run requests, and run results.
package models

import (
	"path/filepath"
	"strings"
)

// Kind is the inferred type of a source document.
type Kind string

const (
	KindSpreadsheet Kind = "spreadsheet"
	KindWord        Kind = "word-document"
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindText        Kind = "text"
	KindUnsupported Kind = "unsupported"
	KindNone        Kind = "none"
)

// KindFromPath infers the document kind from the file extension (case-insensitive).
// An empty path or the literal "none" yields KindNone.
func KindFromPath(path string) Kind {
	if path == "" || strings.EqualFold(path, "none") {
		return KindNone
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls", ".csv":
		return KindSpreadsheet
	case ".docx", ".odt", ".rtf":
		return KindWord
	case ".pdf":
		return KindPDF
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".gif", ".webp":
		return KindImage
	case ".txt", ".md":
		return KindText
	default:
		return KindUnsupported
	}
}

// ArtifactKind identifies what an output file holds.
type ArtifactKind string

const (
	ArtifactText        ArtifactKind = "text"
	ArtifactFinalText   ArtifactKind = "final-text"
	ArtifactSpreadsheet ArtifactKind = "spreadsheet"
	ArtifactDocument    ArtifactKind = "document"
)

// Artifact is one file written by a run.
type Artifact struct {
	Kind ArtifactKind `json:"kind"`
	Path string       `json:"path"`
	Size int64        `json:"size"`
}
