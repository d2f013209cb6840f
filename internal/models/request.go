package models

import (
	"fmt"
	"strings"
)

// Format is the requested output format.
type Format string

const (
	FormatText  Format = "txt"
	FormatExcel Format = "excel"
	FormatWord  Format = "word"
)

// Mode selects how the source document is turned into a snippet.
type Mode string

const (
	ModeFile       Mode = "file"
	ModeOCR        Mode = "ocr"
	ModePromptOnly Mode = "prompt-only"
)

// Shape is the output structure requested from the generation service.
type Shape string

const (
	ShapePlain    Shape = "plain"
	ShapeTabular  Shape = "tabular"
	ShapeDocument Shape = "document"
)

// ParseFormat normalizes s (case-insensitive) to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatText, FormatExcel, FormatWord:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// ParseMode normalizes s (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeFile, ModeOCR, ModePromptOnly:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Shape returns the prompt/materialization shape for the format.
func (f Format) Shape() Shape {
	switch f {
	case FormatExcel:
		return ShapeTabular
	case FormatWord:
		return ShapeDocument
	default:
		return ShapePlain
	}
}

// RunRequest is the input of one pipeline run.
type RunRequest struct {
	Source      string `json:"source"`
	OutputPath  string `json:"output_path"`
	Instruction string `json:"instruction"`
	Format      Format `json:"format"`
	Mode        Mode   `json:"mode"`
}

// Validate normalizes format and mode and checks the output path. A missing source is not an
// error here; extraction degrades it to the unsupported-file snippet.
func (r *RunRequest) Validate() error {
	if strings.TrimSpace(r.OutputPath) == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	f, err := ParseFormat(string(r.Format))
	if err != nil {
		return err
	}
	m, err := ParseMode(string(r.Mode))
	if err != nil {
		return err
	}
	r.Format, r.Mode = f, m
	return nil
}
