package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest file the console will send.
const MaxUploadSize = 64 << 20

// Candidate is a local file and what preflight learned about it.
type Candidate struct {
	Path  string
	Size  int64
	MIME  string
	Pages int
	Err   error
}

// OK reports whether the candidate passed preflight.
func (c Candidate) OK() bool {
	return c.Err == nil
}

// Preflight checks that path is a non-empty file of an allowed type whose
// content matches its extension. PDFs must also open and have pages.
func Preflight(path string) Candidate {
	c := Candidate{Path: path}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		c.Err = err
		return c
	case info.IsDir():
		c.Err = fmt.Errorf("%s is a directory", path)
		return c
	}
	c.Size = info.Size()

	ext := strings.ToLower(filepath.Ext(path))
	want, ok := expectedMIME[ext]
	switch {
	case !ok:
		c.Err = fmt.Errorf("unsupported file type %q", ext)
		return c
	case c.Size == 0:
		c.Err = fmt.Errorf("file is empty")
		return c
	case c.Size > MaxUploadSize:
		c.Err = fmt.Errorf("file is larger than %d MiB", MaxUploadSize>>20)
		return c
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		c.Err = fmt.Errorf("detecting content type: %w", err)
		return c
	}
	c.MIME = mt.String()
	if !sniffedAs(mt, want) {
		c.Err = fmt.Errorf("content is %s, expected %s", mt.String(), want)
		return c
	}

	if want == "application/pdf" {
		c.Pages, c.Err = pdfPages(path)
	}
	return c
}

// sniffedAs reports whether mt or one of its ancestors is want, so HTML or
// JSON content still counts as text/plain.
func sniffedAs(mt *mimetype.MIME, want string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// PreflightAll runs Preflight over every path, preserving order.
func PreflightAll(paths []string) []Candidate {
	out := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		out = append(out, Preflight(p))
	}
	return out
}
