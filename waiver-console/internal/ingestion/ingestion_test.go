package ingestion

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a one-page PDF with a correct cross-reference table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", minimalPDF())
	b := writeFile(t, dir, "nested/b.txt", []byte("notes"))
	writeFile(t, dir, "nested/skip.exe", []byte("MZ"))
	writeFile(t, dir, ".cache/hidden.pdf", minimalPDF())
	odd := writeFile(t, t.TempDir(), "explicit.csv", []byte("x,y"))

	got, err := CollectFiles(dir, a, odd)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b, odd}, got)
	assert.IsNonDecreasing(t, got)
}

func TestCollectFiles_MissingPath(t *testing.T) {
	_, err := CollectFiles(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPreflight_PDF(t *testing.T) {
	p := writeFile(t, t.TempDir(), "waiver.pdf", minimalPDF())

	c := Preflight(p)

	require.NoError(t, c.Err)
	assert.True(t, c.OK())
	assert.Equal(t, "application/pdf", c.MIME)
	assert.Equal(t, 1, c.Pages)
	assert.Positive(t, c.Size)
}

func TestPreflight_Rejections(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty":        writeFile(t, dir, "empty.txt", nil),
		"mismatch":     writeFile(t, dir, "fake.pdf", []byte("just some text")),
		"broken pdf":   writeFile(t, dir, "broken.pdf", []byte("%PDF-1.4\ngarbage without xref")),
		"unsupported":  writeFile(t, dir, "data.csv", []byte("a,b")),
		"directory":    dir,
		"missing file": filepath.Join(dir, "missing.pdf"),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			c := Preflight(path)
			assert.False(t, c.OK())
			assert.Error(t, c.Err)
		})
	}
}

func TestPreflight_TextSubtypesPass(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"html notes":  writeFile(t, dir, "notes.md", []byte("<!DOCTYPE html>\n<html><body><p>Waiver notes</p></body></html>\n")),
		"json export": writeFile(t, dir, "export.txt", []byte(`{"state": "CA", "waivers": [1, 2]}`)),
		"plain":       writeFile(t, dir, "plain.txt", []byte("home and community based services\n")),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			c := Preflight(path)
			require.NoError(t, c.Err)
			assert.NotEmpty(t, c.MIME)
		})
	}

	c := Preflight(writeFile(t, dir, "scan.png", []byte("not an image")))
	assert.False(t, c.OK())
}

func TestPreflightAll_KeepsOrder(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "notes.md", []byte("# Waiver notes\n"))
	bad := writeFile(t, dir, "empty.txt", nil)

	got := PreflightAll([]string{ok, bad})

	require.Len(t, got, 2)
	assert.Equal(t, ok, got[0].Path)
	assert.True(t, got[0].OK())
	assert.Equal(t, bad, got[1].Path)
	assert.False(t, got[1].OK())
}
