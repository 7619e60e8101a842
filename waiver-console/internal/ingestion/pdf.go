package ingestion

import (
	"fmt"

	pdf "github.com/ledongthuc/pdf"
)

// pdfPages opens path with the PDF reader and returns its page count. The
// reader panics on some malformed files; that is reported as an error.
func pdfPages(path string) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unreadable pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("unreadable pdf: %w", err)
	}
	defer f.Close()

	pages = r.NumPage()
	if pages == 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return pages, nil
}
