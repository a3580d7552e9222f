package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

func (e *Extractor) pdfPages(content []byte, maxPages int) (pages []string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("open PDF: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	if maxPages > 0 && numPages > maxPages {
		numPages = maxPages
	}
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, perr := pageText(func() (string, error) { return page.GetPlainText(nil) })
		if perr != nil {
			e.logger.Debug("page extraction failed", zap.Int("page", i), zap.Error(perr))
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pageText runs fn and converts a panic into an error; the text is "" on any failure.
func pageText(fn func() (string, error)) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	text, err = fn()
	if err != nil {
		return "", err
	}
	return text, nil
}
