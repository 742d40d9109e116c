// Package extraction converts uploaded document bytes into normalized plain text.
package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrUnsupported indicates the file's format has no text converter.
	ErrUnsupported = errors.New("unsupported document format")
	// ErrNoText indicates conversion succeeded but produced no text.
	ErrNoText = errors.New("no text content extracted")
)

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC      = "application/msword"
	mimeODT      = "application/vnd.oasis.opendocument.text"
	mimeRTF      = "application/rtf"
	mimeHTML     = "text/html"
	mimePlain    = "text/plain"
	mimeMarkdown = "text/markdown"
)

var extensions = map[string]string{
	".pdf":      mimePDF,
	".docx":     mimeDOCX,
	".doc":      mimeDOC,
	".odt":      mimeODT,
	".rtf":      mimeRTF,
	".html":     mimeHTML,
	".htm":      mimeHTML,
	".txt":      mimePlain,
	".md":       mimeMarkdown,
	".markdown": mimeMarkdown,
}

// Extractor converts files to text.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("system", "extraction")}
}

// Extract converts data to text. The content type takes precedence; the filename
// extension is used when the content type is missing or generic.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	kind := Resolve(filename, contentType)

	var (
		text string
		err  error
	)

	switch kind {
	case mimePDF:
		text, err = e.pdfText(data)
	case mimeDOCX, mimeDOC, mimeODT, mimeRTF:
		text, err = officeText(data, kind)
	case mimeHTML:
		text, err = htmlText(data)
	case mimePlain, mimeMarkdown:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: invalid utf-8", filename)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupported, filename, contentType)
	}
	if err != nil {
		return "", err
	}

	text = Normalize(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, filename)
	}

	e.logger.DebugContext(ctx, "text extracted",
		"filename", filename,
		"format", kind,
		"chars", utf8.RuneCountInString(text),
	)
	return text, nil
}

// Resolve returns the canonical media type used to select a converter.
func Resolve(filename, contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/octet-stream", "binary/octet-stream", "":
		case "text/rtf":
			return mimeRTF
		case "text/x-markdown":
			return mimeMarkdown
		default:
			if _, known := knownTypes[mt]; known {
				return mt
			}
		}
	}
	return extensions[strings.ToLower(filepath.Ext(filename))]
}

var knownTypes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(extensions))
	for _, mt := range extensions {
		m[mt] = struct{}{}
	}
	return m
}()

func (e *Extractor) pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			e.logger.Warn("null pdf page skipped", "page", i)
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}

func officeText(data []byte, mimeType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", mimeType, err)
	}
	return res.Body, nil
}

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			b.WriteString(t)
			b.WriteString("\n\n")
		}
	})

	if b.Len() == 0 {
		return doc.Find("body").Text(), nil
	}
	return b.String(), nil
}

var (
	spaceRun = regexp.MustCompile(`[ \t\f\v]+`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// Normalize applies NFC, unifies line endings, collapses horizontal whitespace
// runs, and limits blank lines to one.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(l, " "))
	}
	s = strings.Join(lines, "\n")

	return strings.TrimSpace(blankRun.ReplaceAllString(s, "\n\n"))
}
