package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrUnsupportedFormat is returned for file names outside SupportedExtensions.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailed wraps parser failures on corrupt or unreadable input.
	ErrExtractionFailed = errors.New("text extraction failed")
)

const (
	extPDF  = ".pdf"
	extDOCX = ".docx"
	extTXT  = ".txt"
)

// SupportedExtensions lists the accepted file suffixes.
func SupportedExtensions() []string {
	return []string{extPDF, extDOCX, extTXT}
}

// Format returns the lower-cased extension used for dispatch, or ErrUnsupportedFormat.
func Format(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	switch ext {
	case extPDF, extDOCX, extTXT:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// ExtractText converts an uploaded file into plain text based on its extension.
// Empty content yields "" for every supported format.
func ExtractText(ctx context.Context, filename string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, err := Format(filename)
	if err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", nil
	}

	var text string
	switch ext {
	case extPDF:
		text, err = extractPDF(content)
	case extDOCX:
		text, err = extractDOCX(content)
	case extTXT:
		text = decodeText(content)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailed, ext, err)
	}
	return text, nil
}

// extractPDF emits each page's text followed by a newline, in page order.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			buf.WriteString("\n")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		buf.WriteString(pageText)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return paragraphText(doc.Editable().GetContent())
}

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func isWord(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == wordNamespace || name.Space == "w")
}

// paragraphText joins the text runs of every w:p with "\n". Paragraphs are
// ordered by where they open, so a text box paragraph follows the paragraph
// that anchors it. Tabs and breaks count only inside a w:r.
func paragraphText(documentXML string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))
	var (
		paragraphs []string
		open       []int
		builders   []*strings.Builder
		outerRuns  []int
		runDepth   int
		inText     bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("document.xml: %w", err)
		}
		var current *strings.Builder
		if n := len(builders); n > 0 {
			current = builders[n-1]
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isWord(t.Name, "p"):
				open = append(open, len(paragraphs))
				paragraphs = append(paragraphs, "")
				builders = append(builders, &strings.Builder{})
				outerRuns = append(outerRuns, runDepth)
				runDepth = 0
			case isWord(t.Name, "r"):
				runDepth++
			case isWord(t.Name, "t"):
				inText = true
			case current == nil || runDepth == 0:
			case isWord(t.Name, "tab"):
				current.WriteString("\t")
			case isWord(t.Name, "br"), isWord(t.Name, "cr"):
				current.WriteString("\n")
			}
		case xml.EndElement:
			switch {
			case isWord(t.Name, "t"):
				inText = false
			case isWord(t.Name, "r"):
				if runDepth > 0 {
					runDepth--
				}
			case isWord(t.Name, "p"):
				if n := len(open); n > 0 {
					paragraphs[open[n-1]] = builders[n-1].String()
					open = open[:n-1]
					builders = builders[:n-1]
					runDepth = outerRuns[n-1]
					outerRuns = outerRuns[:n-1]
				}
			}
		case xml.CharData:
			if inText && current != nil {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// decodeText honours a UTF-8 or UTF-16 byte order mark and otherwise treats the
// input as UTF-8, dropping invalid sequences.
func decodeText(data []byte) string {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), data)
	if err != nil {
		decoded = data
	}
	return strings.ToValidUTF8(string(decoded), "")
}
