package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`
	relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          contentTypesXML,
		"word/_rels/document.xml.rels": relsXML,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// buildPDF writes a minimal PDF with one page per entry. An empty entry is a
// page without a content stream.
func buildPDF(t *testing.T, pages []string) []byte {
	t.Helper()
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}
	catalog := add("")
	pagesRef := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, text := range pages {
		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >>", pagesRef, font)
		if text != "" {
			stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
			contents := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
			page += fmt.Sprintf(" /Contents %d 0 R", contents)
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", add(page+" >>")))
	}
	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesRef)
	objects[pagesRef-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return buf.Bytes()
}

func TestExtractTextEmptyContent(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.docx", "c.txt", "UPPER.PDF"} {
		got, err := ExtractText(context.Background(), name, nil)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", name, err)
		}
		if got != "" {
			t.Fatalf("%s: expected empty text, got %q", name, got)
		}
	}
}

func TestExtractTextUnsupportedExtension(t *testing.T) {
	for _, name := range []string{"image.png", "archive.zip", "noext", ""} {
		_, err := ExtractText(context.Background(), name, []byte("data"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%q: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestExtractTextPlain(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "ascii", in: []byte("hello world"), want: "hello world"},
		{name: "utf8 bom", in: []byte("\xef\xbb\xbfhello"), want: "hello"},
		{name: "utf16le bom", in: []byte{0xff, 0xfe, 'h', 0, 'i', 0}, want: "hi"},
		{name: "invalid bytes dropped", in: []byte("ab\xffcd\xc3"), want: "abcd"},
		{name: "multibyte kept", in: []byte("naïve café"), want: "naïve café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(context.Background(), "notes.TXT", tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextDocxParagraphs(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>First</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph</w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`)

	got, err := ExtractText(context.Background(), "report.docx", data)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	want := "First paragraph\n\na\tb\nc"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	again, err := ExtractText(context.Background(), "report.docx", data)
	if err != nil || again != got {
		t.Fatalf("expected deterministic output, got %q, %v", again, err)
	}
}

func TestExtractTextPDFPagesInOrder(t *testing.T) {
	data := buildPDF(t, []string{"Hello", "", "World"})

	got, err := ExtractText(context.Background(), "doc.pdf", data)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	want := "\nHello\n\n\nWorld\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	again, err := ExtractText(context.Background(), "doc.pdf", data)
	if err != nil || again != got {
		t.Fatalf("expected deterministic output, got %q, %v", again, err)
	}
}

func TestParagraphTextIgnoresTabStopDefinitions(t *testing.T) {
	got, err := paragraphText(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9000"/></w:tabs></w:pPr>` +
		`<w:r><w:t>Heading</w:t><w:tab/><w:t>1</w:t></w:r></w:p>` +
		`</w:body></w:document>`)
	if err != nil {
		t.Fatalf("paragraphText: %v", err)
	}
	if got != "Heading\t1" {
		t.Fatalf("got %q, want %q", got, "Heading\t1")
	}
}

func TestParagraphTextKeepsTextAroundTextBox(t *testing.T) {
	got, err := paragraphText(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:v="urn:schemas-microsoft-com:vml"><w:body>` +
		`<w:p><w:r><w:t>Before</w:t></w:r>` +
		`<w:r><w:pict><v:textbox><w:txbxContent><w:p><w:pPr><w:tabs><w:tab/></w:tabs></w:pPr><w:r><w:t>Inner</w:t></w:r></w:p></w:txbxContent></v:textbox></w:pict></w:r>` +
		`<w:r><w:t xml:space="preserve"> After</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Last</w:t></w:r></w:p>` +
		`</w:body></w:document>`)
	if err != nil {
		t.Fatalf("paragraphText: %v", err)
	}
	want := "Before After\nInner\nLast"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractTextCorruptInputs(t *testing.T) {
	for _, name := range []string{"broken.pdf", "broken.docx"} {
		_, err := ExtractText(context.Background(), name, []byte("definitely not a document"))
		if !errors.Is(err, ErrExtractionFailed) {
			t.Fatalf("%s: expected ErrExtractionFailed, got %v", name, err)
		}
	}
}

func TestExtractTextHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractText(ctx, "a.txt", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParagraphTextRejectsMalformedXML(t *testing.T) {
	if _, err := paragraphText("<w:p><w:t>unclosed"); err == nil {
		t.Fatalf("expected xml error")
	}
}
