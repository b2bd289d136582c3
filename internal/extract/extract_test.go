package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// buildPDF assembles a minimal single-font PDF with one page per entry.
func buildPDF(pages ...string) []byte {
	var objects []string

	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+i*2))
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+i*2),
		)
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
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

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	doc := docx.New().WithDefaultTheme()
	for _, p := range paragraphs {
		doc.AddParagraph().AddText(p)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("writing docx fixture: %v", err)
	}
	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	e := New(zap.NewNop())

	text, ok, err := e.Extract(buildPDF("Jane Doe", "Go developer"), MIMEPDF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected pdf to be parsed")
	}

	if text != "Jane Doe\nGo developer" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractDocx(t *testing.T) {
	e := New(zap.NewNop())
	data := buildDocx(t, "Jane Doe", "Skills: Python, Go")

	for _, contentType := range []string{MIMEDocx, MIMEDoc} {
		text, ok, err := e.Extract(data, contentType)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", contentType, err)
		}
		if !ok {
			t.Fatalf("%s: expected docx to be parsed", contentType)
		}
		if text != "Jane Doe\nSkills: Python, Go" {
			t.Fatalf("%s: unexpected text: %q", contentType, text)
		}
	}
}

func TestExtractText(t *testing.T) {
	e := New(zap.NewNop())

	text, ok, err := e.Extract([]byte("Python, Go\nfive years"), "text/plain; charset=utf-8")
	if err != nil || !ok {
		t.Fatalf("expected text to be extracted, ok=%v err=%v", ok, err)
	}
	if text != "Python, Go\nfive years" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractFailuresAreSoft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{name: "corrupted pdf", data: append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("garbage "), 40)...), contentType: MIMEPDF},
		{name: "truncated pdf", data: buildPDF("Jane Doe")[:120], contentType: MIMEPDF},
		{name: "empty pdf", data: nil, contentType: MIMEPDF},
		{name: "corrupted docx", data: []byte("not a zip archive"), contentType: MIMEDocx},
		{name: "legacy doc", data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, contentType: MIMEDoc},
		{name: "invalid utf-8", data: []byte{0xff, 0xfe, 0xfd}, contentType: MIMEText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, observed := observer.New(zapcore.WarnLevel)
			e := New(zap.New(core))

			text, ok, err := e.Extract(tt.data, tt.contentType)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ok || text != "" {
				t.Fatalf("expected null result, got ok=%v text=%q", ok, text)
			}
			if observed.Len() != 1 {
				t.Fatalf("expected failure to be logged once, got %d entries", observed.Len())
			}
		})
	}
}

func TestExtractUnsupported(t *testing.T) {
	t.Parallel()

	e := New(nil)
	for _, contentType := range []string{"application/json", "image/png", ""} {
		_, ok, err := e.Extract([]byte(`{"a":1}`), contentType)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%q: expected ErrUnsupportedFormat, got %v", contentType, err)
		}
		if ok {
			t.Fatalf("%q: expected ok to be false", contentType)
		}
		if e.Supported(contentType) {
			t.Fatalf("%q: expected to be unsupported", contentType)
		}
	}

	if !e.Supported("Application/PDF") {
		t.Fatalf("expected content type matching to be case-insensitive")
	}
}
