package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>Great product.</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Terrible support.</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})

	text, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "review.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if text != "Great product.\nTerrible support." {
		t.Fatalf("unexpected docx text %q", text)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})

	_, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "notes.zip")
	if err == nil {
		t.Fatal("expected unsupported mime error for zip")
	}
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if !strings.Contains(err.Error(), "application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractTextFromBytes_PlainTextAndCSV(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		fileName string
		data     string
	}{
		{name: "plain", mimeType: "text/plain; charset=utf-8", fileName: "notes.txt", data: "a good day"},
		{name: "csv by mime", mimeType: "text/csv", fileName: "rows.csv", data: "id,text\n1,bad day"},
		{name: "csv by extension", mimeType: "application/octet-stream", fileName: "rows.csv", data: "id,text\n1,ok"},
		{name: "excel csv", mimeType: "application/vnd.ms-excel", fileName: "rows.CSV", data: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTextFromBytes(context.Background(), []byte(tt.data), tt.mimeType, tt.fileName)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got != tt.data {
				t.Fatalf("got %q, want %q", got, tt.data)
			}
		})
	}
}

func TestExtractTextFromBytes_RejectsBinary(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte{0xff, 0xfe, 0x00}, "text/plain", "bad.txt")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	_, err = ExtractTextFromBytes(context.Background(), []byte("GIF89a"), "image/gif", "a.gif")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType for image, got %v", err)
	}
}

func TestExtractTextFromBytes_InvalidPDF(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("not a pdf"), "application/pdf", "a.pdf")
	if err == nil {
		t.Fatal("expected pdf parse error")
	}
	if errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("parse failures should not be reported as unsupported: %v", err)
	}
}

func TestExtractTextFromBytes_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractTextFromBytes(ctx, []byte("x"), "text/plain", "a.txt"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractTextFromBytes_DocxInvalidUTF8Rejected(t *testing.T) {
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		strings.Repeat("a", 512<<10) + "\xff" + strings.Repeat("a", 2<<20) +
		`</w:t></w:r></w:p></w:body></w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": body})

	start := time.Now()
	_, err := ExtractTextFromBytes(context.Background(), data, "", "x.docx")
	if err == nil {
		t.Fatal("expected decode error for invalid utf-8 document.xml")
	}
	if !strings.Contains(err.Error(), "document.xml") {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("extraction took %s", elapsed)
	}
}

func TestExtractTextFromBytes_TruncatesOnRuneBoundary(t *testing.T) {
	data := []byte(strings.Repeat("a", MaxTextBytes-1) + "é" + "b")

	text, err := ExtractTextFromBytes(context.Background(), data, "text/plain", "a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(text) != MaxTextBytes-1 {
		t.Fatalf("expected %d bytes, got %d", MaxTextBytes-1, len(text))
	}
	if !utf8.ValidString(text) {
		t.Fatal("truncated text is not valid utf-8")
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "short", text: "héllo", limit: 10, want: "héllo"},
		{name: "ascii cut", text: "hello", limit: 3, want: "hel"},
		{name: "inside two byte rune", text: "hé", limit: 2, want: "h"},
		{name: "inside four byte rune", text: "a😀b", limit: 3, want: "a"},
		{name: "after rune", text: "a😀b", limit: 5, want: "a😀"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateText(tt.text, tt.limit); got != tt.want {
				t.Fatalf("truncateText(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
		})
	}
}
