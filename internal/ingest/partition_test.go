package ingest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type zipEntry struct {
	name string
	body string
}

func zipBytes(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("zip write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestLoadTextBlocks(t *testing.T) {
	raw := []byte("First block line one\nline two\r\n\r\nSecond block\n\n\nThird\n")
	l := NewLoader(zap.NewNop(), "")

	ds, notices, err := l.Load("notes.txt", raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Kind != KindUnstructured {
		t.Fatalf("kind: %q", ds.Kind)
	}
	want := "First block line one\nline two\n\nSecond block\n\nThird"
	if ds.Text != want {
		t.Fatalf("text:\n%q\nwant:\n%q", ds.Text, want)
	}
	if ds.Words != 9 {
		t.Fatalf("words: %d", ds.Words)
	}
	if len(notices) != 1 || !strings.Contains(notices[0].Message, "Extracted 9 words") {
		t.Fatalf("notices: %+v", notices)
	}
}

func TestLoadTextRejectsInvalidUTF8(t *testing.T) {
	l := NewLoader(zap.NewNop(), "")
	_, _, err := l.Load("blob.txt", []byte{0xff, 0xfe, 0x00, 0x41})
	le, ok := err.(*LoadError)
	if !ok || le.Stage != StagePartition {
		t.Fatalf("error: %T %v", err, err)
	}
}

func TestLoadTextAllWhitespaceFails(t *testing.T) {
	l := NewLoader(zap.NewNop(), "")
	_, _, err := l.Load("empty.txt", []byte("   \n\n \t \n"))
	le, ok := err.(*LoadError)
	if !ok || le.Stage != StagePartition {
		t.Fatalf("error: %T %v", err, err)
	}
	if !strings.Contains(le.Error(), "no text could be extracted") {
		t.Fatalf("message: %v", le)
	}
}

func TestLoadDocxParagraphs(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` +
		`<w:p><w:r><w:t>Quarterly summary</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Costs &amp; savings</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`</w:body></w:document>`
	raw := zipBytes(t, []zipEntry{
		{"[Content_Types].xml", `<Types/>`},
		{"word/document.xml", doc},
	})

	l := NewLoader(zap.NewNop(), "")
	ds, _, err := l.Load("report.docx", raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := "Quarterly summary\n\nCosts & savings"
	if ds.Text != want {
		t.Fatalf("text: %q, want %q", ds.Text, want)
	}
	if ds.Words != 5 {
		t.Fatalf("words: %d", ds.Words)
	}
}

func TestLoadDocxWithoutDocumentXML(t *testing.T) {
	raw := zipBytes(t, []zipEntry{{"word/styles.xml", `<w:styles/>`}})
	l := NewLoader(zap.NewNop(), "")
	_, _, err := l.Load("report.docx", raw)
	le, ok := err.(*LoadError)
	if !ok || le.Stage != StagePartition {
		t.Fatalf("error: %T %v", err, err)
	}
	if !strings.Contains(le.Error(), "word/document.xml not found") {
		t.Fatalf("message: %v", le)
	}
}

func TestLoadDocxNotAnArchive(t *testing.T) {
	l := NewLoader(zap.NewNop(), "")
	_, _, err := l.Load("report.docx", []byte("this is not a zip"))
	le, ok := err.(*LoadError)
	if !ok || le.Stage != StagePartition {
		t.Fatalf("error: %T %v", err, err)
	}
}

func slideXML(text string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody>` +
		`<a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>` +
		`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

// TestLoadPptxSlideOrder stores the slide parts out of order and includes a
// tenth slide, so both archive-order and lexicographic traversal would read
// the deck wrong.
func TestLoadPptxSlideOrder(t *testing.T) {
	raw := zipBytes(t, []zipEntry{
		{"ppt/slides/slide2.xml", slideXML("Middle")},
		{"ppt/slides/slide10.xml", slideXML("Last")},
		{"ppt/slides/_rels/slide1.xml.rels", `<Relationships/>`},
		{"ppt/slides/slide1.xml", slideXML("First")},
	})

	l := NewLoader(zap.NewNop(), "")
	ds, _, err := l.Load("deck.pptx", raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Text != "First\n\nMiddle\n\nLast" {
		t.Fatalf("text: %q", ds.Text)
	}
}

func TestLoadPptxWithoutSlides(t *testing.T) {
	raw := zipBytes(t, []zipEntry{{"ppt/presentation.xml", `<p:presentation/>`}})
	l := NewLoader(zap.NewNop(), "")
	_, _, err := l.Load("deck.pptx", raw)
	le, ok := err.(*LoadError)
	if !ok || le.Stage != StagePartition {
		t.Fatalf("error: %T %v", err, err)
	}
	if !strings.Contains(le.Error(), "no slides found") {
		t.Fatalf("message: %v", le)
	}
}

func TestLoadPdf(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "revenue.pdf"))
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	l := NewLoader(zap.NewNop(), "")
	ds, _, err := l.Load("revenue.pdf", raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(ds.Text, "Revenue: 100") {
		t.Fatalf("text: %q", ds.Text)
	}
	if ds.Words != 2 {
		t.Fatalf("words: %d", ds.Words)
	}
}

func TestLoadPdfCorrupt(t *testing.T) {
	raw := []byte("%PDF-1.4\n" + strings.Repeat("garbage with no xref at all ", 20))
	l := NewLoader(zap.NewNop(), "")
	_, _, err := l.Load("broken.pdf", raw)
	le, ok := err.(*LoadError)
	if !ok || le.Stage != StagePartition {
		t.Fatalf("error: %T %v", err, err)
	}
}

// TestScratchFilesRemoved checks the partition scratch file is gone after
// both a successful extraction and a failed one.
func TestScratchFilesRemoved(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(zap.NewNop(), dir)

	if _, _, err := l.Load("ok.txt", []byte("hello world\n")); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, _, err := l.Load("broken.pdf", []byte("not a pdf")); err == nil {
		t.Fatal("corrupt pdf loaded")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("scratch files left behind: %v", names)
	}
}
