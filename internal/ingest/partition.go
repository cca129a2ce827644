package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// partition writes the upload to a scratch file carrying its original
// extension (the extractors want a real path), dispatches by extension, and
// removes the file on every exit path.
func (l *Loader) partition(name string, raw []byte) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	tmp, err := os.CreateTemp(l.tempDir, "tablechat-*"+ext)
	if err != nil {
		return nil, loadErr(StagePartition, ext, err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return nil, loadErr(StagePartition, ext, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, loadErr(StagePartition, ext, err)
	}

	var elements []string
	switch ext {
	case ".pdf":
		elements, err = partitionPDF(path)
	case ".docx":
		elements, err = partitionDOCX(path)
	case ".pptx":
		elements, err = partitionPPTX(path)
	default:
		elements, err = partitionText(raw)
	}
	if err != nil {
		return nil, loadErr(StagePartition, ext, err)
	}
	if len(elements) == 0 {
		return nil, loadErr(StagePartition, ext, errors.New("no text could be extracted"))
	}
	return elements, nil
}

// partitionPDF extracts one element per page with readable text.
func partitionPDF(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var elements []string
	for i := 1; i <= r.NumPage(); i++ {
		if text := pageText(r.Page(i)); text != "" {
			elements = append(elements, text)
		}
	}
	return elements, nil
}

// pageText absorbs panics from the PDF library, which chokes on malformed
// content streams. A bad page contributes nothing.
func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	t, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(t)
}

var (
	docxParaRe = regexp.MustCompile(`</w:p>`)
	docxTagRe  = regexp.MustCompile(`<[^>]+>`)
)

// partitionDOCX pulls word/document.xml out of the archive and strips the
// markup, one element per paragraph.
func partitionDOCX(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		text := docxParaRe.ReplaceAllString(string(data), "\n")
		text = docxTagRe.ReplaceAllString(text, "")
		return splitLines(html.UnescapeString(text)), nil
	}
	return nil, errors.New("word/document.xml not found (is this a DOCX file?)")
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// partitionPPTX walks the slide parts in deck order, one element per slide.
func partitionPPTX(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	type slidePart struct {
		n int
		f *zip.File
	}
	var slides []slidePart
	for _, f := range zr.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slidePart{n: n, f: f})
	}
	if len(slides) == 0 {
		return nil, errors.New("no slides found (is this a PPTX file?)")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var elements []string
	for _, s := range slides {
		data, err := readZipFile(s.f)
		if err != nil {
			return nil, err
		}
		if text := slideText(data); text != "" {
			elements = append(elements, text)
		}
	}
	return elements, nil
}

// slideText walks the slide XML collecting the contents of a:t runs, with a
// newline at the end of each a:p paragraph.
func slideText(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// partitionText treats the upload as UTF-8 prose, one element per
// blank-line-separated block.
func partitionText(raw []byte) ([]string, error) {
	if !utf8.Valid(raw) {
		return nil, errors.New("file is not valid UTF-8 text")
	}
	var elements []string
	normalized := strings.ReplaceAll(string(raw), "\r\n", "\n")
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			elements = append(elements, block)
		}
	}
	return elements, nil
}

func splitLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
