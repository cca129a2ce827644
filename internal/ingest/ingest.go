// Package ingest turns an uploaded file into an analyzable dataset: it
// classifies by extension, parses structured formats into a numeric table,
// extracts text from document formats, and applies the large-file sampling
// policy.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tablechat/internal/dataset"
)

// Kind is the loader route chosen for an upload.
type Kind string

const (
	KindStructured   Kind = "structured"
	KindUnstructured Kind = "unstructured"
)

const (
	// SampleThresholdBytes is the raw upload size above which analysis runs
	// on a row sample instead of the full table.
	SampleThresholdBytes = 50 << 20
	// SampleRate is the fraction of rows kept when sampling.
	SampleRate = 0.05
	// SampleSeed fixes the sampling RNG: identical bytes always yield the
	// identical sample, across processes.
	SampleSeed int64 = 42
	// MinSampleRows floors the sample size.
	MinSampleRows = 500
)

// AcceptedExtensions is what the upload surface advertises. Classification
// itself accepts any name; an alien extension simply routes to the
// unstructured loader and fails there if no text can be extracted.
var AcceptedExtensions = []string{".csv", ".xlsx", ".xls", ".pdf", ".docx", ".pptx", ".txt", ".parquet"}

// Classify routes a filename by its extension alone, case-insensitively.
// There is no content sniffing: a mislabeled file fails inside the loader it
// was routed to.
func Classify(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xls", ".parquet":
		return KindStructured
	}
	return KindUnstructured
}

// Dataset is the single product of one upload: either a numeric table or a
// flat text blob, tagged with its content identity.
type Dataset struct {
	Name     string
	Hash     string
	ByteSize int64
	Kind     Kind

	// Structured
	Table   *dataset.Table
	Sampled bool
	SampleN int

	// Unstructured
	Text  string
	Words int
}

// Notice is a non-blocking message for the user about how the load went.
type Notice struct {
	Level   string `json:"level"` // "info" | "warning"
	Message string `json:"message"`
}

func infoNotice(format string, args ...any) Notice {
	return Notice{Level: "info", Message: fmt.Sprintf(format, args...)}
}

func warnNotice(format string, args ...any) Notice {
	return Notice{Level: "warning", Message: fmt.Sprintf(format, args...)}
}

// Loader loads uploads. tempDir overrides the scratch directory used for
// partitioning temp files; empty means the system default.
type Loader struct {
	log     *zap.Logger
	tempDir string
}

func NewLoader(log *zap.Logger, tempDir string) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log, tempDir: tempDir}
}

// Load consumes the uploaded bytes once and produces exactly one Dataset.
// Errors are typed LoadErrors; callers surface the message and stop.
func (l *Loader) Load(name string, raw []byte) (*Dataset, []Notice, error) {
	ds := &Dataset{
		Name:     filepath.Base(name),
		Hash:     dataset.ContentHash(raw),
		ByteSize: int64(len(raw)),
		Kind:     Classify(name),
	}
	l.log.Debug("classified upload",
		zap.String("file", ds.Name),
		zap.String("kind", string(ds.Kind)),
		zap.Int64("bytes", ds.ByteSize))

	if ds.Kind == KindStructured {
		return l.loadStructured(ds, raw)
	}
	return l.loadUnstructured(ds, raw)
}

func (l *Loader) loadStructured(ds *Dataset, raw []byte) (*Dataset, []Notice, error) {
	ext := strings.ToLower(filepath.Ext(ds.Name))
	var (
		header  []string
		records [][]string
		err     error
	)
	switch ext {
	case ".csv":
		header, records, err = parseCSV(raw)
	case ".xlsx":
		header, records, err = parseXLSX(raw)
	case ".xls":
		header, records, err = parseXLS(raw)
	case ".parquet":
		header, records, err = parseParquet(raw)
	}
	if err != nil {
		return nil, nil, err
	}

	// Every column is coerced to numeric; failures become missing markers.
	tbl := dataset.FromStrings(header, records)

	var notices []Notice
	if ds.ByteSize > SampleThresholdBytes {
		n := sampleSize(tbl.RowCount())
		if n > tbl.RowCount() {
			return nil, nil, loadErr(StageSample, ext,
				fmt.Errorf("cannot sample %d rows from a %d-row dataset", n, tbl.RowCount()))
		}
		tbl = SampleRows(tbl, n, SampleSeed)
		ds.Sampled = true
		ds.SampleN = n
		notices = append(notices, warnNotice(
			"File size (%.2f GB) exceeded limit. LLM analysis will use a %d row sample for speed and stability.",
			float64(ds.ByteSize)/(1<<30), n))
		l.log.Info("large upload sampled",
			zap.String("file", ds.Name),
			zap.Int64("bytes", ds.ByteSize),
			zap.Int("sample_rows", n))
	} else {
		notices = append(notices, infoNotice(
			"Structured file loaded. DataFrame has %d rows and %d columns.",
			tbl.RowCount(), tbl.ColCount()))
	}
	ds.Table = tbl
	return ds, notices, nil
}

func (l *Loader) loadUnstructured(ds *Dataset, raw []byte) (*Dataset, []Notice, error) {
	elements, err := l.partition(ds.Name, raw)
	if err != nil {
		return nil, nil, err
	}
	ds.Text = strings.Join(elements, "\n\n")
	ds.Words = len(strings.Fields(ds.Text))
	notices := []Notice{infoNotice("Unstructured file loaded. Extracted %d words.", ds.Words)}
	return ds, notices, nil
}

func sampleSize(rows int) int {
	n := int(float64(rows) * SampleRate)
	if n < MinSampleRows {
		n = MinSampleRows
	}
	return n
}
