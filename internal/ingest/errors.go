package ingest

import "fmt"

// Stage identifies which part of loading failed.
type Stage string

const (
	// StageDecode covers text decoding failures (non-UTF-8 CSV bytes).
	StageDecode Stage = "decode"
	// StageParse covers delimiter sniffing and format parse failures.
	StageParse Stage = "parse"
	// StageSample covers failures applying the large-file sampling policy.
	StageSample Stage = "sample"
	// StagePartition covers unstructured text extraction failures.
	StagePartition Stage = "partition"
)

// LoadError is the typed failure returned by the loaders. One is produced at
// the boundary of the loader that failed and halts the request; nothing is
// retried and no partial dataset escapes.
type LoadError struct {
	Stage  Stage
	Format string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Stage == StagePartition {
		return fmt.Sprintf("partitioning %s file: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("loading structured %s file: %v", e.Format, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadErr(stage Stage, format string, err error) *LoadError {
	return &LoadError{Stage: stage, Format: format, Err: err}
}
