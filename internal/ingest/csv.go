package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// parseCSV decodes the upload as UTF-8, sniffs the delimiter over the first
// 1024 characters, and parses the whole stream. The first record is the
// header; short records are tolerated (padded later during coercion).
func parseCSV(raw []byte) ([]string, [][]string, error) {
	if !utf8.Valid(raw) {
		return nil, nil, loadErr(StageDecode, ".csv", errors.New("file is not valid UTF-8 text"))
	}

	delim, err := sniffDelimiter(raw)
	if err != nil {
		return nil, nil, loadErr(StageParse, ".csv", err)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var header []string
	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, loadErr(StageParse, ".csv", err)
		}
		if header == nil {
			header = rec
			continue
		}
		records = append(records, rec)
	}
	if header == nil {
		return nil, nil, loadErr(StageParse, ".csv", errors.New("file contains no rows"))
	}
	return header, records, nil
}

// sniffDelimiter inspects up to the first 1024 characters. A candidate wins
// when it appears the same nonzero number of times on every sampled line;
// candidates are tried in fixed order so ties resolve deterministically.
func sniffDelimiter(raw []byte) (rune, error) {
	sample := string(raw)
	if len(sample) > 1024 {
		cut := 1024
		for cut > 0 && !utf8.RuneStart(sample[cut]) {
			cut--
		}
		sample = sample[:cut]
	}

	lines := strings.Split(sample, "\n")
	// The final line is usually truncated mid-record by the 1024 cut; drop
	// it unless it is all we have.
	if len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	var kept []string
	for _, ln := range lines {
		ln = strings.TrimRight(ln, "\r")
		if strings.TrimSpace(ln) != "" {
			kept = append(kept, ln)
		}
	}
	if len(kept) == 0 {
		return 0, errors.New("file contains no rows")
	}

	for _, cand := range delimiterCandidates {
		count := strings.Count(kept[0], string(cand))
		if count == 0 {
			continue
		}
		consistent := true
		for _, ln := range kept[1:] {
			if strings.Count(ln, string(cand)) != count {
				consistent = false
				break
			}
		}
		if consistent {
			return cand, nil
		}
	}
	return 0, fmt.Errorf("could not detect a consistent delimiter (tried %q)", string(delimiterCandidates))
}
