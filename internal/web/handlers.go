package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tablechat/internal/ai"
	"github.com/KaramelBytes/tablechat/internal/cache"
	"github.com/KaramelBytes/tablechat/internal/dataset"
	"github.com/KaramelBytes/tablechat/internal/format"
	"github.com/KaramelBytes/tablechat/internal/ingest"
)

// uploadResponse describes one upload. The dataset id is the content hash,
// so re-uploading identical bytes answers from the cache.
type uploadResponse struct {
	DatasetID string           `json:"dataset_id"`
	Name      string           `json:"name"`
	Kind      ingest.Kind      `json:"kind"`
	Rows      int              `json:"rows,omitempty"`
	Columns   int              `json:"columns,omitempty"`
	Words     int              `json:"words,omitempty"`
	Sampled   bool             `json:"sampled,omitempty"`
	SampleN   int              `json:"sample_rows,omitempty"`
	Cached    bool             `json:"cached"`
	Notices   []ingest.Notice  `json:"notices"`
	Profile   *dataset.Profile `json:"profile,omitempty"`
}

func (a *App) handleUpload(ctx context.Context, r *http.Request) (any, error) {
	name, raw, err := readUploadPart(r)
	if err != nil {
		return nil, err
	}

	hash := dataset.ContentHash(raw)
	if entry, ok := a.cache.Get(hash); ok {
		a.log.Debug("upload answered from cache",
			zap.String("file", name),
			zap.String("hash", hash))
		return uploadResult(hash, entry, true), nil
	}

	ds, notices, err := a.loader.Load(name, raw)
	if err != nil {
		return nil, err
	}
	entry := cache.Entry{Dataset: ds, Notices: notices}
	a.cache.Put(hash, entry)
	return uploadResult(hash, entry, false), nil
}

func uploadResult(hash string, entry cache.Entry, cached bool) uploadResponse {
	ds := entry.Dataset
	resp := uploadResponse{
		DatasetID: hash,
		Name:      ds.Name,
		Kind:      ds.Kind,
		Cached:    cached,
		Notices:   entry.Notices,
		Sampled:   ds.Sampled,
		SampleN:   ds.SampleN,
	}
	if ds.Kind == ingest.KindStructured {
		resp.Rows = ds.Table.RowCount()
		resp.Columns = ds.Table.ColCount()
		resp.Profile = dataset.NewProfile(ds.Table, ds.Name, 0)
	} else {
		resp.Words = ds.Words
	}
	return resp
}

// readUploadPart scans the multipart body for the part named "file" and
// drains it into memory. The part's filename drives classification, so it is
// preserved.
func readUploadPart(r *http.Request) (string, []byte, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return "", nil, badRequest("expected a multipart/form-data upload")
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, badRequest("malformed multipart body")
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil, badRequest("file part is required")
			}
			return "", nil, badRequest("malformed multipart body")
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		raw, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return "", nil, badRequest("reading upload: %v", err)
		}
		name := part.FileName()
		if name == "" {
			name = "upload"
		}
		return name, raw, nil
	}
}

type askRequest struct {
	DatasetID string `json:"dataset_id"`
	Prompt    string `json:"prompt"`
}

type askResponse struct {
	Answer   string                `json:"answer"`
	Displays []format.DisplayEvent `json:"displays"`
}

func (a *App) handleAsk(ctx context.Context, r *http.Request) (any, error) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, badRequest("malformed request body")
	}

	if a.Degraded() {
		return nil, &ai.UnreachableError{Host: a.cfg.OllamaHost, Err: errDegraded}
	}

	entry, ok := a.cache.Get(req.DatasetID)
	if !ok {
		return nil, ErrNoDataset
	}

	rec := format.NewRecorder()
	answer, err := a.dispatcher.Dispatch(ctx, entry.Dataset, req.Prompt, format.NewFormatter(rec))
	if err != nil {
		return nil, err
	}
	return askResponse{Answer: answer, Displays: rec.Events()}, nil
}

type healthResponse struct {
	Connected bool   `json:"connected"`
	Model     string `json:"model"`
	Host      string `json:"host"`
}

// handleHealth reflects the last known connection state. ?probe=1 re-checks
// the endpoint and updates the degraded flag; there is no automatic
// reconnect.
func (a *App) handleHealth(ctx context.Context, r *http.Request) (any, error) {
	if r.URL.Query().Get("probe") == "1" {
		err := a.client.Health(ctx)
		a.setDegraded(err != nil)
		if err != nil {
			a.log.Warn("health probe failed", zap.Error(err))
		}
	}
	return healthResponse{
		Connected: !a.Degraded(),
		Model:     a.cfg.OllamaModel,
		Host:      a.cfg.OllamaHost,
	}, nil
}
