package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"anktest-backend/internal/extract"
	"anktest-backend/internal/qaindex"
	"anktest-backend/internal/shared/metrics"
	"anktest-backend/internal/shared/storage/blob"
	"anktest-backend/internal/shared/telemetry"
	"anktest-backend/internal/shared/util"
)

// Service runs the upload, transform, persist pipeline for one transcript.
// Extractor may be nil when no extraction credential is configured; the
// pipeline then stops after the upload.
type Service struct {
	Store     blob.Store
	Extractor extract.Client
}

// Ingest writes the raw transcript, attempts QA extraction, and records the
// result in the user's index. Stages run strictly in order and a stage
// failure never rolls back an earlier stage. Only a failure of the mandatory
// upload write returns an error; everything downstream is absorbed into the
// Outcome.
func (s *Service) Ingest(ctx context.Context, userID, fileName string, content []byte) (Outcome, error) {
	if userID == "" {
		return Outcome{}, fmt.Errorf("user id required: %w", ErrInvalidInput)
	}
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Outcome{}, fmt.Errorf("sanitize file name: %w", ErrInvalidInput)
	}

	start := metrics.NowMillis()
	defer func() {
		metrics.ObserveIngestDurationMs(metrics.NowMillis() - start)
	}()

	uploadFile := path.Join("upload_files", sanitized)
	objectKey := path.Join(userID, uploadFile)

	// Stage 1: upload. The raw transcript is stored regardless of what
	// happens downstream.
	if err := s.Store.Write(ctx, objectKey, "application/octet-stream", content); err != nil {
		return Outcome{}, fmt.Errorf("write upload: %w", err)
	}
	metrics.IncIngestUploaded()

	out := Outcome{
		UploadFile: uploadFile,
		ObjectKey:  objectKey,
	}

	// Stage 2: gate on extraction configuration.
	if s.Extractor == nil {
		out.Status = StatusSkipped
		out.Reason = "extraction service not configured"
		metrics.IncIngestQASkipped()
		return out, nil
	}

	// Stage 3: transform.
	pairs, err := s.transform(ctx, content)
	if err != nil {
		telemetry.Error("ingest.transform_failed", map[string]any{
			"user_id":     userID,
			"upload_file": uploadFile,
			"error":       err.Error(),
		})
		out.Status = StatusFailed
		out.Err = err.Error()
		metrics.IncIngestQAFailed()
		return out, nil
	}

	// Stage 4: persist. Storage trouble here still leaves the upload
	// durable, so it is reported the same way as a transform failure.
	qaID, qaFile, err := s.persist(ctx, userID, uploadFile, pairs)
	if err != nil {
		telemetry.Error("ingest.persist_failed", map[string]any{
			"user_id":     userID,
			"upload_file": uploadFile,
			"error":       err.Error(),
		})
		out.Status = StatusFailed
		out.Err = err.Error()
		metrics.IncIngestQAFailed()
		return out, nil
	}

	out.Status = StatusSaved
	out.QA = pairs
	out.QAID = qaID
	out.QACount = len(pairs)
	metrics.IncIngestQASaved()
	telemetry.Info("ingest.qa_saved", map[string]any{
		"user_id":  userID,
		"qa_id":    qaID,
		"qa_file":  qaFile,
		"qa_count": len(pairs),
	})
	return out, nil
}

func (s *Service) transform(ctx context.Context, content []byte) ([]QAPair, error) {
	prompt := BuildPrompt(decodeText(content))

	raw, err := s.Extractor.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	pairs, err := parseQAPairs(raw)
	if err != nil {
		return nil, err
	}
	return pairs, nil
}

func (s *Service) persist(ctx context.Context, userID, uploadFile string, pairs []QAPair) (string, string, error) {
	qaID := ulid.Make().String()
	qaFile := path.Join("qa_files", qaID+".json")

	data, err := json.Marshal(pairs)
	if err != nil {
		return "", "", fmt.Errorf("marshal qa pairs: %w", err)
	}
	if err := s.Store.Write(ctx, path.Join(userID, qaFile), "application/json", data); err != nil {
		return "", "", fmt.Errorf("write qa blob: %w", err)
	}

	idx, err := qaindex.Ensure(ctx, s.Store, userID)
	if err != nil {
		return "", "", err
	}
	idx.Records = append(idx.Records, qaindex.Record{
		QAID:       qaID,
		UploadFile: uploadFile,
		QAFile:     qaFile,
	})
	if err := qaindex.Save(ctx, s.Store, userID, idx); err != nil {
		return "", "", err
	}
	return qaID, qaFile, nil
}

// decodeText interprets raw bytes as UTF-8, replacing invalid sequences so a
// bad byte never aborts the pipeline.
func decodeText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), string(utf8.RuneError))
}

// parseQAPairs parses extraction output as a JSON array of {q,a} objects,
// tolerating a markdown code fence around the array.
func parseQAPairs(raw string) ([]QAPair, error) {
	trimmed := stripCodeFence(strings.TrimSpace(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("extraction output is not a JSON array")
	}
	var pairs []QAPair
	if err := json.Unmarshal([]byte(trimmed), &pairs); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}
	if pairs == nil {
		pairs = []QAPair{}
	}
	return pairs, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
