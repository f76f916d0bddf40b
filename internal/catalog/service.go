package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"anktest-backend/internal/qaindex"
	"anktest-backend/internal/shared/storage/blob"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("file not found")

// ErrInvalidInput marks caller mistakes (missing user, bad path).
var ErrInvalidInput = errors.New("invalid input")

// Entry is one row of the catalog listing: a stored upload joined with the
// QA blob derived from it, if any.
type Entry struct {
	UploadFile string  `json:"upload_file"`
	QAFile     *string `json:"qa_file"`
	UploadURL  string  `json:"upload_url"`
	QAURL      *string `json:"qa_url"`
}

// Service derives read-only listings by joining stored uploads with index
// records.
type Service struct {
	Store blob.Store

	// PublicBaseURL prefixes retrieval URLs; empty means relative URLs.
	PublicBaseURL string
}

// List joins the user's stored uploads with their index records. When several
// records point at the same upload, the latest one wins. The listing is a
// pure function of current storage and index state.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required: %w", ErrInvalidInput)
	}

	idx, err := qaindex.Ensure(ctx, s.Store, userID)
	if err != nil {
		return nil, err
	}

	qaByUpload := make(map[string]string, len(idx.Records))
	for _, rec := range idx.Records {
		qaByUpload[rec.UploadFile] = rec.QAFile
	}

	userPrefix := userID + "/"
	keys, err := s.Store.List(ctx, userPrefix+"upload_files/")
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	seen := make(map[string]struct{}, len(keys))
	uploads := make([]string, 0, len(keys))
	for _, key := range keys {
		rel := strings.TrimPrefix(key, userPrefix)
		if rel == "" || rel == key {
			continue
		}
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		uploads = append(uploads, rel)
	}
	sort.Strings(uploads)

	entries := make([]Entry, 0, len(uploads))
	for _, upload := range uploads {
		entry := Entry{
			UploadFile: upload,
			UploadURL:  s.fileURL(userID, upload),
		}
		if qaFile, ok := qaByUpload[upload]; ok {
			qaURL := s.fileURL(userID, qaFile)
			entry.QAFile = &qaFile
			entry.QAURL = &qaURL
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Open streams a stored blob from the user's namespace for download.
func (s *Service) Open(ctx context.Context, userID, relPath string) (io.ReadCloser, error) {
	if userID == "" || relPath == "" {
		return nil, fmt.Errorf("user id and path required: %w", ErrInvalidInput)
	}
	clean := path.Clean(relPath)
	if strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return nil, fmt.Errorf("invalid path: %w", ErrInvalidInput)
	}

	rc, err := s.Store.Open(ctx, path.Join(userID, clean))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

func (s *Service) fileURL(userID, relPath string) string {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("path", relPath)
	return s.PublicBaseURL + "/v1/file?" + q.Encode()
}
