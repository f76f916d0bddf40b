package qaindex

import "path"

const indexFileName = "qa.json"

// Record links one stored upload to the QA blob derived from it.
type Record struct {
	QAID       string `json:"qa_id"`
	UploadFile string `json:"upload_file"`
	QAFile     string `json:"qa_file"`
}

// Index is the per-user document listing all completed ingestions. It is the
// single source of truth for the upload-to-QA mapping; append order matters.
type Index struct {
	UserID  string   `json:"user_id"`
	Records []Record `json:"records"`
}

// Key returns the storage key of a user's index document.
func Key(userID string) string {
	return path.Join(userID, indexFileName)
}
