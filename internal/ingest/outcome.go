package ingest

// Terminal outcomes of one ingestion call. The upload itself is durable in
// every case; the status only describes what happened downstream of it.
const (
	StatusSaved   = "uploaded_and_qa_saved"
	StatusFailed  = "uploaded_but_qa_failed"
	StatusSkipped = "uploaded_but_qa_skipped"
)

// QAPair is one structured question/answer extracted from a transcript.
type QAPair struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Outcome is the explicit result of an ingestion. Exactly one of the three
// statuses applies; the contextual fields are populated per status.
type Outcome struct {
	Status     string
	UploadFile string // path relative to the user namespace
	ObjectKey  string // full storage key of the upload
	QA         []QAPair
	QAID       string
	QACount    int
	Reason     string // set for StatusSkipped
	Err        string // set for StatusFailed
}
