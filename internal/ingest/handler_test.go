package ingest_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"anktest-backend/internal/bootstrap"
	"anktest-backend/internal/ingest"
	"anktest-backend/internal/shared/config"
)

func buildApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		BlobStoreType:   "memory",
		Env:             "dev",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func postQABuild(t *testing.T, router *gin.Engine, userID, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("user_id", userID); err != nil {
		t.Fatalf("write user_id field: %v", err)
	}
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/qa_build", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestQABuildSkippedWithoutCredential(t *testing.T) {
	app := buildApp(t)

	// Session init first, the way clients are expected to call.
	sessionBody := bytes.NewBufferString(`{"user_id":"u1"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/session", sessionBody)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from session, got %d", resp.Code)
	}

	buildResp := postQABuild(t, app.Router, "u1", "notes.txt", []byte("Q: hi\nA: hello"))
	if buildResp.Code != http.StatusOK {
		t.Fatalf("expected 200 from qa_build, got %d: %s", buildResp.Code, buildResp.Body.String())
	}

	var out struct {
		Status     string `json:"status"`
		UploadFile string `json:"upload_file"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(buildResp.Body).Decode(&out); err != nil {
		t.Fatalf("decode qa_build response: %v", err)
	}
	if out.Status != ingest.StatusSkipped {
		t.Fatalf("expected status %s, got %s", ingest.StatusSkipped, out.Status)
	}
	if out.UploadFile != "upload_files/notes.txt" {
		t.Fatalf("expected upload_file upload_files/notes.txt, got %s", out.UploadFile)
	}

	// Upload must be retrievable even though extraction was skipped.
	fileResp := httptest.NewRecorder()
	fileReq := httptest.NewRequest(http.MethodGet, "/v1/file?user_id=u1&path=upload_files%2Fnotes.txt", nil)
	app.Router.ServeHTTP(fileResp, fileReq)
	if fileResp.Code != http.StatusOK {
		t.Fatalf("expected 200 from file download, got %d", fileResp.Code)
	}
	if got, _ := io.ReadAll(fileResp.Body); string(got) != "Q: hi\nA: hello" {
		t.Fatalf("unexpected file content %q", string(got))
	}
}

func TestQABuildEndToEnd(t *testing.T) {
	app := buildApp(t)
	app.IngestService.Extractor = &fakeExtractor{out: `[{"q":"hi","a":"hello"}]`}

	buildResp := postQABuild(t, app.Router, "u1", "notes.txt", []byte("Q: hi\nA: hello"))
	if buildResp.Code != http.StatusOK {
		t.Fatalf("expected 200 from qa_build, got %d: %s", buildResp.Code, buildResp.Body.String())
	}

	var out struct {
		Status  string          `json:"status"`
		QAID    string          `json:"qa_id"`
		QACount int             `json:"qa_count"`
		QA      []ingest.QAPair `json:"qa"`
	}
	if err := json.NewDecoder(buildResp.Body).Decode(&out); err != nil {
		t.Fatalf("decode qa_build response: %v", err)
	}
	if out.Status != ingest.StatusSaved {
		t.Fatalf("expected status %s, got %s", ingest.StatusSaved, out.Status)
	}
	if out.QACount != 1 || len(out.QA) != 1 || out.QA[0].Q != "hi" || out.QA[0].A != "hello" {
		t.Fatalf("unexpected qa payload: %+v", out)
	}
	if out.QAID == "" {
		t.Fatalf("expected qa_id, got empty")
	}

	// The listing joins the upload with its QA blob.
	listResp := httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/v1/files?user_id=u1", nil)
	app.Router.ServeHTTP(listResp, listReq)
	if listResp.Code != http.StatusOK {
		t.Fatalf("expected 200 from files, got %d", listResp.Code)
	}

	var listing struct {
		UserID  string `json:"user_id"`
		Records []struct {
			UploadFile string  `json:"upload_file"`
			QAFile     *string `json:"qa_file"`
			UploadURL  string  `json:"upload_url"`
			QAURL      *string `json:"qa_url"`
		} `json:"records"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode files response: %v", err)
	}
	if listing.UserID != "u1" || len(listing.Records) != 1 {
		t.Fatalf("unexpected listing: %+v", listing)
	}
	rec := listing.Records[0]
	if rec.UploadFile != "upload_files/notes.txt" {
		t.Fatalf("expected upload_file upload_files/notes.txt, got %s", rec.UploadFile)
	}
	if rec.QAFile == nil || *rec.QAFile != "qa_files/"+out.QAID+".json" {
		t.Fatalf("unexpected qa_file: %v", rec.QAFile)
	}
	if rec.UploadURL == "" || rec.QAURL == nil || *rec.QAURL == "" {
		t.Fatalf("expected retrieval urls, got %+v", rec)
	}

	// The QA blob downloads back as the same array.
	qaResp := httptest.NewRecorder()
	qaReq := httptest.NewRequest(http.MethodGet, *rec.QAURL, nil)
	app.Router.ServeHTTP(qaResp, qaReq)
	if qaResp.Code != http.StatusOK {
		t.Fatalf("expected 200 from qa download, got %d", qaResp.Code)
	}
	var pairs []ingest.QAPair
	if err := json.NewDecoder(qaResp.Body).Decode(&pairs); err != nil {
		t.Fatalf("decode qa blob: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Q != "hi" || pairs[0].A != "hello" {
		t.Fatalf("unexpected qa blob: %+v", pairs)
	}
}

func TestQABuildRequiresUserID(t *testing.T) {
	app := buildApp(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte("text")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/qa_build", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestFileDownloadMissing(t *testing.T) {
	app := buildApp(t)

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/file?user_id=u1&path=upload_files%2Fnope.txt", nil)
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/file?user_id=u1", nil)
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing path, got %d", resp.Code)
	}
}
