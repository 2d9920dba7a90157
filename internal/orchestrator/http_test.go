package orchestrator

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/local/pdfsplit/internal/pdftest"
	"github.com/local/pdfsplit/internal/render"
)

func newTestServer(t *testing.T, renderer render.Renderer) (*httptest.Server, *memStatus) {
	t.Helper()
	status := newMemStatus()
	svc := New(Dependencies{Status: status, Renderer: renderer}, render.Options{})
	mux := http.NewServeMux()
	NewHTTP(svc, 64).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, status
}

func multipartUpload(t *testing.T, pages int, format, chunkSize, names string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(pdftest.Document(pages)); err != nil {
		t.Fatal(err)
	}
	_ = mw.WriteField("output_format", format)
	_ = mw.WriteField("chunk_size", chunkSize)
	_ = mw.WriteField("names", names)
	_ = mw.Close()
	return &body, mw.FormDataContentType()
}

func TestHandleProcessUploadPDF(t *testing.T) {
	srv, _ := newTestServer(t, render.Unavailable{})

	body, contentType := multipartUpload(t, 5, "pdf", "2", "a\nb\nc\n")
	resp, err := http.Post(srv.URL+"/process_upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, out)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %s, want application/zip", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	want := []string{"a.pdf", "b.pdf", "c.pdf"}
	if len(zr.File) != len(want) {
		t.Fatalf("archive holds %d entries, want %d", len(zr.File), len(want))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("entry %d = %s, want %s", i, f.Name, want[i])
		}
	}
}

func TestHandleProcessUploadNameMismatch(t *testing.T) {
	srv, _ := newTestServer(t, render.Unavailable{})

	body, contentType := multipartUpload(t, 5, "pdf", "2", "a\nb\n")
	resp, err := http.Post(srv.URL+"/process_upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var out struct {
		Error  string `json:"error"`
		Detail struct {
			Expected int `json:"expected"`
			Actual   int `json:"actual"`
		} `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Detail.Expected != 3 || out.Detail.Actual != 2 {
		t.Errorf("detail = %+v, want expected=3 actual=2", out.Detail)
	}
}

func TestHandleProcessUploadJPGUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, render.Unavailable{})

	body, contentType := multipartUpload(t, 2, "jpg", "1", "a\nb\n")
	resp, err := http.Post(srv.URL+"/process_upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHandleProcessUploadJPG(t *testing.T) {
	srv, _ := newTestServer(t, stubRenderer{pages: 3})

	body, contentType := multipartUpload(t, 3, "jpg", "1", "x\ny\nz\n")
	resp, err := http.Post(srv.URL+"/process_upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, out)
	}
	data, _ := io.ReadAll(resp.Body)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"x.jpg", "y.jpg", "z.jpg"}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("entry %d = %s, want %s", i, f.Name, want[i])
		}
	}
}

func TestHandleProgress(t *testing.T) {
	srv, status := newTestServer(t, render.Unavailable{})

	// Run a request so the store holds a terminal state.
	body, contentType := multipartUpload(t, 2, "pdf", "1", "a\nb\n")
	resp, err := http.Post(srv.URL+"/process_upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	ids := status.ids()
	if len(ids) == 0 {
		t.Fatal("no request recorded")
	}
	id := ids[0]

	// The delivered transition lands just after the body is streamed, so
	// poll briefly instead of asserting on the first read.
	deadline := time.Now().Add(2 * time.Second)
	for {
		pr, err := http.Get(srv.URL + "/progress/" + id)
		if err != nil {
			t.Fatal(err)
		}
		if pr.StatusCode != http.StatusOK {
			pr.Body.Close()
			t.Fatalf("status = %d, want 200", pr.StatusCode)
		}
		var out map[string]interface{}
		err = json.NewDecoder(pr.Body).Decode(&out)
		pr.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if out["state"] == "delivered" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want delivered", out["state"])
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleProgressUnknownID(t *testing.T) {
	srv, _ := newTestServer(t, render.Unavailable{})
	resp, err := http.Get(srv.URL + "/progress/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleProcessRefLocalFile(t *testing.T) {
	srv, _ := newTestServer(t, render.Unavailable{})

	src := fixturePDF(t, 4)
	payload, _ := json.Marshal(refRequest{
		FileRef:      "file://" + src,
		OutputFormat: "pdf",
		ChunkSize:    2,
		Names:        "one\ntwo\n",
	})
	resp, err := http.Post(srv.URL+"/process_ref", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, out)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %s, want application/zip", ct)
	}
}

func TestHandleProcessRefMissingRef(t *testing.T) {
	srv, _ := newTestServer(t, render.Unavailable{})
	resp, err := http.Post(srv.URL+"/process_ref", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
