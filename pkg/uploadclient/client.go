// Package uploadclient uploads large files to the chunked upload endpoints:
// init, then each fixed-size chunk in order, then complete. Any failure aborts
// the whole upload; callers retry from the start.
package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultChunkSize matches the server default of 2 MiB.
const DefaultChunkSize int64 = 2 << 20

const defaultPath = "/api/blog/chunked-upload"

// ProgressFunc is called after every chunk with the bytes sent so far.
type ProgressFunc func(uploaded, total int64)

// Client talks to one backend. Zero values of HTTP, ChunkSize and Path fall
// back to sensible defaults.
type Client struct {
	BaseURL   string
	Token     string
	HTTP      *http.Client
	ChunkSize int64
	Path      string
}

// Result is the server reply to a completed upload.
type Result struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url"`
	Size    int64  `json:"size"`
}

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Step       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Step, e.StatusCode, e.Message)
}

type initResponse struct {
	UploadID    string `json:"upload_id"`
	ChunkSize   int64  `json:"chunk_size"`
	TotalChunks int    `json:"total_chunks"`
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		HTTP:      &http.Client{Timeout: 2 * time.Minute},
		ChunkSize: DefaultChunkSize,
	}
}

// Upload sends size bytes from r as fileName.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, r io.ReaderAt, size int64, onProgress ProgressFunc) (*Result, error) {
	if size <= 0 {
		return nil, errors.New("file is empty")
	}
	chunkSize := c.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	total := int((size + chunkSize - 1) / chunkSize)

	var init initResponse
	err := c.postJSON(ctx, "init", map[string]any{
		"file_name":    fileName,
		"file_size":    size,
		"content_type": contentType,
		"total_chunks": total,
	}, &init)
	if err != nil {
		return nil, err
	}
	if init.UploadID == "" {
		return nil, errors.New("init: response has no upload_id")
	}
	if init.ChunkSize != 0 && init.ChunkSize != chunkSize {
		return nil, fmt.Errorf("init: server chunk size %d differs from client chunk size %d", init.ChunkSize, chunkSize)
	}

	buf := make([]byte, chunkSize)
	var sent int64
	for i := 0; i < total; i++ {
		start := int64(i) * chunkSize
		end := min(start+chunkSize, size)
		n, err := r.ReadAt(buf[:end-start], start)
		if err != nil && !(errors.Is(err, io.EOF) && int64(n) == end-start) {
			return nil, fmt.Errorf("read chunk %d: %w", i, err)
		}
		if err := c.sendChunk(ctx, init.UploadID, i, fileName, buf[:n]); err != nil {
			return nil, err
		}
		sent += int64(n)
		if onProgress != nil {
			onProgress(sent, size)
		}
	}

	var res Result
	if err := c.postJSON(ctx, "complete", map[string]string{"upload_id": init.UploadID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadFile uploads the file at path, guessing the content type from its extension.
func (c *Client) UploadFile(ctx context.Context, path string, onProgress ProgressFunc) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return c.Upload(ctx, filepath.Base(path), ct, f, st.Size(), onProgress)
}

func (c *Client) sendChunk(ctx context.Context, uploadID string, index int, fileName string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("upload_id", uploadID); err != nil {
		return err
	}
	if err := mw.WriteField("chunk_index", strconv.Itoa(index)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("chunk", fmt.Sprintf("%s.part%d", fileName, index))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("chunk"), &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, fmt.Sprintf("chunk %d", index), nil)
}

func (c *Client) postJSON(ctx context.Context, step string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(step), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, step, out)
}

func (c *Client) do(req *http.Request, step string, out any) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", step, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Step: step, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", step, err)
	}
	return nil
}

func (c *Client) endpoint(step string) string {
	p := c.Path
	if p == "" {
		p = defaultPath
	}
	return strings.TrimRight(c.BaseURL, "/") + p + "/" + step
}
