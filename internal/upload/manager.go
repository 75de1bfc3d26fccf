package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Options configures a Manager.
type Options struct {
	Dir        string // root; chunks go to Dir/tmp, assembled files to Dir/media
	ChunkSize  int64
	MaxSize    int64
	SessionTTL time.Duration
	Clock      clockwork.Clock
}

// InitRequest is the metadata a client declares before sending chunks.
type InitRequest struct {
	FileName    string
	ContentType string
	FileSize    int64
	TotalChunks int // optional; must match the computed value when set
}

// Assembled describes a finished upload on disk.
type Assembled struct {
	SessionID   string
	FileName    string
	StoredName  string
	ContentType string
	Path        string
	Size        int64
}

type Manager struct {
	store SessionStore
	opts  Options
}

func NewManager(store SessionStore, opts Options) (*Manager, error) {
	if opts.ChunkSize <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	for _, d := range []string{tmpRoot(opts.Dir), mediaRoot(opts.Dir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &Manager{store: store, opts: opts}, nil
}

func (m *Manager) ChunkSize() int64 { return m.opts.ChunkSize }

// MediaDir is the directory assembled files are written to.
func (m *Manager) MediaDir() string { return mediaRoot(m.opts.Dir) }

func (m *Manager) Init(ctx context.Context, req InitRequest) (*Session, error) {
	name := SafeFileName(req.FileName)
	if name == "" {
		return nil, fmt.Errorf("%w: file_name is required", ErrInvalidRequest)
	}
	if req.FileSize <= 0 {
		return nil, fmt.Errorf("%w: file_size must be positive", ErrInvalidRequest)
	}
	if m.opts.MaxSize > 0 && req.FileSize > m.opts.MaxSize {
		return nil, ErrTooLarge
	}
	total := TotalChunks(req.FileSize, m.opts.ChunkSize)
	if req.TotalChunks != 0 && req.TotalChunks != total {
		return nil, fmt.Errorf("%w: total_chunks %d does not match %d for chunk size %d", ErrInvalidRequest, req.TotalChunks, total, m.opts.ChunkSize)
	}
	s := &Session{
		ID:          uuid.NewString(),
		FileName:    name,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
		ChunkSize:   m.opts.ChunkSize,
		TotalChunks: total,
		Received:    make([]bool, total),
		CreatedAt:   m.opts.Clock.Now().UTC(),
	}
	if err := os.MkdirAll(m.sessionDir(s.ID), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if err := m.store.Create(ctx, s, m.opts.SessionTTL); err != nil {
		_ = os.RemoveAll(m.sessionDir(s.ID))
		return nil, err
	}
	return s, nil
}

// WriteChunk stores chunk index of upload id, replacing a previous copy.
// It returns the number of bytes written and the updated session.
func (m *Manager) WriteChunk(ctx context.Context, id string, index int, r io.Reader) (int64, *Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	if index < 0 || index >= s.TotalChunks {
		return 0, nil, ErrChunkOutOfRange
	}
	want := s.ExpectedChunkSize(index)

	tmp, err := os.CreateTemp(m.sessionDir(id), "incoming-*")
	if err != nil {
		return 0, nil, fmt.Errorf("stage chunk: %w", err)
	}
	defer os.Remove(tmp.Name())

	// Read one byte past the expected size so oversize chunks are detected.
	n, err := io.Copy(tmp, io.LimitReader(r, want+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, nil, fmt.Errorf("write chunk: %w", err)
	}
	if n != want {
		return n, nil, fmt.Errorf("%w: chunk %d is %d bytes, expected %d", ErrChunkSize, index, n, want)
	}
	if err := os.Rename(tmp.Name(), m.chunkPath(id, index)); err != nil {
		return 0, nil, fmt.Errorf("store chunk: %w", err)
	}
	s, err = m.store.MarkReceived(ctx, id, index)
	if err != nil {
		return 0, nil, err
	}
	return n, s, nil
}

// Complete concatenates all chunks into the media directory and drops the session.
func (m *Manager) Complete(ctx context.Context, id string) (*Assembled, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if missing := s.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %d of %d chunks missing", ErrIncomplete, len(missing), s.TotalChunks)
	}

	stored := s.ID + "-" + s.FileName
	dst := filepath.Join(mediaRoot(m.opts.Dir), stored)
	size, err := m.assemble(s, dst)
	if err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	if size != s.FileSize {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("%w: got %d bytes, declared %d", ErrSizeMismatch, size, s.FileSize)
	}

	if err := m.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	_ = os.RemoveAll(m.sessionDir(id))

	return &Assembled{
		SessionID:   s.ID,
		FileName:    s.FileName,
		StoredName:  stored,
		ContentType: s.ContentType,
		Path:        dst,
		Size:        size,
	}, nil
}

// Abort drops a session and its staged chunks.
func (m *Manager) Abort(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	return os.RemoveAll(m.sessionDir(id))
}

// SweepStale removes staged chunk directories whose session has expired.
// A directory is left alone until it is older than the session TTL, so an
// upload that is still being initialised is never touched.
func (m *Manager) SweepStale(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(tmpRoot(m.opts.Dir))
	if err != nil {
		return 0, fmt.Errorf("read upload tmp dir: %w", err)
	}
	cutoff := m.opts.Clock.Now().Add(-m.opts.SessionTTL)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if _, err := m.store.Get(ctx, e.Name()); !errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(tmpRoot(m.opts.Dir), e.Name())); err != nil {
			return removed, fmt.Errorf("remove stale upload %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// RunSweeper calls SweepStale every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := m.opts.Clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			n, err := m.SweepStale(ctx)
			if err != nil {
				slog.WarnContext(ctx, "Upload sweep failed", "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "Removed stale uploads", "count", n)
			}
		}
	}
}

func (m *Manager) assemble(s *Session, dst string) (int64, error) {
	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create media file: %w", err)
	}
	var total int64
	for i := 0; i < s.TotalChunks; i++ {
		n, err := appendFile(out, m.chunkPath(s.ID, i))
		if err != nil {
			out.Close()
			return 0, fmt.Errorf("append chunk %d: %w", i, err)
		}
		total += n
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close media file: %w", err)
	}
	return total, nil
}

func appendFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

func (m *Manager) sessionDir(id string) string {
	return filepath.Join(tmpRoot(m.opts.Dir), filepath.Base(id))
}

func (m *Manager) chunkPath(id string, index int) string {
	return filepath.Join(m.sessionDir(id), strconv.Itoa(index)+".part")
}

func tmpRoot(dir string) string   { return filepath.Join(dir, "tmp") }
func mediaRoot(dir string) string { return filepath.Join(dir, "media") }

// SafeFileName keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'.
func SafeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
