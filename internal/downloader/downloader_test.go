package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jm-dev/jm/internal/cache"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/pkg"
	"github.com/jm-dev/jm/internal/storage"
)

type failingArchiver struct{}

func (failingArchiver) ExtractTo(io.Reader, string) error {
	return jmerrors.New("failing archiver")
}

type recordingArchiver struct {
	calledWith []string
}

func (a *recordingArchiver) ExtractTo(_ io.Reader, targetPath string) error {
	a.calledWith = append(a.calledWith, targetPath)
	return nil
}

func newTestDownloader(t *testing.T, arc interface {
	ExtractTo(io.Reader, string) error
}) *TarDownloader {
	t.Helper()
	backing := storage.NewFileSystem(t.TempDir())
	factory := cache.NewFactory(backing)
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), factory, arc, metrics.Metrics{})
}

func TestDownloadToFailsWhenArchiverFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tarball-bytes"))
	}))
	defer server.Close()

	d := newTestDownloader(t, failingArchiver{})
	p := pkg.NewNpmPackage("p1", "1.0.0", nil, "", server.URL+"/tarball/p1", nil)

	err := d.DownloadTo(context.Background(), p, filepath.Join(t.TempDir(), "out"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestDownloadToCallsArchiverWithTargetPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tarball-bytes"))
	}))
	defer server.Close()

	arc := &recordingArchiver{}
	d := newTestDownloader(t, arc)

	p1 := pkg.NewNpmPackage("p1", "1.0.0", nil, "", server.URL+"/tarball/p1", nil)
	scoped := pkg.NewNpmPackage("@scoped/p1", "2.0.0", nil, "", server.URL+"/tarball/p2", nil)

	root := t.TempDir()
	target1 := filepath.Join(root, "p1")
	target2 := filepath.Join(root, "@scoped_p2")

	if err := d.DownloadTo(context.Background(), p1, target1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.DownloadTo(context.Background(), scoped, target2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(arc.calledWith) != 2 || arc.calledWith[0] != target1 || arc.calledWith[1] != target2 {
		t.Errorf("got %v, want [%s %s]", arc.calledWith, target1, target2)
	}
}

func TestDownloadToReusesCachedTarball(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("tarball-bytes"))
	}))
	defer server.Close()

	arc := &recordingArchiver{}
	d := newTestDownloader(t, arc)
	p := pkg.NewNpmPackage("p1", "1.0.0", nil, "", server.URL+"/tarball/p1", nil)

	root := t.TempDir()
	if err := d.DownloadTo(context.Background(), p, filepath.Join(root, "a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.DownloadTo(context.Background(), p, filepath.Join(root, "b")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("got %d http calls, want 1 (second download should hit the cache)", calls)
	}
}

func TestDownloadToVerifiesTarballAgainstShasum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tarball-bytes"))
	}))
	defer server.Close()

	arc := &recordingArchiver{}
	d := newTestDownloader(t, arc)

	const wrongShasum = "0000000000000000000000000000000000000000"
	p := pkg.NewNpmPackage("p1", "1.0.0", nil, wrongShasum, server.URL+"/tarball/p1", nil)

	err := d.DownloadTo(context.Background(), p, filepath.Join(t.TempDir(), "out"))
	if err == nil {
		t.Fatal("expected a checksum mismatch error")
	}
	if len(arc.calledWith) != 0 {
		t.Errorf("archiver should not run when the checksum mismatches, got %v", arc.calledWith)
	}
}

func TestDownloadToAcceptsMatchingShasum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tarball-bytes"))
	}))
	defer server.Close()

	arc := &recordingArchiver{}
	d := newTestDownloader(t, arc)

	const correctShasum = "9ef2570c89e65b9fe47687b0b49e122e59354bef"
	p := pkg.NewNpmPackage("p1", "1.0.0", nil, correctShasum, server.URL+"/tarball/p1", nil)

	if err := d.DownloadTo(context.Background(), p, filepath.Join(t.TempDir(), "out")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
