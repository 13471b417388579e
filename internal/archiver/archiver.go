// Package archiver extracts npm tarballs, stripping the conventional
// "package/" prefix directory every npm pack output carries (tolerating
// its absence), grounded on jam's archiver.rs.
package archiver

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/jm-dev/jm/internal/jmerrors"
)

// npmPackPathPrefix is the top-level directory name every npm-packed
// tarball wraps its contents in.
const npmPackPathPrefix = "package"

// Archiver extracts a gzip-compressed tarball read from archive into a
// target directory.
type Archiver interface {
	ExtractTo(archive io.Reader, targetPath string) error
}

// DefaultArchiver extracts gzip-compressed tar archives via archive/tar
// and klauspost/compress/gzip.
type DefaultArchiver struct{}

// New constructs a DefaultArchiver.
func New() *DefaultArchiver {
	return &DefaultArchiver{}
}

// ExtractTo unpacks archive into targetPath, dropping the leading
// "package/" path component when present.
func (a *DefaultArchiver) ExtractTo(archive io.Reader, targetPath string) error {
	gz, err := gzip.NewReader(archive)
	if err != nil {
		return jmerrors.Wrap(err, "failed to read gzip stream")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return jmerrors.Wrap(err, "failed to read tar entry")
		}

		entryPath := strippedEntryPath(header.Name)
		if entryPath == "" {
			// the bare "package" directory entry itself.
			continue
		}

		if header.Typeflag == tar.TypeDir {
			// directory entries are skipped; parent directories are created
			// below for every extracted entry.
			continue
		}

		filePath := filepath.Join(targetPath, entryPath)

		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return jmerrors.Wrap(err, "failed to create parent directory")
		}

		switch header.Typeflag {
		case tar.TypeSymlink:
			_ = os.Remove(filePath)
			if err := os.Symlink(header.Linkname, filePath); err != nil {
				return jmerrors.Wrap(err, "failed to create symlink")
			}
		default:
			if err := extractFile(tr, filePath, header); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractFile(tr *tar.Reader, filePath string, header *tar.Header) error {
	out, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode))
	if err != nil {
		return jmerrors.Wrap(err, "failed to create file")
	}
	defer out.Close()

	if _, err := io.Copy(out, tr); err != nil {
		return jmerrors.Wrap(err, "failed to write file")
	}

	return nil
}

// strippedEntryPath drops the leading "package/" component if present,
// otherwise returns the entry path unchanged.
func strippedEntryPath(name string) string {
	name = strings.TrimPrefix(name, "./")
	if name == npmPackPathPrefix {
		return ""
	}
	if rest, ok := strings.CutPrefix(name, npmPackPathPrefix+"/"); ok {
		return rest
	}
	return name
}
