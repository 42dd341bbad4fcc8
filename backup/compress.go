package backup

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression selects how weekly backup copies are stored
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	Brotli
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gz"
	case Zstd:
		return "zstd"
	case Brotli:
		return "br"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// Ext returns file extension appended to a compressed backup, "" for None
func (c Compression) Ext() string {
	switch c {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zstd"
	case Brotli:
		return ".br"
	}
	return ""
}

// ParseCompression accepts "", "none", "gz", "gzip", "zstd", "zst", "br", "brotli"
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "gz", "gzip":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	case "br", "brotli":
		return Brotli, nil
	}
	return None, fmt.Errorf("unknown compression '%s'", s)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// NewWriter wraps w in a compressing writer. Close() must be called to
// flush compressed data, it doesn't close w
func (c Compression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case Zstd:
		// SpeedBestCompression is much slower and not much better
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	case Brotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	}
	return nil, fmt.Errorf("unknown compression %d", int(c))
}

// implement io.ReadCloser over os.File wrapped with io.Reader.
// io.Closer goes to os.File, io.Reader goes to wrapping reader
type readerWrappedFile struct {
	f     *os.File
	r     io.Reader
	close func()
}

func (rc *readerWrappedFile) Close() error {
	if rc.close != nil {
		rc.close()
	}
	return rc.f.Close()
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

// OpenMaybeCompressed opens a backup file, decompressing based on
// file extension (.gz, .zstd, .zst, .br)
func OpenMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readerWrappedFile{f: f, r: r}, nil
	case ".zstd", ".zst":
		r, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readerWrappedFile{f: f, r: r, close: r.Close}, nil
	case ".br":
		return &readerWrappedFile{f: f, r: brotli.NewReader(f)}, nil
	}
	return f, nil
}

// ReadFileMaybeCompressed reads a whole backup file, decompressing if needed
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
