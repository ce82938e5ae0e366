// APK is the archival format used for Android apps. It is a ZIP archive
// whose entries are conventionally uncompressed and 4-byte aligned so the
// platform can mmap contents without unpacking the archive. testpilot's
// Session (container.go) only reads that format; Writer builds it, for
// synthesizing fixture APKs instead of checking binary blobs into the repo.
// Nothing in this repository calls Writer.
package apk

import (
	"archive/zip"
	"io"
	"time"
)

// zipEpoch is a fixed mod time so Writer output is byte-for-byte
// reproducible across test runs.
var zipEpoch = time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)

// Writer builds an uncompressed, 4-byte-aligned APK-shaped ZIP archive. It
// does not produce the META-INF/MANIFEST.MF + CERT.SF + CERT.RSA signing
// block real `apksigner` output carries, so Open with OpenOptions.Verify
// set rejects archives Writer produces.
type Writer struct {
	zw      *zip.Writer
	written int64 // bytes written so far, for alignment padding
	entries int   // entries created so far
}

// NewWriter returns a Writer that serializes its archive to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// Create opens the next entry for writing. Entries must be fully written
// before the next Create call, matching archive/zip.Writer's contract.
func (w *Writer) Create(name string) (io.Writer, error) {
	hdr := &zip.FileHeader{
		Name:   name,
		Method: zip.Store,
	}
	hdr.SetModTime(zipEpoch)

	// Pad the local file header's extra field so the entry's data starts
	// on a 4-byte boundary, the same trick aapt uses for mmap-able
	// resources.arsc and DEX entries. archive/zip appends a 9-byte
	// extended-timestamp extra field to the header and writes a 16-byte
	// data descriptor after each stored entry's data; both are counted.
	if w.entries > 0 {
		w.written += 16
	}
	w.entries++
	headerSize := int64(30 + len(hdr.Name) + 9)
	pad := (4 - (w.written+headerSize)%4) % 4
	hdr.Extra = make([]byte, pad)

	fw, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return nil, err
	}
	w.written += headerSize + pad
	return &countingWriter{w: fw, n: &w.written}, nil
}

// Close finalizes the archive's central directory.
func (w *Writer) Close() error {
	return w.zw.Close()
}

type countingWriter struct {
	w io.Writer
	n *int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	*c.n += int64(n)
	return n, err
}
