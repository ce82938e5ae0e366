// Package apk provides support for loading and running Android application
// packages as plain host-VM processes: container extraction, resource and
// manifest decoding, DEX-to-host translation, and the shim runtime that the
// driver façade drives.
//
// APK is the archival format used for Android apps: a ZIP archive with a
// well-known internal layout (classes.dex, classes2.dex,..., AndroidManifest.xml
// in binary-XML form, resources.arsc, and a res/ tree of raw resources). This
// file implements the container reader: it extracts that layout into a
// Session.
package apk

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"

	kflate "github.com/klauspost/compress/flate"
)

func init() {
	// klauspost/compress's flate decoder is a drop-in for the one
	// archive/zip uses internally and is what the rest of the pack's APK
	// tooling (avast/apkparser) reaches for when it cares about decode
	// throughput on large archives.
	zip.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return io.NopCloser(kflate.NewReader(r))
	})
}

var dexNameRE = regexp.MustCompile(`^classes(\d*)\.dex$`)

const (
	manifestEntryName = "AndroidManifest.xml"
	resourcesEntryName = "resources.arsc"
	resEntryPrefix = "res/"
)

// Session owns the result of extracting one APK: its DEX files in load
// order, the raw manifest and resource-table blobs (if present), and the raw
// resource tree keyed by the path relative to the archive root. A Session is
// released by calling Close, which removes the scratch directory backing any
// resources that were extracted to disk.
//
// All extraction is atomic at the entry level: if any required entry fails
// to decompress, Open returns an error and no Session is produced.
type Session struct {
	Dex [][]byte
	Manifest []byte
	Resources []byte
	// Raw holds every entry under res/ when OpenOptions.KeepRawResources is
	// set, keyed by the archive-relative path; other entries are not kept.
	Raw map[string][]byte

	// SignerFingerprint is the SHA-256 fingerprint of the APK's signing
	// certificate, hex-encoded, populated only when OpenOptions.Verify is
	// set. Empty otherwise.
	SignerFingerprint string

	scratchDir string
}

// OpenOptions configures Open.
type OpenOptions struct {
	// KeepRawResources causes every entry under res/ to be copied into
	// Session.Raw. When false (the default) only the manifest and resource
	// table are extracted, which is enough to drive resource resolution;
	// raw resource bytes (PNGs, raw XML layouts) are read on demand via
	// Session.ReadEntry instead.
	KeepRawResources bool

	// Verify, when true, authenticates the APK's signing certificate and
	// populates Session.SignerFingerprint. A failed verification aborts
	// the session with a FormatError, matching the "atomic at the entry
	// level" contract: a package that doesn't pass its own signature check
	// is not a package we trust enough to run.
	Verify bool

	// ScratchDir is the parent directory for the session's scratch
	// directory. Defaults to os.TempDir() when empty.
	ScratchDir string
}

// Open extracts an APK at path into a Session. The caller must call
// Session.Close to release the scratch directory.
func Open(path string, opts OpenOptions) (*Session, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, NewError(KindFormat, "apk.Open", err)
	}
	defer zr.Close()

	scratchParent := opts.ScratchDir
	if scratchParent == "" {
		scratchParent = os.TempDir()
	}
	scratch, err := os.MkdirTemp(scratchParent, "testpilot-apk-")
	if err != nil {
		return nil, NewError(KindFormat, "apk.Open", err)
	}

	s := &Session{Raw: map[string][]byte{}, scratchDir: scratch}

	type dexEntry struct {
		idx int
		data []byte
	}
	var dexEntries []dexEntry

	for _, f := range zr.File {
		switch {
		case dexNameRE.MatchString(f.Name):
			m := dexNameRE.FindStringSubmatch(f.Name)
			idx := 1
			if m[1] != "" {
				n, convErr := strconv.Atoi(m[1])
				if convErr != nil {
					os.RemoveAll(scratch)
					return nil, NewError(KindFormat, "apk.Open", fmt.Errorf("bad dex suffix %q", f.Name))
				}
				idx = n
			}
			data, rerr := readZipEntry(f)
			if rerr != nil {
				os.RemoveAll(scratch)
				return nil, NewError(KindFormat, "apk.Open", fmt.Errorf("extracting %s: %w", f.Name, rerr))
			}
			dexEntries = append(dexEntries, dexEntry{idx: idx, data: data})
		case f.Name == manifestEntryName:
			data, rerr := readZipEntry(f)
			if rerr != nil {
				os.RemoveAll(scratch)
				return nil, NewError(KindFormat, "apk.Open", fmt.Errorf("extracting manifest: %w", rerr))
			}
			s.Manifest = data
		case f.Name == resourcesEntryName:
			data, rerr := readZipEntry(f)
			if rerr != nil {
				os.RemoveAll(scratch)
				return nil, NewError(KindFormat, "apk.Open", fmt.Errorf("extracting resource table: %w", rerr))
			}
			s.Resources = data
		case len(f.Name) > len(resEntryPrefix) && f.Name[:len(resEntryPrefix)] == resEntryPrefix:
			if opts.KeepRawResources {
				data, rerr := readZipEntry(f)
				if rerr != nil {
					os.RemoveAll(scratch)
					return nil, NewError(KindFormat, "apk.Open", fmt.Errorf("extracting %s: %w", f.Name, rerr))
				}
				s.Raw[f.Name] = data
			}
		}
	}

	// classes.dex (index 1, no numeric suffix) sorts before classes2.dex,
	// classes3.dex,..., lexicographic-by-index order.
	sort.Slice(dexEntries, func(i, j int) bool { return dexEntries[i].idx < dexEntries[j].idx })
	for _, e := range dexEntries {
		s.Dex = append(s.Dex, e.data)
	}

	if opts.Verify {
		fp, verr := verifySigner(path)
		if verr != nil {
			os.RemoveAll(scratch)
			return nil, NewError(KindFormat, "apk.Open", fmt.Errorf("signature verification: %w", verr))
		}
		s.SignerFingerprint = fp
	}

	return s, nil
}

// ReadEntry reads one archive entry by its path on demand; used for raw
// resources that weren't eagerly extracted via OpenOptions.KeepRawResources.
func (s *Session) ReadEntry(path, archivePath string) ([]byte, error) {
	if data, ok := s.Raw[archivePath]; ok {
		return data, nil
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, NewError(KindFormat, "apk.ReadEntry", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == archivePath {
			return readZipEntry(f)
		}
	}
	return nil, NewError(KindFormat, "apk.ReadEntry", fmt.Errorf("no such entry %q", archivePath))
}

// Close releases the Session's scratch directory. Safe to call more than
// once.
func (s *Session) Close() error {
	if s.scratchDir == "" {
		return nil
	}
	dir := s.scratchDir
	s.scratchDir = ""
	return os.RemoveAll(dir)
}

// ScratchDir returns the directory backing this session's on-disk scratch
// space, for collaborators (the driver façade, translator caches) that want
// a place to stage intermediate files.
func (s *Session) ScratchDir() string { return s.scratchDir }

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}
