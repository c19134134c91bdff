package mt940

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rahulcharvekar/reconciliation-service/internal/fileutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
)

var (
	// FileExtensions are accepted in the MT940 inbox.
	FileExtensions = []string{".mt940", ".sta", ".zip"}

	// MemberExtensions are the archive members that hold statements.
	MemberExtensions = []string{".mt940", ".sta"}

	zipMagic = []byte("PK\x03\x04")
)

// Input is one document ready for decoding: a plain file or an archive member.
type Input struct {
	Name string
	Data []byte
}

// IsArchive reports whether the content is a zip container, by name or by
// magic number.
func IsArchive(name string, data []byte) bool {
	return strings.EqualFold(path.Ext(name), ".zip") || bytes.HasPrefix(data, zipMagic)
}

// ExtractArchive returns the statement members of a zip archive in archive
// order. Directories, other extensions and macOS resource fork entries are
// skipped. The combined uncompressed size may not exceed limit. An archive
// without statement members is an error.
func ExtractArchive(name string, data []byte, limit int64) ([]Input, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &parsererror.ArchiveError{Path: name, Msg: "unreadable zip archive", Err: err}
	}

	var (
		members []Input
		total   int64
	)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !fileutils.HasExtension(f.Name, MemberExtensions) {
			continue
		}
		if strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(path.Base(f.Name), "._") {
			continue
		}

		content, err := readMember(f, limit-total)
		if err != nil {
			return nil, &parsererror.ArchiveError{Path: name, Msg: fmt.Sprintf("member %s", f.Name), Err: err}
		}
		total += int64(len(content))
		members = append(members, Input{Name: f.Name, Data: content})
	}

	if len(members) == 0 {
		return nil, &parsererror.ArchiveError{Path: name, Msg: "no .mt940 or .sta members"}
	}
	return members, nil
}

func readMember(f *zip.File, remaining int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, remaining+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > remaining {
		return nil, fmt.Errorf("uncompressed content exceeds the size limit")
	}
	return content, nil
}
