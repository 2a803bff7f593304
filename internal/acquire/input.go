package acquire

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/joseph-ayodele/docintel/internal/common"
)

// Document is the only input the acquisition core accepts.
type Document struct {
	Name string
	Data []byte
}

// Adapt normalizes the representations accepted at the system boundary
// ([]byte, string, io.Reader, anything with Bytes() []byte) into a Document.
// A nil or empty source yields an empty Document; Acquire reports it as an
// empty upload.
func Adapt(name string, src any) (Document, error) {
	doc := Document{Name: name}
	switch v := src.(type) {
	case nil:
	case []byte:
		doc.Data = v
	case string:
		doc.Data = []byte(v)
	case interface{ Bytes() []byte }:
		if !isNilPointer(v) {
			doc.Data = v.Bytes()
		}
	case io.Reader:
		if isNilPointer(v) {
			break
		}
		data, err := io.ReadAll(v)
		if err != nil {
			return doc, fmt.Errorf("adapt %s: read: %w", name, err)
		}
		doc.Data = data
	default:
		return doc, common.NewAppError(common.CodeInputInvalid,
			fmt.Sprintf("unsupported input type %T for %s", src, name), common.ErrInvalidInput)
	}
	if doc.Data == nil {
		doc.Data = []byte{}
	}
	return doc, nil
}

// isNilPointer catches typed nils such as (*bytes.Buffer)(nil), which would
// otherwise panic on the first method call.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// FromFile loads a document from disk, named by its base name.
func FromFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Adapt(filepath.Base(path), &buf)
}
