// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/loaddeps/loaddeps/pkg/types"

	"golang.org/x/net/html/charset"
)

const (
	// GroupElement is the local name of the element that groups references.
	GroupElement = "ItemGroup"
	// ReferenceElement is the local name of a project-reference declaration.
	ReferenceElement = "ProjectReference"
	// IncludeAttribute names the attribute holding the referenced manifest path.
	IncludeAttribute = "Include"

	// DefaultMaxFileSize bounds how much of a manifest is read (8 MiB).
	DefaultMaxFileSize int64 = 8 << 20
)

// ErrParse is the sentinel error wrapped by ParseError.
var ErrParse = errors.New("manifest parse error")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type (
	// ParseError reports a manifest that could not be read or is not a
	// well-formed document. It is fatal for closure resolution.
	ParseError struct {
		Path types.ManifestPath
		// Line is the 1-based line of a syntax error, or 0 when unknown.
		Line  int
		Cause error
	}

	// Reference is a single project-reference declaration.
	Reference struct {
		// Include is the raw attribute value, relative to the manifest directory
		// or absolute.
		Include string
		// Line is the 1-based line of the reference element.
		Line int
	}

	// Document is the parsed subset of a manifest this tool cares about.
	Document struct {
		Path       types.ManifestPath
		Root       string
		References []Reference
	}

	// Reader loads manifests from disk.
	Reader struct {
		// MaxFileSize overrides DefaultMaxFileSize when positive.
		MaxFileSize int64
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse manifest %s (line %d): %v", e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("parse manifest %s: %v", e.Path, e.Cause)
}

// Unwrap returns both ErrParse and the underlying cause so callers can use
// errors.Is for either.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Cause}
}

// NewReader creates a Reader with the given size limit. A non-positive limit
// selects DefaultMaxFileSize.
func NewReader(maxFileSize int64) *Reader {
	return &Reader{MaxFileSize: maxFileSize}
}

// Read opens, parses and closes the manifest at path.
func (r *Reader) Read(path types.ManifestPath) (*Document, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	defer f.Close()

	limit := r.limit()
	info, err := f.Stat()
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	if info.IsDir() {
		return nil, &ParseError{Path: path, Cause: errors.New("is a directory")}
	}
	if info.Size() > limit {
		return nil, &ParseError{Path: path, Cause: fmt.Errorf("file size %d bytes exceeds maximum %d bytes", info.Size(), limit)}
	}

	return Parse(path, io.LimitReader(f, limit))
}

func (r *Reader) limit() int64 {
	if r == nil || r.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return r.MaxFileSize
}

// Parse decodes a manifest from src. path is only used for error reporting
// and is recorded on the returned Document.
func Parse(path types.ManifestPath, src io.Reader) (*Document, error) {
	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	dec := xml.NewDecoder(br)
	dec.CharsetReader = charset.NewReaderLabel

	doc := &Document{Path: path}
	depth := 0
	inGroup := false
	rootSeen := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, syntaxError(path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if rootSeen {
					line, _ := dec.InputPos()
					return nil, &ParseError{Path: path, Line: line, Cause: errors.New("multiple root elements")}
				}
				rootSeen = true
				doc.Root = t.Name.Local
			case 2:
				inGroup = t.Name.Local == GroupElement
			case 3:
				if inGroup && t.Name.Local == ReferenceElement {
					include, ok := includeOf(t)
					if !ok {
						continue
					}
					line, _ := dec.InputPos()
					doc.References = append(doc.References, Reference{Include: include, Line: line})
				}
			}
		case xml.EndElement:
			if depth == 2 {
				inGroup = false
			}
			depth--
		}
	}

	if !rootSeen {
		return nil, &ParseError{Path: path, Cause: errors.New("document has no root element")}
	}
	return doc, nil
}

// includeOf returns the unqualified Include attribute of a reference element.
// Missing and blank values report ok=false.
func includeOf(el xml.StartElement) (string, bool) {
	for _, attr := range el.Attr {
		if attr.Name.Space == "" && attr.Name.Local == IncludeAttribute {
			if strings.TrimSpace(attr.Value) == "" {
				return "", false
			}
			return attr.Value, true
		}
	}
	return "", false
}

func syntaxError(path types.ManifestPath, err error) error {
	var synErr *xml.SyntaxError
	if errors.As(err, &synErr) {
		return &ParseError{Path: path, Line: synErr.Line, Cause: errors.New(synErr.Msg)}
	}
	return &ParseError{Path: path, Cause: err}
}

// Includes returns the raw Include values in declaration order.
func (d *Document) Includes() []string {
	out := make([]string, 0, len(d.References))
	for _, ref := range d.References {
		out = append(out, ref.Include)
	}
	return out
}
