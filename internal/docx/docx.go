// Package docx pulls plain text out of uploaded requirement documents.
// Word files are unpacked and their paragraph text collected; anything
// else is treated as plain text as-is.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// ExtractText returns the readable text of an uploaded file. Files named
// *.docx are unpacked; everything else is returned verbatim as UTF-8.
func ExtractText(name string, data []byte) (string, error) {
	if strings.HasSuffix(strings.ToLower(name), ".docx") {
		text, err := extractDocx(data)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", types.ErrFileRead, name, err)
		}
		return text, nil
	}
	return string(data), nil
}

// extractDocx reads word/document.xml from the archive and collects the
// text runs, one line per paragraph.
func extractDocx(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	var doc *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("no word/document.xml in archive")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	return collectText(rc)
}

// collectText walks the WordprocessingML stream, gathering the contents
// of w:t elements and breaking lines at paragraph boundaries.
func collectText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
