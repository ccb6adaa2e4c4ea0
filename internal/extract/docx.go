package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxText returns the body paragraphs of a .docx file in document order, each
// followed by "\n". Paragraphs inside tables and text boxes are skipped.
func DocxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer func(zr *zip.ReadCloser) {
		_ = zr.Close()
	}(zr)

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer func(rc io.ReadCloser) {
			_ = rc.Close()
		}(rc)
		return paragraphs(rc)
	}
	return "", errors.New("docx has no word/document.xml")
}

func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out     strings.Builder
		para    strings.Builder
		pDepth  int
		tblSkip int
		inText  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl", "txbxContent":
				tblSkip++
			case "p":
				pDepth++
				if pDepth == 1 {
					para.Reset()
				}
			case "t":
				inText = true
			case "tab":
				if pDepth == 1 && tblSkip == 0 {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if pDepth == 1 && tblSkip == 0 {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl", "txbxContent":
				tblSkip--
			case "p":
				if pDepth == 1 && tblSkip == 0 {
					out.WriteString(para.String())
					out.WriteByte('\n')
				}
				pDepth--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && pDepth == 1 && tblSkip == 0 {
				para.Write(t)
			}
		}
	}
	return out.String(), nil
}
