// Package extract turns uploaded student files into text or model attachments.
package extract

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/llm"
)

// MaxFileSize is the largest upload accepted for import.
const MaxFileSize = 20 << 20

const (
	mimePDF  = "application/pdf"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// Kind is the family an uploaded file belongs to.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDOCX  Kind = "docx"
	KindDOC   Kind = "doc"
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Document is a prepared upload: either extracted text or a file to attach.
type Document struct {
	Filename   string
	MIMEType   string
	Kind       Kind
	Text       string
	Attachment *llm.Attachment
}

// Detect classifies a file by MIME type, falling back to the filename
// extension when the browser sent nothing useful. Unsupported files return
// apperrors.ErrUnsupportedFile.
func Detect(filename, mimeType string) (Kind, string, error) {
	mt := normalizeMIME(mimeType)
	if mt == "" || mt == "application/octet-stream" {
		mt = byExtension(filename)
		if mt == "" {
			mt = normalizeMIME(mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))))
		}
	}

	switch {
	case mt == mimePDF:
		return KindPDF, mt, nil
	case mt == mimeDOCX:
		return KindDOCX, mt, nil
	case mt == mimeDOC:
		return KindDOC, mt, nil
	case mt == mimeText:
		return KindText, mt, nil
	case strings.HasPrefix(mt, "image/"):
		return KindImage, mt, nil
	default:
		return "", mt, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFile, displayType(mt, filename))
	}
}

// Prepare validates an upload and extracts its text locally where possible.
// Images and legacy .doc files are returned as attachments. A PDF with no
// text layer (a scan) is attached as well.
func Prepare(filename, mimeType string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrInvalidInput)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d MB", apperrors.ErrInvalidInput, MaxFileSize>>20)
	}

	kind, mt, err := Detect(filename, mimeType)
	if err != nil {
		return nil, err
	}

	doc := &Document{Filename: filename, MIMEType: mt, Kind: kind}
	switch kind {
	case KindText:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: text file is not UTF-8", apperrors.ErrUnsupportedFile)
		}
		doc.Text = string(data)
	case KindPDF:
		text, err := pdfText(data)
		if err != nil {
			return nil, err
		}
		doc.Text = text
	case KindDOCX:
		text, err := docxText(data)
		if err != nil {
			return nil, err
		}
		doc.Text = text
	}

	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" {
		doc.Attachment = &llm.Attachment{MIMEType: mt, Data: data}
	}
	return doc, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable pdf: %v", apperrors.ErrUnsupportedFile, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable docx: %v", apperrors.ErrUnsupportedFile, err)
	}
	defer r.Close()

	return xmlToText(r.Editable().GetContent()), nil
}

// xmlToText flattens WordprocessingML body XML into plain text.
func xmlToText(content string) string {
	content = docxParagraphEnd.ReplaceAllStringFunc(content, func(m string) string {
		if m == "<w:tab/>" {
			return "\t"
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	content = htmlUnescaper.Replace(content)
	return blankLines.ReplaceAllString(content, "\n\n")
}

var htmlUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func normalizeMIME(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}

// byExtension maps the extensions staff actually upload; host mime tables vary.
func byExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".doc":
		return mimeDOC
	case ".txt", ".md":
		return mimeText
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

func displayType(mt, filename string) string {
	if mt != "" {
		return mt
	}
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return "unknown type"
}
