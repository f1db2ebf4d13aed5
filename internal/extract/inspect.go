package extract

import (
	"bytes"
	"net/http"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfcpuInit sync.Once

// Inspect is the pre-flight check run before any provider call. It sniffs the
// content type, parses PDFs to count pages, and returns the effective MIME type.
// Unreadable documents fail with KindInvalidDocument.
func Inspect(doc Document, maxPages int) (string, error) {
	if len(doc.Content) == 0 {
		return "", Errorf(KindInvalidDocument, "%s: empty document", doc.Filename)
	}
	sniffed := http.DetectContentType(doc.Content)
	mime := doc.MIMEHint
	if mime == "" || mime == "application/octet-stream" {
		mime = sniffed
	}

	switch {
	case mime == "application/pdf":
		if sniffed != "application/pdf" {
			return "", Errorf(KindInvalidDocument, "%s: not a PDF (detected %s)", doc.Filename, sniffed)
		}
		pages, err := pdfPageCount(doc.Content)
		if err != nil {
			return "", Errorf(KindInvalidDocument, "%s: unreadable PDF: %v", doc.Filename, err)
		}
		if pages == 0 {
			return "", Errorf(KindInvalidDocument, "%s: PDF has no pages", doc.Filename)
		}
		if maxPages > 0 && pages > maxPages {
			return "", Errorf(KindInvalidDocument, "%s: %d pages exceeds limit of %d", doc.Filename, pages, maxPages)
		}
	case strings.HasPrefix(mime, "image/"):
		if !strings.HasPrefix(sniffed, "image/") {
			return "", Errorf(KindInvalidDocument, "%s: not an image (detected %s)", doc.Filename, sniffed)
		}
		mime = sniffed
	default:
		return "", Errorf(KindInvalidDocument, "%s: unsupported content type %s", doc.Filename, mime)
	}
	return mime, nil
}

func pdfPageCount(content []byte) (int, error) {
	pdfcpuInit.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(content), conf)
}
