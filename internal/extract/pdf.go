package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// readPDF parses and validates a PDF.
func readPDF(rs io.ReadSeeker) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return pdfCtx, nil
}

// pdfText returns the text layer of every page, pages separated by a blank line.
// Scanned PDFs have no text layer and yield "".
func pdfText(pdfCtx *model.Context) string {
	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		if text := textFromContentStream(data); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n")
}

// ocrPDF recognises the page images of a PDF without a text layer.
func ocrPDF(ctx context.Context, pdfCtx *model.Context, ocr OCR, progress ProgressFunc) (string, error) {
	tmpDir, err := os.MkdirTemp("", "brain-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		progress.report(Progress{
			Stage:   StageOCR,
			Percent: (pageNr - 1) * 100 / pdfCtx.PageCount,
			Message: fmt.Sprintf("page %d of %d", pageNr, pdfCtx.PageCount),
		})

		images, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
		if err != nil {
			return "", fmt.Errorf("page %d: extract images: %w", pageNr, err)
		}
		objNrs := make([]int, 0, len(images))
		for objNr := range images {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)
		for _, objNr := range objNrs {
			img := images[objNr]
			imgPath := filepath.Join(tmpDir, fmt.Sprintf("p%d-%d.%s", pageNr, objNr, imageExt(img.FileType)))
			if err := writeImage(imgPath, img); err != nil {
				return "", fmt.Errorf("page %d: %w", pageNr, err)
			}
			text, err := ocr.Recognize(ctx, imgPath, nil)
			if err != nil {
				return "", fmt.Errorf("page %d: %w", pageNr, err)
			}
			if text = strings.TrimSpace(text); text != "" {
				pages = append(pages, text)
			}
		}
	}
	progress.report(Progress{Stage: StageOCR, Percent: 100, Message: "done"})
	return strings.Join(pages, "\n\n"), nil
}

func writeImage(path string, img model.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func imageExt(fileType string) string {
	if fileType == "" {
		return "png"
	}
	return strings.ToLower(fileType)
}

// pdfStringRe matches PDF string literals: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream pulls shown strings out of a page content stream.
// Tj and TJ append to the current line; T*, ' and TD start a new line.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		case bytes.HasSuffix(line, []byte("Td")):
			sb.WriteByte(' ')
		}
	}

	return cleanLines(sb.String())
}

// decodePDFString resolves the escape sequences of a PDF literal string.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] < '0' || raw[i] > '7' {
				sb.WriteByte(raw[i])
				continue
			}
			val := int(raw[i] - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// cleanLines collapses runs of spaces within each line and drops empty lines.
func cleanLines(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
