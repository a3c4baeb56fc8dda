package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/errors"
)

type fakeOCR struct {
	text  string
	paths []string
}

func (f *fakeOCR) Recognize(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	f.paths = append(f.paths, path)
	progress.report(Progress{Stage: StageOCR, Percent: 100})
	return f.text, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestSource_Validate(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		code errors.ErrorCode
	}{
		{"text", TextSource("hello"), ""},
		{"empty text is allowed", TextSource(""), ""},
		{"file", FileSource("/tmp/x.txt"), ""},
		{"file without path", Source{Kind: KindFile}, errors.ErrInvalidRequest},
		{"missing kind", Source{}, errors.ErrInvalidRequest},
		{"unknown kind", Source{Kind: "fax"}, errors.ErrInvalidRequest},
		{"onedrive", Source{Kind: KindOneDrive}, errors.ErrUnsupportedSource},
		{"gdrive", Source{Kind: KindGDrive}, errors.ErrUnsupportedSource},
		{"trello", Source{Kind: KindTrello}, errors.ErrUnsupportedSource},
		{"notion", Source{Kind: KindNotion}, errors.ErrUnsupportedSource},
		{"onenote", Source{Kind: KindOneNote}, errors.ErrUnsupportedSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.Validate()
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tt.code), "got %v, want %s", err, tt.code)
		})
	}
}

func TestSourceFor(t *testing.T) {
	src, err := SourceFor("texto", "/tmp/a.pdf", "Relatório")
	require.NoError(t, err)
	require.Equal(t, Source{Kind: KindFile, Path: "/tmp/a.pdf", Name: "Relatório"}, src)

	src, err = SourceFor("texto", "  ", "")
	require.NoError(t, err)
	require.Equal(t, KindText, src.Kind)

	_, err = SourceFor("", "", "x")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestSource_DisplayName(t *testing.T) {
	require.Equal(t, "notes.pdf", FileSource("/home/x/notes.pdf").DisplayName())
	require.Equal(t, "Texto", TextSource("x").DisplayName())
	require.Equal(t, "Upload", Source{Kind: KindFile, Path: "/a/b.txt", Name: "Upload"}.DisplayName())
	require.Equal(t, "Notion", Source{Kind: KindNotion, Provider: "Notion"}.DisplayName())
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.docx":    FormatDocx,
		"A.DOCX":    FormatDocx,
		"scan.pdf":  FormatPDF,
		"photo.JPG": FormatImage,
		"x.jpeg":    FormatImage,
		"x.png":     FormatImage,
		"x.bmp":     FormatImage,
		"x.gif":     FormatImage,
		"notes.md":  FormatText,
		"README":    FormatText,
	}
	for name, want := range tests {
		if got := DetectFormat(name); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestValidatePath_TraversalRejected(t *testing.T) {
	for _, path := range []string{"../x.txt", "/tmp/../etc/passwd", "a/../../b.txt"} {
		_, err := ValidatePath(path, nil)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ValidatePath(%q) = %v, want ErrInvalidRequest", path, err)
		}
	}
}

func TestValidatePath_Trusted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "x")

	got, err := ValidatePath(path, nil)
	require.NoError(t, err)
	require.Equal(t, path, got)

	_, err = ValidatePath(filepath.Join(dir, "missing.txt"), nil)
	require.True(t, errors.Is(err, errors.ErrFileNotFound), "got %v", err)

	_, err = ValidatePath(dir, nil)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestValidatePath_Policy(t *testing.T) {
	allowed := t.TempDir()
	other := t.TempDir()
	policy := &PathPolicy{AllowedDirs: []string{allowed}}

	inAllowed := writeFile(t, allowed, "a.txt", "x")
	_, err := ValidatePath(inAllowed, policy)
	require.NoError(t, err)

	outside := writeFile(t, other, "b.txt", "x")
	_, err = ValidatePath(outside, policy)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "outside: got %v", err)

	require.NoError(t, os.Mkdir(filepath.Join(allowed, "sub"), 0o700))
	nested := writeFile(t, filepath.Join(allowed, "sub"), "c.txt", "x")
	_, err = ValidatePath(nested, policy)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "nested: got %v", err)

	_, err = ValidatePath(outside, &PathPolicy{AllowAnyDir: true})
	require.NoError(t, err)
}

func TestValidatePath_SymlinkRejectedUnderPolicy(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := writeFile(t, dir, "target.txt", "x")
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	_, err := ValidatePath(link, &PathPolicy{AllowedDirs: []string{dir}})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)

	// Trusted callers may follow symlinks.
	_, err = ValidatePath(link, nil)
	require.NoError(t, err)
}

func TestExtract_Text(t *testing.T) {
	e := New(Config{})
	got, err := e.Extract(context.Background(), TextSource("olá\nmundo"), nil)
	require.NoError(t, err)
	require.Equal(t, "olá\nmundo", got)
}

func TestExtract_CloudSourceUnsupported(t *testing.T) {
	e := New(Config{})
	_, err := e.Extract(context.Background(), Source{Kind: KindGDrive, Provider: "Google Drive"}, nil)
	require.True(t, errors.Is(err, errors.ErrUnsupportedSource), "got %v", err)
}

func TestExtract_PlainFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.md", "# Título\ncorpo \xff fim")

	got, err := New(Config{}).Extract(context.Background(), FileSource(path), nil)
	require.NoError(t, err)
	require.Equal(t, "# Título\ncorpo \uFFFD fim", got)
}

func TestExtract_FileTooLarge(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big.txt", "0123456789")

	_, err := New(Config{MaxFileBytes: 5}).Extract(context.Background(), FileSource(path), nil)
	require.True(t, errors.Is(err, errors.ErrFileTooLarge), "got %v", err)
}

func TestExtractUpload(t *testing.T) {
	e := New(Config{})

	got, err := e.ExtractUpload(context.Background(), "../lista.txt", strings.NewReader("- pão\n- leite"), nil)
	require.NoError(t, err)
	require.Equal(t, "- pão\n- leite", got)

	_, err = e.ExtractUpload(context.Background(), "  ", strings.NewReader("x"), nil)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestExtractUpload_TooLarge(t *testing.T) {
	_, err := New(Config{MaxFileBytes: 5}).ExtractUpload(context.Background(), "big.txt", strings.NewReader("0123456789"), nil)
	require.True(t, errors.Is(err, errors.ErrFileTooLarge), "got %v", err)
}

func TestExtract_Docx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	writeDocx(t, path, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Relatório</w:t></w:r><w:r><w:t xml:space="preserve"> de Reunião</w:t></w:r></w:p>
    <w:p/>
    <w:p><w:r><w:t>Linha um</w:t><w:br/><w:t>Linha dois</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := New(Config{}).Extract(context.Background(), FileSource(path), nil)
	require.NoError(t, err)
	require.Equal(t, "Relatório de Reunião\n\n\n\nLinha um\nLinha dois", got)
}

func TestExtract_DocxMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())

	_, err = New(Config{}).Extract(context.Background(), FileSource(path), nil)
	require.True(t, errors.Is(err, errors.ErrExtractionFailed), "got %v", err)
}

func TestExtract_InvalidPDF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.pdf", "not a pdf")

	_, err := New(Config{}).Extract(context.Background(), FileSource(path), nil)
	require.True(t, errors.Is(err, errors.ErrExtractionFailed), "got %v", err)
}

func TestExtract_ImageUsesOCR(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scan.png", "fake image bytes")
	ocr := &fakeOCR{text: "texto reconhecido"}

	var events []Progress
	got, err := New(Config{OCR: ocr}).Extract(context.Background(), FileSource(path), func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)
	require.Equal(t, "texto reconhecido", got)
	require.Equal(t, []string{path}, ocr.paths)
	require.NotEmpty(t, events)
	require.Equal(t, 100, events[len(events)-1].Percent)
}

func TestExtract_ImageWithoutOCR(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scan.png", "fake")

	_, err := New(Config{}).Extract(context.Background(), FileSource(path), nil)
	require.True(t, errors.Is(err, errors.ErrExtractionFailed), "got %v", err)
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{"/data/inbox"}

	trusted := FromConfig(cfg, false, nil)
	require.Nil(t, trusted.Policy)
	require.Equal(t, int64(cfg.FileMaxBytes), trusted.MaxFileBytes)

	restricted := FromConfig(cfg, true, nil)
	require.NotNil(t, restricted.Policy)
	require.Equal(t, []string{"/data/inbox"}, restricted.Policy.AllowedDirs)

	tess, ok := restricted.OCR.(*Tesseract)
	require.True(t, ok)
	require.Equal(t, "tesseract", tess.Command)
	require.Equal(t, "por+eng", tess.Languages)
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte(`BT
/F1 12 Tf
72 720 Td
(Hello) Tj
( World) Tj
0 -14 TD
[(Sec) -120 (ond)] TJ
T*
(Caf\351 \(x\)) Tj
(next line) '
ET`)

	got := textFromContentStream(stream)
	require.Equal(t, "Hello World\nSecond\nCaf\xe9 (x)\nnext line", got)
}

func TestDecodePDFString(t *testing.T) {
	tests := map[string]string{
		`plain`:      "plain",
		`a\nb`:       "a\nb",
		`\(paren\)`:  "(paren)",
		`back\\s`:    `back\s`,
		`\101\102`:   "AB",
		`tab\there`:  "tab\there",
		`odd\q`:      "oddq",
		`trailing\\`: `trailing\`,
	}
	for in, want := range tests {
		if got := decodePDFString([]byte(in)); got != want {
			t.Errorf("decodePDFString(%q) = %q, want %q", in, got, want)
		}
	}
}
