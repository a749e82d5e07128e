package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/ir"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{"rowClass": rowClass}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// generatedLayout is the header timestamp format.
const generatedLayout = "2006-01-02 15:04:05 MST"

type htmlReporter struct {
	*collector
}

func (r *htmlReporter) Generate(path string) error {
	data, err := RenderHTML(r.document())
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// RenderHTML renders a document as a self-contained HTML page.
func RenderHTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Doc       Document
		Started   string
		Generated string
		Version   string
	}{
		Doc:       doc,
		Started:   formatStamp(doc.StartedAt),
		Generated: formatStamp(doc.GeneratedAt),
		Version:   ir.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(generatedLayout)
}

func rowClass(r Row) string {
	switch r.entry.Kind {
	case align.Match:
		if r.Identical {
			return "match"
		}
		return "differs"
	default:
		return "missing"
	}
}

// writeFile writes data atomically next to path, creating parent
// directories as needed.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
