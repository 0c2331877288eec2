package ui

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/macroloom/macroloom/internal/diffutil"
)

const diffPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Script Import Preview</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; margin: 15px; background-color: #f8f9fa; color: #212529; }
h1, h2 { border-bottom: 1px solid #dee2e6; padding-bottom: 8px; color: #0d6efd; }
pre.summary { background-color: #e9ecef; border: 1px solid #ced4da; padding: 10px 15px; border-radius: 4px; font-family: Menlo, Consolas, monospace; }
pre.diff-output { font-family: Menlo, Consolas, monospace; font-size: 0.9em; border: 1px solid #dee2e6; background-color: #fff; padding: 10px; border-radius: 4px; overflow-x: auto; }
.line { display: flex; min-height: 1.4em; }
.line-num { display: inline-block; width: 35px; padding-right: 10px; text-align: right; color: #6c757d; user-select: none; flex-shrink: 0; }
.line-op { display: inline-block; width: 15px; text-align: center; user-select: none; font-weight: bold; flex-shrink: 0; margin-right: 10px; }
.line-content { white-space: pre-wrap; word-break: break-all; flex-grow: 1; }
.line.diff-insert { background-color: #e6ffed; }
.line.diff-insert .line-op, .line.diff-insert .line-content { color: #198754; }
.line.diff-delete { background-color: #ffeef0; }
.line.diff-delete .line-op, .line.diff-delete .line-content { color: #dc3545; }
.line.diff-equal .line-content { color: #495057; }
</style>
</head>
<body>
<h1>Script Import Preview</h1>
<h2>Summary</h2>
<pre class="summary">%s</pre>
<h2>Changes</h2>
%s
</body>
</html>
`

func renderDiffHTML(lines []diffutil.DiffLine) string {
	var b strings.Builder
	b.WriteString(`<pre class="diff-output">`)
	for _, line := range lines {
		class, op := "diff-equal", " "
		switch line.Type {
		case diffmatchpatch.DiffInsert:
			class, op = "diff-insert", "+"
		case diffmatchpatch.DiffDelete:
			class, op = "diff-delete", "-"
		}
		origNum, modNum := "", ""
		if line.OrigLineNum > 0 {
			origNum = fmt.Sprintf("%d", line.OrigLineNum)
		}
		if line.ModLineNum > 0 {
			modNum = fmt.Sprintf("%d", line.ModLineNum)
		}
		content := html.EscapeString(strings.TrimSuffix(line.Text, "\n"))
		if content == "" {
			content = " "
		}
		fmt.Fprintf(&b,
			`<div class="line %s"><span class="line-num">%s</span><span class="line-num">%s</span><span class="line-op">%s</span><span class="line-content">%s</span></div>`,
			class, origNum, modNum, op, content)
	}
	b.WriteString(`</pre>`)
	return b.String()
}

// ShowDiffViewer renders an import comparison as HTML and opens it in
// the default browser. The temp file is removed after a minute.
func ShowDiffViewer(original, modified string) {
	lines, summary := diffutil.Compare(original, modified)
	fullHTML := fmt.Sprintf(diffPageTemplate, html.EscapeString(summary.String()), renderDiffHTML(lines))

	tmpFile, err := os.CreateTemp("", "macroloom-diff-*.html")
	if err != nil {
		log.Error().Err(err).Msg("creating temp file for diff view")
		Notify(LevelWarn, "Diff View Error", fmt.Sprintf("Could not create temporary file: %v", err))
		return
	}
	if _, err := tmpFile.WriteString(fullHTML); err != nil {
		tmpFile.Close()
		log.Error().Err(err).Msg("writing diff view")
		Notify(LevelWarn, "Diff View Error", fmt.Sprintf("Could not write diff file: %v", err))
		return
	}
	if err := tmpFile.Close(); err != nil {
		log.Warn().Err(err).Msg("closing diff file")
	}

	absPath, err := filepath.Abs(tmpFile.Name())
	if err != nil {
		absPath = tmpFile.Name()
	}
	log.Info().Str("path", absPath).Msg("diff view saved")
	if err := OpenFileInDefaultApp(absPath); err != nil {
		log.Error().Err(err).Msg("opening diff view")
		Notify(LevelWarn, "Diff View Error", fmt.Sprintf("Could not open browser. File saved at %s", absPath))
	}

	time.AfterFunc(time.Minute, func() {
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", absPath).Msg("removing temporary diff file")
		}
	})
}
