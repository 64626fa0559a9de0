package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// maxFileBytes caps how much of a file the renderer will load. Anything
// larger is reported as a render failure rather than truncated.
const maxFileBytes = 1 << 20

var (
	ErrTooLarge = errors.New("file too large to render")
	ErrBinary   = errors.New("binary content")
	ErrEncoding = errors.New("invalid utf-8 encoding")
)

// Result is the outcome of a successful render.
type Result struct {
	Content  string
	Lines    int
	Language string
}

// Renderer turns a file path into terminal-ready highlighted text. Failures
// are returned as errors; the caller owns the diagnostic fallback, so a bad
// file can never take the session down.
type Renderer struct {
	theme Theme
}

// New constructs a renderer for the given theme.
func New(theme Theme) *Renderer {
	return &Renderer{theme: theme}
}

// Render loads and highlights the file at path. Markdown files render as
// formatted prose wrapped to width; everything else renders as numbered,
// unwrapped source lines.
func (r *Renderer) Render(path string, width int) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxFileBytes {
		return Result{}, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	if isLikelyBinary(data) {
		return Result{}, fmt.Errorf("%s: %w", path, ErrBinary)
	}
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("%s: %w", path, ErrEncoding)
	}

	if isMarkdown(path) {
		return r.renderMarkdown(data, width)
	}
	return r.renderSource(path, string(data))
}

// renderSource highlights source text with chroma and prefixes every line
// with a number gutter and indent guides. Lines keep the file's own breaks;
// horizontal overflow is the viewport's problem, not the renderer's.
func (r *Renderer) renderSource(path, text string) (Result, error) {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get(r.theme.chromaStyle())
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return Result{}, fmt.Errorf("tokenise %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return Result{}, fmt.Errorf("highlight %s: %w", path, err)
	}

	content, lines := addGutter(buf.String(), text)
	return Result{
		Content:  content,
		Lines:    lines,
		Language: lexer.Config().Name,
	}, nil
}

// renderMarkdown strips frontmatter and renders the remainder with glamour.
func (r *Renderer) renderMarkdown(data []byte, width int) (Result, error) {
	body := stripFrontmatter(data)

	opts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(r.theme.glamourStyle()),
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	} else {
		opts = append(opts, glamour.WithWordWrap(0))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return Result{}, fmt.Errorf("markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(string(body))
	if err != nil {
		return Result{}, fmt.Errorf("render markdown: %w", err)
	}
	return Result{
		Content:  rendered,
		Lines:    strings.Count(rendered, "\n") + 1,
		Language: "Markdown",
	}, nil
}

// stripFrontmatter removes a leading YAML/TOML frontmatter block if one is
// present. Parse errors leave the document as-is; glamour renders the block
// literally then, which is harmless.
func stripFrontmatter(data []byte) []byte {
	var meta map[string]interface{}
	rest, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return data
	}
	return rest
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdx":
		return true
	default:
		return false
	}
}

// isLikelyBinary reports whether data looks like non-text content. A NUL in
// the first 8 KiB is treated as binary.
func isLikelyBinary(data []byte) bool {
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
