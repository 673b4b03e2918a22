// Package render converts corpus documents to HTML with goldmark, inlining
// local images as data URIs, and memoizes the output in an on-disk cache.
package render

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	fm "github.com/nemorize/restdown/internal/parser"
	"github.com/nemorize/restdown/internal/storage"
)

// HTMLRenderer turns the document at an absolute corpus path into HTML.
type HTMLRenderer interface {
	Render(path string) (string, error)
}

// Renderer renders documents straight from the corpus without caching.
type Renderer struct {
	corpus storage.Provider
	engine goldmark.Markdown
}

var _ HTMLRenderer = (*Renderer)(nil)

// New builds a Renderer with GFM extensions and raw HTML passthrough.
func New(corpus storage.Provider) *Renderer {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&imageInliner{corpus: corpus}, 100)),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{corpus: corpus, engine: engine}
}

// Render reads path, drops its front matter and converts the body. Image
// references are resolved against the document's own directory.
func (r *Renderer) Render(path string) (string, error) {
	data, err := r.corpus.Read(path)
	if err != nil {
		return "", err
	}
	out, err := r.Convert(filepath.Dir(path), data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", path, err)
	}
	return string(out), nil
}

// Convert renders a raw document whose relative image references resolve
// against dir.
func (r *Renderer) Convert(dir string, document []byte) ([]byte, error) {
	_, body, _ := fm.SplitFrontMatter(document)

	pc := parser.NewContext()
	pc.Set(docDirKey, dir)

	var buf bytes.Buffer
	if err := r.engine.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}
	return buf.Bytes(), nil
}
