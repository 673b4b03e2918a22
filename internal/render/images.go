package render

import (
	"encoding/base64"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/nemorize/restdown/internal/storage"
)

var docDirKey = parser.NewContextKey()

// absolutePrefixes mark image sources that are left untouched.
var absolutePrefixes = []string{"http:", "https:", "data:", "blob:", "//"}

// imageInliner rewrites local image references into base64 data URIs and
// removes images whose file cannot be read.
type imageInliner struct {
	corpus storage.Provider
}

func (t *imageInliner) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	dir, _ := pc.Get(docDirKey).(string)
	if dir == "" {
		dir = t.corpus.Root()
	}

	var images []*ast.Image
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			images = append(images, img)
		}
		return ast.WalkContinue, nil
	})

	for _, img := range images {
		dest := string(img.Destination)
		if isAbsoluteURL(dest) {
			continue
		}
		uri, ok := t.dataURI(dir, dest)
		if !ok {
			img.Parent().RemoveChild(img.Parent(), img)
			continue
		}
		img.Destination = []byte(uri)
	}
}

func (t *imageInliner) dataURI(dir, ref string) (string, bool) {
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	path, err := t.corpus.Resolve(dir, ref)
	if err != nil {
		return "", false
	}
	data, err := t.corpus.Read(path)
	if err != nil {
		return "", false
	}
	subtype := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return "data:image/" + subtype + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

func isAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	for _, p := range absolutePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
