package parser

import (
	"path"
	"strings"
	"time"

	"github.com/nemorize/restdown/internal/checksum"
)

// FromFilename derives the defaults encoded in a document's relative path:
// the slug (hash of rel), the category (directory segments joined with "/"),
// and the title (file name without extension). A "YYYY-MM-DD-rest" file name
// additionally yields CreatedAt and the title "rest".
func FromFilename(rel string) *Result {
	dir, name := path.Split(rel)
	category := strings.Trim(dir, "/")
	title := strings.TrimSuffix(name, path.Ext(name))

	res := &Result{
		Slug:       checksum.Key(rel),
		Title:      title,
		Categories: []string{category},
		Tags:       []string{},
		Extras:     map[string]any{},
	}

	if parts := strings.SplitN(title, "-", 4); len(parts) == 4 && len(parts[0]) == 4 {
		t, err := time.ParseInLocation("2006-1-2", parts[0]+"-"+parts[1]+"-"+parts[2], time.UTC)
		if err == nil {
			ts := t.Unix()
			res.CreatedAt = &ts
			res.Title = parts[3]
		}
	}
	return res
}
