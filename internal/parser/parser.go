// Package parser extracts post metadata from markdown documents: the YAML
// front matter block and the defaults encoded in the document's path.
package parser

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var bom = []byte("\xef\xbb\xbf")

// Result holds the metadata of one document after front matter and
// filename defaults have been merged. CreatedAt and UpdatedAt stay nil when
// neither source provided them.
type Result struct {
	Slug       string
	Title      string
	CreatedAt  *int64
	UpdatedAt  *int64
	Categories []string
	Tags       []string
	Extras     map[string]any
	Body       []byte
}

// Warning reports a front matter field that could not be used. The field is
// skipped; the rest of the document is still indexed.
type Warning struct {
	Field string
	Err   error
}

func (w Warning) Error() string {
	return fmt.Sprintf("front matter %s: %v", w.Field, w.Err)
}

// Parse extracts metadata from data, the content of the document at rel
// (slash-separated, relative to the corpus root).
func Parse(rel string, data []byte) (*Result, []Warning) {
	res := FromFilename(rel)

	block, body, found := SplitFrontMatter(data)
	res.Body = body
	if !found {
		return res, nil
	}

	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return res, []Warning{{Field: "frontmatter", Err: err}}
	}
	return res, res.apply(fm)
}

// SplitFrontMatter separates a leading front matter block from the body. The
// block opens with a first line starting with "---" and closes at the next
// line starting with "---". Without an opening or closing line the whole
// input is body.
func SplitFrontMatter(data []byte) (block, body []byte, found bool) {
	src := bytes.TrimPrefix(data, bom)
	if !bytes.HasPrefix(src, []byte(delim)) {
		return nil, data, false
	}
	nl := bytes.IndexByte(src, '\n')
	if nl < 0 {
		return nil, data, false
	}
	rest := src[nl+1:]

	for offset := 0; offset < len(rest); {
		line := rest[offset:]
		next := len(rest)
		if end := bytes.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
			next = offset + end + 1
		}
		if bytes.HasPrefix(line, []byte(delim)) {
			return rest[:offset], rest[next:], true
		}
		offset = next
	}
	return nil, data, false
}

// apply merges decoded front matter into r following the key rules:
// date aliases createdAt, categories are unioned with the path category,
// tags replace the default set, and unknown keys land in Extras.
func (r *Result) apply(fm map[string]any) []Warning {
	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		warns   []Warning
		tags    []string
		tagsSet bool
	)
	_, hasCreatedAt := fm["createdAt"]

	for _, key := range keys {
		value := fm[key]
		switch key {
		case "date", "createdAt":
			if key == "date" && hasCreatedAt {
				continue
			}
			ts, err := toEpoch(value)
			if err != nil {
				warns = append(warns, Warning{Field: key, Err: err})
				continue
			}
			r.CreatedAt = &ts
		case "updatedAt":
			ts, err := toEpoch(value)
			if err != nil {
				warns = append(warns, Warning{Field: key, Err: err})
				continue
			}
			r.UpdatedAt = &ts
		case "category", "categories":
			r.Categories = union(r.Categories, toStringSet(value))
		case "tag", "tags":
			tags = union(tags, toStringSet(value))
			tagsSet = true
		case "slug", "title":
			s, ok := scalarString(value)
			if !ok || s == "" {
				warns = append(warns, Warning{Field: key, Err: fmt.Errorf("expected a non-empty scalar, got %T", value)})
				continue
			}
			if key == "slug" {
				r.Slug = s
			} else {
				r.Title = s
			}
		default:
			r.Extras[key] = normalizeValue(value)
		}
	}

	if tagsSet {
		if tags == nil {
			tags = []string{}
		}
		r.Tags = tags
	}
	return warns
}
