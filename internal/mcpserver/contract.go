package mcpserver

// PostFormatContract describes how restdown derives post metadata from a
// markdown document. It is served to MCP clients so they can interpret the
// fields returned by the query tools and author compatible documents.
const PostFormatContract = `# restdown Post Format

Every ` + "`" + `.md` + "`" + ` file under the corpus root becomes one post.

## Structure

` + "```" + `markdown
---
title: Human-readable title      # OPTIONAL, defaults to the file name
date: 2025-01-15                 # OPTIONAL, alias of createdAt
updatedAt: 2025-02-01 10:00      # OPTIONAL, date string or epoch seconds
categories: [go, tooling]        # OPTIONAL, merged with the directory category
tags: [intro]                    # OPTIONAL, replaces the default (empty) tag set
slug: custom-slug                # OPTIONAL, defaults to a hash of the relative path
author: Jane                     # any other key is kept under "extras"
---

Body text in standard Markdown (GFM tables, task lists, footnotes).
` + "```" + `

## Rules

1. **Front matter** starts on the first line with ` + "`" + `---` + "`" + ` and ends at the next
   line starting with ` + "`" + `---` + "`" + `. Without it the whole file is body.
2. **Category** is the directory path relative to the root (` + "`" + `dev/go/post.md` + "`" + ` is in
   ` + "`" + `dev/go` + "`" + `); front-matter categories are added to it, never replace it.
3. **File names** of the form ` + "`" + `YYYY-MM-DD-rest.md` + "`" + ` set createdAt to that date and
   the title to ` + "`" + `rest` + "`" + `.
4. **Timestamps** missing after front matter and file name come from git history:
   first commit for createdAt, last commit for updatedAt. Without history they are null.
5. **Dates** are epoch seconds in responses; unparseable values are skipped.

## Images

- Relative image paths resolve against the document's own directory:
  ` + "`" + `![alt](./img/photo.png)` + "`" + ` next to ` + "`" + `post.md` + "`" + `.
- Local images are inlined as base64 data URIs; images whose file is missing are removed.
- ` + "`" + `http:` + "`" + `, ` + "`" + `https:` + "`" + `, ` + "`" + `data:` + "`" + `, ` + "`" + `blob:` + "`" + ` and ` + "`" + `//` + "`" + ` sources are left as they are.

## Example

` + "```" + `markdown
---
tags:
  - intro
  - greeting
---

# Hello

![Whiteboard](./img/board.jpg)
` + "```" + `

Saved as ` + "`" + `blog/2023-01-15-hello-world.md` + "`" + `, this is the post "hello-world" in
category ` + "`" + `blog` + "`" + `, created 2023-01-15, tagged intro and greeting.
`
