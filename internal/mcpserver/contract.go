package mcpserver

// DocFormatContract describes the Markdown document format that LLM
// consumers should follow when saving documents, and that files in the
// import directory use.
const DocFormatContract = `# AgentNote Document Format

Documents are Markdown with an optional YAML frontmatter block.

## Structure

` + "```" + `markdown
---
title: Human-readable title     # used in lists and as the page heading
slug: go-channels               # OPTIONAL – stable identifier; saving the same slug updates the document
category: go                    # OPTIONAL – one category per document
tags: [concurrency, go]         # OPTIONAL – list or comma-separated string
summary: One line overview      # OPTIONAL – derived from the body when absent
---

# Human-readable title

Body text in Markdown.
` + "```" + `

## Rules

1. The ` + "`" + `---` + "`" + ` fences must be the first thing in the file.
2. Through ` + "`" + `save_doc` + "`" + ` the frontmatter is not needed: pass the fields as tool arguments
   and the body as ` + "`" + `content` + "`" + `.
3. In the import directory the slug defaults to the file path without ` + "`" + `.md` + "`" + `,
   with ` + "`" + `/` + "`" + ` replaced by ` + "`" + `-` + "`" + `, and the title to the first heading or the file name.
4. **Tags** are lowercased and de-duplicated when saved.
5. **Summary** defaults to the first 100 characters of the body with Markdown
   punctuation removed, followed by ` + "`" + `...` + "`" + ` when cut.
6. **Encoding** is UTF-8.

## Supported Markdown

The viewer renders headings (` + "`" + `#` + "`" + ` to ` + "`" + `####` + "`" + `), paragraphs, **bold**, *italic*,
~~strikethrough~~, ` + "`" + `inline code` + "`" + `, fenced code blocks with a language, links, images,
block quotes, horizontal rules, flat ordered and unordered lists, and pipe tables.
Nested lists and raw HTML are not supported; HTML is shown escaped.
A table of contents is built when a document has more than two headings.
`
