// Package ingest turns external documents (text, markdown, PDF, HTML) into
// knowledge articles for the kb import command.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"deskmate/internal/storage"
)

// Document is the extracted form of an imported source: a suggested title
// and its plain text.
type Document struct {
	Title string
	Text  string
}

// maxTitleLen caps derived short descriptions.
const maxTitleLen = 120

// ExtractFile reads a local file and extracts a Document. PDFs go through
// the PDF text extractor; everything else is treated as plain text or
// markdown.
func ExtractFile(path string) (Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return Document{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return ExtractHTML(f)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return Document{}, fmt.Errorf("reading %s: %w", path, err)
		}
		return extractText(string(data)), nil
	}
}

func extractPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("extracting PDF text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return Document{}, fmt.Errorf("reading PDF text: %w", err)
	}
	return extractText(buf.String()), nil
}

// ExtractHTML parses HTML and extracts the page title plus visible text.
// Script and style contents are skipped.
func ExtractHTML(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, fmt.Errorf("parsing HTML: %w", err)
	}

	var title string
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	doc := extractText(sb.String())
	if title != "" {
		doc.Title = truncate(title, maxTitleLen)
	}
	return doc, nil
}

// extractText derives a title from the first markdown heading or non-empty
// line of the text.
func extractText(text string) Document {
	title := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			title = truncate(line, maxTitleLen)
			break
		}
	}
	return Document{Title: title, Text: strings.TrimSpace(text)}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// NewArticle builds a knowledge article from an extracted document. Numbers
// are KB-prefixed random identifiers; imported articles start at version 1.
func NewArticle(doc Document, category, author string) storage.KnowledgeArticle {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return storage.KnowledgeArticle{
		Number:           "KB" + id,
		Version:          "1",
		ShortDescription: doc.Title,
		Author:           author,
		Category:         category,
		Workflow:         "Published",
		UpdatedAt:        time.Now().UTC(),
	}
}
