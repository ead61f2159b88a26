// Package importer turns documents into memory notes.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxChunk is the longest note an import produces, in characters.
	MaxChunk = 1000
	Source   = "import"
	Tag      = "imported"
)

// ErrUnsupported is returned for file types other than text, markdown
// and PDF.
var ErrUnsupported = errors.New("unsupported file type")

var reBlankLine = regexp.MustCompile(`\n[ \t]*\n`)

// Sink stores notes. Implemented by memory.Store.
type Sink interface {
	AddMemory(content, source string, tags ...string) error
}

// ImportFile reads path and stores it as notes tagged "imported" plus
// any extra tags. It returns the number of notes stored.
func ImportFile(sink Sink, path string, tags ...string) (int, error) {
	text, err := ReadText(path)
	if err != nil {
		return 0, err
	}
	chunks := Split(text, MaxChunk)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%s: no text found", path)
	}

	all := append([]string{Tag}, tags...)
	for i, c := range chunks {
		if err := sink.AddMemory(c, Source, all...); err != nil {
			return i, fmt.Errorf("storing chunk %d: %w", i+1, err)
		}
	}
	return len(chunks), nil
}

// ReadText returns the plain text of a .txt, .md or .pdf file.
func ReadText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", ".md", ".markdown":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		if !utf8.Valid(b) {
			return "", fmt.Errorf("%s: not valid UTF-8 text", path)
		}
		return string(b), nil
	case ".pdf":
		return readPDF(path)
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupported)
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

// Split breaks text into paragraphs on blank lines and packs consecutive
// paragraphs into chunks of at most size characters. A paragraph longer
// than size is cut at sentence ends, or at spaces when a sentence is
// itself too long.
func Split(text string, size int) []string {
	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}
	add := func(piece string) {
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+2+utf8.RuneCountInString(piece) > size {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(piece)
	}

	for _, para := range reBlankLine.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= size {
			add(para)
			continue
		}
		flush()
		chunks = append(chunks, cut(para, size)...)
	}
	flush()
	return chunks
}

// cut splits one long paragraph into pieces of at most size characters.
func cut(para string, size int) []string {
	var out []string
	var cur []rune
	for _, word := range strings.Fields(para) {
		w := []rune(word)
		for len(w) > size {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(w[:size]))
			w = w[size:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > size {
			out = append(out, string(cur))
			cur = nil
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)

		// Prefer to break after a sentence once the piece is well filled.
		if len(cur) >= size*3/4 && endsSentence(word) {
			out = append(out, string(cur))
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}
