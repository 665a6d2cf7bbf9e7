// Package payload implements the edit-application payload parser (C9): a
// text stream decomposed into typed, sigil-delimited blocks.
package payload

import (
	"fmt"
	"regexp"
	"strings"
)

// Sigil is the fixed ASCII token delimiting payload blocks.
const Sigil = "XSC7XSC"

// Kind is a payload block type.
type Kind string

const (
	Plan     Kind = "PLAN"
	Manifest Kind = "MANIFEST"
	Meta     Kind = "META"
	File     Kind = "FILE"
	Patch    Kind = "PATCH"
)

var reservedKeywords = map[string]bool{
	"MANIFEST": true, "PLAN": true, "META": true, "PATCH": true, "FILE": true, "END": true,
}

// Block is one parsed payload block.
type Block struct {
	Kind Kind
	Arg  string // path, for FILE/PATCH; empty otherwise
	Text string // verbatim content, transport-prefix-stripped
}

var (
	headerPattern = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(Sigil) + ` (PLAN|MANIFEST|FILE|PATCH|META) ` + regexp.QuoteMeta(Sigil) + `(?: (.+))?\s*$`)
	footerPattern = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(Sigil) + ` END ` + regexp.QuoteMeta(Sigil) + `\s*$`)
)

// Options controls optional transport-prefix stripping, for payloads
// quoted into e-mail or chat transports.
type Options struct {
	TransportPrefix string
}

// Parse decomposes text into an ordered sequence of Blocks. A missing END
// line is a hard error naming the unclosed block kind and its byte offset.
func Parse(text string, opts Options) ([]Block, error) {
	if opts.TransportPrefix != "" {
		text = stripTransportPrefix(text, opts.TransportPrefix)
	}

	var blocks []Block

	headers := headerPattern.FindAllStringSubmatchIndex(text, -1)
	for i, h := range headers {
		kind := Kind(text[h[2]:h[3]])
		arg := ""
		if h[4] != -1 {
			arg = strings.TrimSpace(text[h[4]:h[5]])
		}

		if arg != "" && reservedKeywords[strings.ToUpper(arg)] {
			return nil, fmt.Errorf("block %s: path argument %q is a reserved keyword", kind, arg)
		}

		contentStart := h[1]
		var contentEnd int
		loc := footerPattern.FindStringIndex(text[contentStart:])
		if loc == nil {
			return nil, fmt.Errorf("unclosed %s block starting at byte offset %d", kind, h[0])
		}
		contentEnd = contentStart + loc[0]

		// An unrelated header appearing before this block's END means the
		// previous block was left unclosed (nesting is not supported).
		if i+1 < len(headers) && headers[i+1][0] < contentEnd {
			return nil, fmt.Errorf("unclosed %s block starting at byte offset %d", kind, h[0])
		}

		content := text[contentStart:contentEnd]
		content = strings.TrimPrefix(content, "\n")
		if kind != File {
			// FILE content keeps its final newline; other blocks drop it.
			content = strings.TrimSuffix(content, "\n")
		}

		blocks = append(blocks, Block{
			Kind: kind,
			Arg:  arg,
			Text: content,
		})
	}

	return blocks, nil
}

func stripTransportPrefix(content, prefix string) string {
	if prefix == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			lines[i] = strings.TrimPrefix(line, prefix)
		} else {
			lines[i] = strings.TrimPrefix(line, strings.TrimRight(prefix, " "))
		}
	}
	return strings.Join(lines, "\n")
}
