package patch

import (
	"fmt"
	"strconv"
	"strings"

	"slopchop/internal/audit"
)

// Parse detects V0 vs V1 and decodes a PATCH block's body into a Patch.
// V0 (`<<<< SEARCH` ... `>>>> REPLACE`) is accepted indefinitely alongside
// V1, with a deprecation warning written to the patch audit log.
func Parse(body string) (Patch, error) {
	if detectFormat(body) == V0 {
		audit.Get(audit.CategoryPatch).Warn("deprecated V0 SEARCH/REPLACE patch format accepted", nil)
		return parseV0(body)
	}
	return parseV1(body)
}

func detectFormat(body string) Format {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "<<<< SEARCH" {
			return V0
		}
		if trimmed == "LEFT_CTX:" {
			return V1
		}
	}
	return V1
}

var sectionHeaders = map[string]int{
	"LEFT_CTX:":  0,
	"OLD:":       1,
	"RIGHT_CTX:": 2,
	"NEW:":       3,
}

// parseV1 walks the body line by line, tracking which of the four sections
// (LEFT_CTX/OLD/RIGHT_CTX/NEW) is currently accumulating. Seeing LEFT_CTX:
// again closes the instruction in progress and opens a new one.
func parseV1(body string) (Patch, error) {
	p := Patch{Format: V1}
	maxMatches := 1

	var sections [4][]string
	haveInstr := false

	flush := func() {
		if !haveInstr {
			return
		}
		p.Instructions = append(p.Instructions, Instruction{
			LeftCtx:    joinSection(sections[0]),
			Old:        joinSection(sections[1]),
			RightCtx:   joinSection(sections[2]),
			New:        joinSection(sections[3]),
			MaxMatches: maxMatches,
		})
		sections = [4][]string{}
		haveInstr = false
	}

	section := -1
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "BASE_SHA256:"):
			p.BaseSHA256 = strings.TrimSpace(strings.TrimPrefix(trimmed, "BASE_SHA256:"))
		case strings.HasPrefix(trimmed, "MAX_MATCHES:"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(trimmed, "MAX_MATCHES:")))
			if err != nil {
				return Patch{}, fmt.Errorf("patch: invalid MAX_MATCHES: %w", err)
			}
			maxMatches = n
		case trimmed == "LEFT_CTX:":
			flush()
			haveInstr = true
			section = 0
		case trimmed == "OLD:" || trimmed == "RIGHT_CTX:" || trimmed == "NEW:":
			section = sectionHeaders[trimmed]
		case section >= 0:
			sections[section] = append(sections[section], line)
		}
	}
	flush()

	if len(p.Instructions) == 0 {
		return Patch{}, fmt.Errorf("patch: no instruction groups found")
	}
	return p, nil
}

func joinSection(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// parseV0 decodes the deprecated `<<<< SEARCH ... ==== ... >>>> REPLACE`
// format into a single-instruction Patch with empty contexts.
func parseV0(body string) (Patch, error) {
	lines := strings.Split(body, "\n")
	p := Patch{Format: V0}

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) != "<<<< SEARCH" {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "BASE_SHA256:") {
			p.BaseSHA256 = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), "BASE_SHA256:"))
		}
		i++
	}
	if i >= len(lines) {
		return Patch{}, fmt.Errorf("patch: V0 patch missing '<<<< SEARCH' marker")
	}
	i++

	var search, replace []string
	inSearch := true
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		switch trimmed {
		case "====":
			inSearch = false
			continue
		case ">>>> REPLACE":
			p.Instructions = append(p.Instructions, Instruction{
				Old:        strings.Join(search, "\n") + "\n",
				New:        strings.Join(replace, "\n") + "\n",
				MaxMatches: 1,
			})
			return p, nil
		}
		if inSearch {
			search = append(search, lines[i])
		} else {
			replace = append(replace, lines[i])
		}
	}
	return Patch{}, fmt.Errorf("patch: V0 patch missing '>>>> REPLACE' marker")
}
