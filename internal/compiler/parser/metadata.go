package parser

import (
	"strings"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// parseNeurlangMetadata extracts the `# Prompts` / `# Parameters` sections
// and the inline `- Category:` / `- Difficulty:` lines from a function's
// joined doc comment.
func parseNeurlangMetadata(doc string) domain.NeurlangMetadata {
	var meta domain.NeurlangMetadata
	if doc == "" {
		return meta
	}

	inPrompts, inParams, inTests := false, false, false

	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "# Prompts":
			inPrompts, inParams, inTests = true, false, false
			continue
		case trimmed == "# Parameters":
			inPrompts, inParams, inTests = false, true, false
			continue
		case trimmed == "# Test Cases":
			inPrompts, inParams, inTests = false, false, true
			continue
		case strings.HasPrefix(trimmed, "# "):
			inPrompts, inParams, inTests = false, false, false
		}

		if inPrompts {
			if prompt, ok := strings.CutPrefix(trimmed, "- "); ok {
				if prompt = strings.TrimSpace(prompt); prompt != "" {
					meta.Prompts = append(meta.Prompts, prompt)
				}
			}
		}

		if inParams {
			if paramLine, ok := strings.CutPrefix(trimmed, "- "); ok {
				if doc, ok := parseParamDoc(paramLine); ok {
					meta.ParamDocs = append(meta.ParamDocs, doc)
				}
			}
		}

		if inTests {
			if testLine, ok := strings.CutPrefix(trimmed, "- "); ok {
				if testLine = strings.TrimSpace(testLine); testLine != "" {
					meta.TestLines = append(meta.TestLines, testLine)
				}
			}
		}

		if cat, ok := strings.CutPrefix(trimmed, "- Category:"); ok {
			meta.Category = strings.TrimSpace(cat)
		}
		if diff, ok := strings.CutPrefix(trimmed, "- Difficulty:"); ok {
			meta.Difficulty = strings.TrimSpace(diff)
		}
	}

	return meta
}

// parseParamDoc parses a `name=register "description"` parameter doc line.
func parseParamDoc(line string) (domain.ParamDoc, bool) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return domain.ParamDoc{}, false
	}
	name := strings.TrimSpace(line[:eq])
	rest := line[eq+1:]

	var register, description string
	if q := strings.IndexByte(rest, '"'); q >= 0 {
		register = strings.TrimSpace(rest[:q])
		tail := rest[q+1:]
		if end := strings.IndexByte(tail, '"'); end >= 0 {
			description = tail[:end]
		} else {
			description = tail
		}
	} else {
		parts := strings.SplitN(strings.TrimSpace(rest), " ", 2)
		register = parts[0]
		if register == "" {
			register = "r0"
		}
		if len(parts) > 1 {
			description = parts[1]
		}
	}

	return domain.ParamDoc{Name: name, Register: register, Description: description}, true
}
