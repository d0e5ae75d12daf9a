// Package testgen generates concrete register-level test cases for a
// compiled Neurlang function, either parsed out of its `# Test Cases` doc
// comment bullets or, failing that, a small built-in table of defaults for
// well-known stdlib functions.
package testgen

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// testStringBase is where generated memory setups for string arguments
// start being allocated, mirroring the original's TEST_STRING_BASE.
const testStringBase = 0x1000

// RegValue is one register=value assignment.
type RegValue struct {
	Register string
	Value    uint64
}

// MemorySetup places a null-terminated string at an address before a test
// runs, for functions that take a pointer argument.
type MemorySetup struct {
	Address uint64
	Data    string
}

// TestCase is one input/output pair for a compiled function.
type TestCase struct {
	Inputs  []RegValue
	Outputs []RegValue
	Memory  []MemorySetup
}

var callPattern = regexp.MustCompile(`\(([^)]*)\)\s*=\s*(-?\d+)`)
var inlinePattern = regexp.MustCompile(`^(-?\d+(?:\s*,\s*-?\d+)*)\s*->\s*(-?\d+)$`)

// GenerateFromDoc builds test cases from a function's doc-comment metadata,
// falling back to GenerateDefaults when the doc carries no parseable
// `# Test Cases` bullets.
func GenerateFromDoc(funcName string, meta domain.NeurlangMetadata) []TestCase {
	var tests []TestCase
	stringAddr := uint64(testStringBase)

	for _, line := range meta.TestLines {
		if tc, ok := parseCallLine(funcName, line, meta.ParamDocs, &stringAddr); ok {
			tests = append(tests, tc)
			continue
		}
		if tc, ok := parseInlineLine(line); ok {
			tests = append(tests, tc)
		}
	}

	if len(tests) == 0 {
		tests = GenerateDefaults(funcName, len(meta.ParamDocs))
	}
	return tests
}

// parseCallLine parses `funcName(args) = result`, where funcName must
// appear as a literal prefix (doc bullets for other functions - e.g. a
// helper the doc mentions in passing - are ignored).
func parseCallLine(funcName, line string, params []domain.ParamDoc, stringAddr *uint64) (TestCase, bool) {
	if !strings.HasPrefix(line, funcName+"(") {
		return TestCase{}, false
	}
	m := callPattern.FindStringSubmatch(line)
	if m == nil {
		return TestCase{}, false
	}
	result, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return TestCase{}, false
	}

	args := parseMixedArgs(m[1], stringAddr)
	var inputs []RegValue
	var memory []MemorySetup
	for i, arg := range args {
		reg := registerFor(i, params)
		if arg.isString {
			inputs = append(inputs, RegValue{Register: reg, Value: arg.addr})
			memory = append(memory, MemorySetup{Address: arg.addr, Data: arg.str})
		} else {
			inputs = append(inputs, RegValue{Register: reg, Value: arg.num})
		}
	}

	return TestCase{
		Inputs: inputs,
		Outputs: []RegValue{{Register: "r0", Value: uint64(result)}},
		Memory: memory,
	}, true
}

// parseInlineLine parses `in1, in2,... -> out`.
func parseInlineLine(line string) (TestCase, bool) {
	m := inlinePattern.FindStringSubmatch(line)
	if m == nil {
		return TestCase{}, false
	}
	output, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return TestCase{}, false
	}

	var inputs []RegValue
	for i, raw := range strings.Split(m[1], ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return TestCase{}, false
		}
		inputs = append(inputs, RegValue{Register: registerFor(i, nil), Value: uint64(n)})
	}

	return TestCase{Inputs: inputs, Outputs: []RegValue{{Register: "r0", Value: uint64(output)}}}, true
}

func registerFor(i int, params []domain.ParamDoc) string {
	if i < len(params) && params[i].Register != "" {
		return params[i].Register
	}
	return "r" + strconv.Itoa(i)
}

type parsedArg struct {
	isString bool
	num      uint64
	str      string
	addr     uint64
}

// parseMixedArgs splits a call's argument list, recognising quoted strings
// (allocated into memory starting at *stringAddr, 8-byte aligned) alongside
// decimal and 0x-prefixed hex integers.
func parseMixedArgs(argsStr string, stringAddr *uint64) []parsedArg {
	var out []parsedArg
	runes := []rune(argsStr)
	i := 0
	for i < len(runes) {
		for i < len(runes) && (runes[i] == ' ' || runes[i] == ',' || runes[i] == '\t') {
			i++
		}
		if i >= len(runes) {
			break
		}

		if runes[i] == '"' {
			i++
			var sb strings.Builder
			for i < len(runes) && runes[i] != '"' {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					switch runes[i] {
					case 'n':
						sb.WriteByte('\n')
					case 't':
						sb.WriteByte('\t')
					case '0':
						sb.WriteByte(0)
					default:
						sb.WriteRune(runes[i])
					}
				} else {
					sb.WriteRune(runes[i])
				}
				i++
			}
			if i < len(runes) {
				i++ // closing quote
			}

			addr := *stringAddr
			*stringAddr += ((uint64(sb.Len()) + 1 + 7) / 8) * 8
			out = append(out, parsedArg{isString: true, str: sb.String(), addr: addr})
			continue
		}

		start := i
		for i < len(runes) && (isHexDigit(runes[i]) || runes[i] == '-' || runes[i] == 'x' || runes[i] == 'X') {
			i++
		}
		if i > start {
			numStr := string(runes[start:i])
			out = append(out, parsedArg{num: parseNumber(numStr)})
		}
	}
	return out
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func parseNumber(s string) uint64 {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, _ := strconv.ParseUint(s[2:], 16, 64)
		return n
	}
	if strings.HasPrefix(s, "-") {
		n, _ := strconv.ParseInt(s, 10, 64)
		return uint64(n)
	}
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

// defaultTable holds known-good smoke tests for stdlib functions whose doc
// comments carry no `# Test Cases` section.
var defaultTable = map[string][]TestCase{
	"factorial": {
		{Inputs: []RegValue{{"r0", 0}}, Outputs: []RegValue{{"r0", 1}}},
		{Inputs: []RegValue{{"r0", 5}}, Outputs: []RegValue{{"r0", 120}}},
		{Inputs: []RegValue{{"r0", 10}}, Outputs: []RegValue{{"r0", 3628800}}},
	},
	"fibonacci": {
		{Inputs: []RegValue{{"r0", 0}}, Outputs: []RegValue{{"r0", 0}}},
		{Inputs: []RegValue{{"r0", 1}}, Outputs: []RegValue{{"r0", 1}}},
		{Inputs: []RegValue{{"r0", 10}}, Outputs: []RegValue{{"r0", 55}}},
	},
	"gcd": {
		{Inputs: []RegValue{{"r0", 48}, {"r1", 18}}, Outputs: []RegValue{{"r0", 6}}},
		{Inputs: []RegValue{{"r0", 100}, {"r1", 35}}, Outputs: []RegValue{{"r0", 5}}},
	},
	"lcm": {
		{Inputs: []RegValue{{"r0", 4}, {"r1", 6}}, Outputs: []RegValue{{"r0", 12}}},
	},
	"is_prime": {
		{Inputs: []RegValue{{"r0", 2}}, Outputs: []RegValue{{"r0", 1}}},
		{Inputs: []RegValue{{"r0", 4}}, Outputs: []RegValue{{"r0", 0}}},
		{Inputs: []RegValue{{"r0", 17}}, Outputs: []RegValue{{"r0", 1}}},
	},
	"min": {{Inputs: []RegValue{{"r0", 5}, {"r1", 3}}, Outputs: []RegValue{{"r0", 3}}}},
	"max": {{Inputs: []RegValue{{"r0", 5}, {"r1", 3}}, Outputs: []RegValue{{"r0", 5}}}},
}

// GenerateDefaults returns the known-good table entry for funcName, or a
// single identity/zero smoke test sized to paramCount when the function is
// unrecognised.
func GenerateDefaults(funcName string, paramCount int) []TestCase {
	if tests, ok := defaultTable[funcName]; ok {
		return tests
	}

	switch paramCount {
	case 1:
		return []TestCase{{Inputs: []RegValue{{"r0", 0}}, Outputs: []RegValue{{"r0", 0}}}}
	case 2:
		return []TestCase{{Inputs: []RegValue{{"r0", 0}, {"r1", 0}}, Outputs: []RegValue{{"r0", 0}}}}
	default:
		return nil
	}
}
