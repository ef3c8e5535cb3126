package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// chunk is one bounded line-range span produced by chunkFile, before it is
// hashed and written as a store.CodeChunk.
type chunk struct {
	StartLine int
	EndLine   int
	Text      string
	Symbols   []string
	Imports   []string
	Kind      string
}

const maxChunkLines = 60

var (
	funcPattern   = regexp.MustCompile(`(?m)^\s*(func|def)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	typePattern   = regexp.MustCompile(`(?m)^\s*(type|class)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	importPattern = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+"?([A-Za-z0-9_./-]+)"?`)
	importInline  = regexp.MustCompile(`^\s*"([^"]+)"\s*$`)
)

// chunkFile splits text into bounded line-range chunks. A new chunk starts
// whenever a function/type/class declaration is seen at the top of a
// window, or after maxChunkLines lines, whichever comes first — a simple,
// deterministic rule in place of a full language parser.
func chunkFile(text string) []chunk {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return nil
	}

	var chunks []chunk
	start := 0
	for start < len(lines) {
		end := start + maxChunkLines
		if end > len(lines) {
			end = len(lines)
		}
		// Prefer to break at the next declaration boundary within the window
		// rather than mid-function, when one exists past the first line.
		for i := start + 1; i < end; i++ {
			if funcPattern.MatchString(lines[i]) || typePattern.MatchString(lines[i]) {
				end = i
				break
			}
		}
		body := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(body) != "" {
			chunks = append(chunks, chunk{
				StartLine: start + 1,
				EndLine:   end,
				Text:      body,
				Symbols:   extractSymbols(body),
				Imports:   extractImports(body),
				Kind:      classifyKind(body),
			})
		}
		start = end
	}
	return chunks
}

func extractSymbols(text string) []string {
	var symbols []string
	for _, m := range funcPattern.FindAllStringSubmatch(text, -1) {
		symbols = append(symbols, m[2])
	}
	for _, m := range typePattern.FindAllStringSubmatch(text, -1) {
		symbols = append(symbols, m[2])
	}
	return symbols
}

func extractImports(text string) []string {
	var imports []string
	for _, line := range strings.Split(text, "\n") {
		if m := importPattern.FindStringSubmatch(line); m != nil {
			imports = append(imports, m[1])
			continue
		}
		if m := importInline.FindStringSubmatch(line); m != nil {
			imports = append(imports, m[1])
		}
	}
	return imports
}

// classifyKind gives each chunk a coarse display hint; purely cosmetic —
// it never enters the hybrid search scoring formula.
func classifyKind(text string) string {
	switch {
	case funcPattern.MatchString(text):
		return "function"
	case typePattern.MatchString(text):
		return "type"
	default:
		return "other"
	}
}

// contentHash returns a stable hash of a chunk's text, used to decide
// whether a file's chunks need re-indexing.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
