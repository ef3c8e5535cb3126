package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkFileSplitsAtDeclarationBoundaries(t *testing.T) {
	src := "package x\n\nfunc A() {\n}\n\nfunc B() {\n}\n"
	chunks := chunkFile(src)
	require.NotEmpty(t, chunks)

	var symbols []string
	for _, c := range chunks {
		symbols = append(symbols, c.Symbols...)
	}
	assert.Contains(t, symbols, "A")
	assert.Contains(t, symbols, "B")
}

func TestChunkFileBoundsChunkSizeByMaxLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("x := 1\n")
	}
	chunks := chunkFile(b.String())
	for _, c := range chunks {
		assert.LessOrEqual(t, c.EndLine-c.StartLine+1, maxChunkLines)
	}
}

func TestChunkFileEmptyInput(t *testing.T) {
	assert.Empty(t, chunkFile(""))
}

func TestExtractImports(t *testing.T) {
	imports := extractImports("import \"fmt\"\nimport \"os\"\n")
	assert.Equal(t, []string{"fmt", "os"}, imports)
}

func TestClassifyKind(t *testing.T) {
	assert.Equal(t, "function", classifyKind("func A() {}"))
	assert.Equal(t, "type", classifyKind("type A struct{}"))
	assert.Equal(t, "other", classifyKind("x := 1"))
}

func TestContentHashIsStableAndContentSensitive(t *testing.T) {
	a := contentHash("hello")
	b := contentHash("hello")
	c := contentHash("world")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
