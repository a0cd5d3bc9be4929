package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/luidec/manifest"
	"github.com/chazu/luidec/pkg/hks"
	"github.com/chazu/luidec/pkg/hks/hkstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChunk() []byte {
	return hkstest.New(&hkstest.Func{
		Regs: 1,
		Code: []hks.Word{
			hks.EncodeABx(hks.OpLoadK, 0, 0),
			hks.EncodeABC(hks.OpReturn, 0, 2, 0),
		},
		Constants: []hkstest.Const{hkstest.Str("hi")},
	}).Bytes()
}

func writeInput(t *testing.T, dir string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, "script.luac")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestProcess(t *testing.T) {
	cfg := manifest.Default()
	cfg.Output.Export = "out.cbor"
	cfg.Output.Tree = "out.tree"

	out, err := process(sampleChunk(), cfg)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.listing, ".format V14\n"), out.listing)
	assert.Contains(t, out.listing, "LOADK R(0), K(0)")
	assert.Equal(t, "function ()\n    return \"hi\"\nend\n", out.source)
	assert.Contains(t, out.tree, "Return")

	file, err := hks.UnmarshalFile(out.export)
	require.NoError(t, err)
	assert.Len(t, file.Root.Instructions, 2)
}

func TestProcessOptionalOutputs(t *testing.T) {
	out, err := process(sampleChunk(), manifest.Default())
	require.NoError(t, err)
	assert.Nil(t, out.export)
	assert.Empty(t, out.tree)
}

func TestProcessErrors(t *testing.T) {
	_, err := process([]byte{0x1B, 0x4C}, manifest.Default())
	require.Error(t, err)

	bad := hkstest.New(&hkstest.Func{
		Code: []hks.Word{hks.EncodeAsBx(hks.OpJmp, 0, -9)},
	}).Bytes()
	out, err := process(bad, manifest.Default())
	require.Error(t, err)
	assert.Nil(t, out)
}

func TestRootCmdArgCount(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	require.NoError(t, execute(t))
	require.NoError(t, execute(t, "a.luac", "b.luac"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRootCmdWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, sampleChunk())
	dis := filepath.Join(dir, "a.dis.lua")
	dec := filepath.Join(dir, "a.dec.lua")
	tree := filepath.Join(dir, "a.tree")

	require.NoError(t, execute(t, input,
		"--out-dis", dis,
		"--out-dec", dec,
		"--dump-tree", tree,
		"--no-use-counts",
	))

	listing, err := os.ReadFile(dis)
	require.NoError(t, err)
	assert.Contains(t, string(listing), ".function _id_")

	source, err := os.ReadFile(dec)
	require.NoError(t, err)
	assert.Equal(t, "function ()\n    return \"hi\"\nend\n", string(source))

	dump, err := os.ReadFile(tree)
	require.NoError(t, err)
	assert.Contains(t, string(dump), "Chunk")
}

func TestRootCmdConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, sampleChunk())
	config := `
[output]
disassembly = "listing.txt"
decompiled = "source.lua"
export = "model.cbor"

[decompile]
inline = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(config), 0644))

	require.NoError(t, execute(t, input))

	for _, name := range []string{"listing.txt", "source.lua", "model.cbor"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	source, err := os.ReadFile(filepath.Join(dir, "source.lua"))
	require.NoError(t, err)
	assert.Contains(t, string(source), "R0(0) = \"hi\"")
}

func TestRootCmdNoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	bad := hkstest.New(&hkstest.Func{
		Code: []hks.Word{hks.EncodeABC(hks.OpReturn, 4, 2, 0)},
	}).Bytes()
	input := writeInput(t, dir, bad)
	dis := filepath.Join(dir, "a.dis.lua")
	dec := filepath.Join(dir, "a.dec.lua")

	err := execute(t, input, "--out-dis", dis, "--out-dec", dec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script.luac")

	_, err = os.Stat(dis)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dec)
	assert.True(t, os.IsNotExist(err))
}

func TestRootCmdMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, filepath.Join(dir, "missing.luac"),
		"--out-dis", filepath.Join(dir, "a"),
		"--out-dec", filepath.Join(dir, "b"))
	assert.Error(t, err)
}
