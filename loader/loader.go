package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/nathoo/storycore/engine/dialogue"
	"github.com/nathoo/storycore/engine/state"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DialogueFile is the optional dialogue tree file next to the Lua sources.
const DialogueFile = "dialogue.yaml"

// collector accumulates Lua definitions during file execution.
type collector struct {
	game         *lua.LTable
	actions      []rawDef
	consequences []rawDef
	combos       []rawDef
	npcs         []rawDef
	actors       []rawDef
	defensive    []rawDef
	objectives   []rawDef
	worldEvents  []rawDef
	crises       []rawDef
	balance      []rawDef
	handlers     []rawHandler
}

// Load reads all .lua files from dir, compiles them into content
// definitions, validates references, and returns the immutable Defs.
// The Lua VM is discarded after loading.
func Load(dir string, log *zap.Logger) (*state.Defs, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), log)
}

// LoadFS is Load over an fs.FS rooted at the content directory.
func LoadFS(fsys fs.FS, log *zap.Logger) (*state.Defs, error) {
	if log == nil {
		log = zap.NewNop()
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading content directory: %w", err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, errors.New("no .lua files found in content directory")
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		src, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		if err := run(L, f, src); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling content: %w", err)
	}

	if data, err := fs.ReadFile(fsys, DialogueFile); err == nil {
		trees, err := dialogue.ParseTrees(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", DialogueFile, err)
		}
		defs.Dialogues = trees
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", DialogueFile, err)
	}

	warnings, err := validate(defs)
	for _, w := range warnings {
		log.Warn("content warning", zap.String("warning", w))
	}
	if err != nil {
		return nil, err
	}

	log.Debug("content loaded",
		zap.String("title", defs.Game.Title),
		zap.Int("files", len(luaFiles)),
		zap.Int("actions", len(defs.Actions)),
		zap.Int("npcs", len(defs.NPCs)),
	)
	return defs, nil
}

// run executes one chunk under its file name so Lua errors point at it.
func run(L *lua.LState, name string, src []byte) error {
	fn, err := L.Load(bytes.NewReader(src), path.Base(name))
	if err != nil {
		return err
	}
	L.Push(fn)
	return L.PCall(0, lua.MultRet, nil)
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// print, type, tostring, tonumber, pairs, ipairs, ...
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must not reseed: the engine owns all randomness.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
		tbl.RawSetString("random", lua.LNil)
	}
}
