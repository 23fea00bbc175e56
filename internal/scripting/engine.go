package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/host"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for gameplay formulas and Lua-authored
// behaviors. Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory: core/ first, then behaviors/.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	for _, sub := range []string{"core", "behaviors"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromSource creates an engine from in-memory chunks, loaded in
// argument order.
func NewEngineFromSource(log *zap.Logger, chunks ...string) (*Engine, error) {
	e := newEngine(log)
	for i, src := range chunks {
		if err := e.vm.DoString(src); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load chunk %d: %w", i, err)
		}
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("behaviors", vm.NewTable())
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// BindHost exposes the host API to scripts as the global table `host`.
func (e *Engine) BindHost(h host.Host) {
	api := e.vm.NewTable()
	e.vm.SetFuncs(api, map[string]lua.LGFunction{
		"position": func(L *lua.LState) int {
			p := h.Position(checkHandle(L, 1))
			L.Push(lua.LNumber(p.X))
			L.Push(lua.LNumber(p.Y))
			L.Push(lua.LNumber(p.Z))
			return 3
		},
		"set_position": func(L *lua.LState) int {
			h.SetPosition(checkHandle(L, 1), host.Vec3{
				X: float64(L.CheckNumber(2)),
				Y: float64(L.CheckNumber(3)),
				Z: float64(L.CheckNumber(4)),
			})
			return 0
		},
		"visible": func(L *lua.LState) int {
			L.Push(lua.LBool(h.Visible(checkHandle(L, 1))))
			return 1
		},
		"set_visible": func(L *lua.LState) int {
			h.SetVisible(checkHandle(L, 1), L.CheckBool(2))
			return 0
		},
		"owner": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.Owner(checkHandle(L, 1))))
			return 1
		},
		"log": func(L *lua.LState) int {
			e.log.Info("lua", zap.String("msg", L.CheckString(1)))
			return 0
		},
	})
	e.vm.SetGlobal("host", api)
}

func checkHandle(L *lua.LState, n int) ecs.EntityID {
	return ecs.EntityID(uint64(L.CheckNumber(n)))
}

// EnemyHealth calls the Lua enemy_health(kind, wave, base) formula. A
// missing or failing formula falls back to base.
func (e *Engine) EnemyHealth(kind string, wave, base int) int {
	fn := e.vm.GetGlobal("enemy_health")
	if fn == lua.LNil {
		return base
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(kind), lua.LNumber(wave), lua.LNumber(base)); err != nil {
		e.log.Error("lua enemy_health error", zap.Error(err))
		return base
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	hp := int(lua.LVAsNumber(result))
	if hp <= 0 {
		return base
	}
	return hp
}

// HasBehavior reports whether behaviors.<name> is defined.
func (e *Engine) HasBehavior(name string) bool {
	_, ok := e.behaviorTable(name)
	return ok
}

// HasHook reports whether behaviors.<name>.<hook> is a function.
func (e *Engine) HasHook(name, hook string) bool {
	t, ok := e.behaviorTable(name)
	if !ok {
		return false
	}
	_, ok = t.RawGetString(hook).(*lua.LFunction)
	return ok
}

// CallHook runs behaviors.<name>.<hook>(ctx). Missing hooks are skipped;
// script errors are logged and swallowed.
func (e *Engine) CallHook(name, hook string, ctx map[string]lua.LValue) bool {
	t, ok := e.behaviorTable(name)
	if !ok {
		return false
	}
	fn, ok := t.RawGetString(hook).(*lua.LFunction)
	if !ok {
		return false
	}
	arg := e.vm.NewTable()
	for k, v := range ctx {
		arg.RawSetString(k, v)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua hook error",
			zap.String("behavior", name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (e *Engine) behaviorTable(name string) (*lua.LTable, bool) {
	all, ok := e.vm.GetGlobal("behaviors").(*lua.LTable)
	if !ok {
		return nil, false
	}
	t, ok := all.RawGetString(name).(*lua.LTable)
	return t, ok
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
