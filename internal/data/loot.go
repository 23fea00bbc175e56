package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LootItem is one candidate of a loot table. Weight is relative to the
// other items of the same table.
type LootItem struct {
	Item   string  `yaml:"item"`
	Weight float64 `yaml:"weight"`
}

// LootTableDef describes what an enemy may drop.
type LootTableDef struct {
	Name         string     `yaml:"name"`
	NoDropChance float64    `yaml:"no_drop_chance"` // 0.0-1.0
	Items        []LootItem `yaml:"items"`
}

type lootFile struct {
	Tables []LootTableDef `yaml:"tables"`
}

// LootTables holds all loot table definitions indexed by name.
type LootTables struct {
	tables map[string]*LootTableDef
}

// Get returns the named table, or nil if none defined.
func (t *LootTables) Get(name string) *LootTableDef {
	return t.tables[name]
}

// Count returns the number of tables.
func (t *LootTables) Count() int {
	return len(t.tables)
}

// Names returns the table names sorted.
func (t *LootTables) Names() []string {
	out := make([]string, 0, len(t.tables))
	for n := range t.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Items returns every item name referenced by any table, sorted. Each item
// needs its own object pool.
func (t *LootTables) Items() []string {
	seen := make(map[string]struct{})
	for _, def := range t.tables {
		for _, it := range def.Items {
			seen[it.Item] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for it := range seen {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// LoadLootTables loads loot tables from a YAML file.
func LoadLootTables(path string) (*LootTables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loot tables: %w", err)
	}
	t, err := ParseLootTables(raw)
	if err != nil {
		return nil, fmt.Errorf("loot tables %s: %w", path, err)
	}
	return t, nil
}

// ParseLootTables decodes and validates loot table YAML.
func ParseLootTables(raw []byte) (*LootTables, error) {
	var f lootFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	t := &LootTables{tables: make(map[string]*LootTableDef, len(f.Tables))}
	for i := range f.Tables {
		def := &f.Tables[i]
		if def.Name == "" {
			return nil, fmt.Errorf("table %d: missing name", i)
		}
		if _, dup := t.tables[def.Name]; dup {
			return nil, fmt.Errorf("table %q: defined twice", def.Name)
		}
		if def.NoDropChance < 0 || def.NoDropChance > 1 {
			return nil, fmt.Errorf("table %q: no_drop_chance %v out of range", def.Name, def.NoDropChance)
		}
		for _, it := range def.Items {
			if it.Item == "" {
				return nil, fmt.Errorf("table %q: item without name", def.Name)
			}
		}
		t.tables[def.Name] = def
	}
	return t, nil
}
