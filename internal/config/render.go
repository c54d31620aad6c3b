package config

import (
	"fmt"
	"strconv"
	"strings"
)

// section groups options under one TOML table; the root table has name "".
type section struct {
	name string
	opts []ConfigOption
}

// groupOptions splits dotted keys into tables, keeping first-seen order.
func groupOptions(opts []ConfigOption) []section {
	out := []section{{name: ""}}
	index := map[string]int{"": 0}
	for _, o := range opts {
		name, key := "", o.Key
		if i := strings.IndexByte(o.Key, '.'); i >= 0 {
			name, key = o.Key[:i], o.Key[i+1:]
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, section{name: name})
		}
		out[i].opts = append(out[i].opts, ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	return out
}

// RenderDefaultTOML renders a commented TOML config holding every default.
func RenderDefaultTOML() string {
	lines := []string{"# notemark configuration (TOML)", ""}
	for _, sec := range groupOptions(GetConfigOptions()) {
		if len(sec.opts) == 0 {
			continue
		}
		if sec.name != "" {
			lines = append(lines, "["+sec.name+"]")
		}
		for _, o := range sec.opts {
			lines = appendOption(lines, o)
		}
	}
	return strings.Join(lines, "\n")
}

// UpdateTOML appends missing defaults to an existing config and comments
// out keys that are no longer known. changed reports whether anything was
// rewritten.
func UpdateTOML(existing string) (updated string, changed bool) {
	opts := GetConfigOptions()
	known := make(map[string]bool, len(opts))
	for _, o := range opts {
		known[o.Key] = true
	}

	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines))
	seen := make(map[string]bool)
	table := ""
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		switch {
		case trim == "" || strings.HasPrefix(trim, "#"):
			out = append(out, line)
			continue
		case strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]"):
			table = strings.TrimSpace(strings.Trim(trim, "[]"))
			out = append(out, line)
			continue
		}
		key, ok := parseTOMLKey(line)
		if !ok {
			out = append(out, line)
			continue
		}
		if table != "" {
			key = table + "." + key
		}
		seen[key] = true
		if !known[key] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out,
				indent+"# OUTDATED: option removed from config schema",
				indent+"# "+strings.TrimLeft(line, " \t"))
			changed = true
			continue
		}
		out = append(out, line)
	}

	var missing []ConfigOption
	for _, o := range opts {
		if !seen[o.Key] {
			missing = append(missing, o)
		}
	}
	if len(missing) > 0 {
		groups := groupOptions(missing)
		// Root keys must precede the first table or TOML files them under it.
		if root := groups[0].opts; len(root) > 0 {
			added := []string{"# Added by config update"}
			for _, o := range root {
				added = appendOption(added, o)
			}
			at := firstTable(out)
			out = append(out[:at], append(added, out[at:]...)...)
		}
		for _, sec := range groups[1:] {
			var added []string
			for _, o := range sec.opts {
				added = appendOption(added, o)
			}
			// Extend an existing table in place; TOML forbids repeating it.
			if at := tableEnd(out, sec.name); at >= 0 {
				out = append(out[:at], append(added, out[at:]...)...)
				continue
			}
			out = append(out, "", "# Added by config update", "["+sec.name+"]")
			out = append(out, added...)
		}
		changed = true
	}
	return strings.Join(out, "\n"), changed
}

func firstTable(lines []string) int {
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "[") {
			return i
		}
	}
	return len(lines)
}

// tableEnd returns the line index just past table name, or -1 when the
// table is absent.
func tableEnd(lines []string, name string) int {
	start := -1
	for i, l := range lines {
		trim := strings.TrimSpace(l)
		if !strings.HasPrefix(trim, "[") {
			continue
		}
		if start >= 0 {
			return i
		}
		if strings.TrimSpace(strings.Trim(trim, "[]")) == name {
			start = i
		}
	}
	if start >= 0 {
		return len(lines)
	}
	return -1
}

// parseTOMLKey returns the bare key of a "key = value" line.
func parseTOMLKey(line string) (string, bool) {
	idx := strings.Index(line, "=")
	if idx == -1 {
		return "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.ContainsAny(key[:1], `["'`) {
		return "", false
	}
	return key, true
}

func appendOption(lines []string, o ConfigOption) []string {
	if o.Comment != "" {
		lines = append(lines, "# "+o.Comment)
	}
	return append(lines, o.Key+" = "+tomlValue(o.Default), "")
}

func tomlValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
