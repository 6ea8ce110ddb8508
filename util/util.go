package util

import (
	"fmt"
	"sort"
	"strings"
)

func FirstNonEmptyString(args ...string) string {
	for _, arg := range args {
		if arg != "" {
			return arg
		}
	}
	return ""
}

func HasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// UniqueNames returns names with duplicates removed, first occurrence wins.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// MergeConfig overlays params onto a deep copy of defaults. Nested maps merge
// key by key; any other value overwrites. Defaults holding nil mark required
// parameters: a nil left anywhere after the merge is an error naming the
// offending keys by dotted path.
func MergeConfig(defaults, params map[string]interface{}) (map[string]interface{}, error) {
	cfg := copyConfig(defaults)
	applyParams(cfg, params)
	var nilKeys []string
	collectNilKeys(cfg, "", &nilKeys)
	if len(nilKeys) > 0 {
		sort.Strings(nilKeys)
		return nil, fmt.Errorf("following keys remain nil: %s", strings.Join(nilKeys, ", "))
	}
	return cfg, nil
}

func copyConfig(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]interface{}); ok {
			dst[k] = copyConfig(m)
			continue
		}
		dst[k] = v
	}
	return dst
}

func applyParams(cfg, params map[string]interface{}) {
	for k, v := range params {
		pm, pok := v.(map[string]interface{})
		cm, cok := cfg[k].(map[string]interface{})
		if pok && cok {
			applyParams(cm, pm)
			continue
		}
		cfg[k] = v
	}
}

func collectNilKeys(cfg map[string]interface{}, parent string, out *[]string) {
	for k, v := range cfg {
		key := k
		if parent != "" {
			key = parent + "." + k
		}
		if m, ok := v.(map[string]interface{}); ok {
			collectNilKeys(m, key, out)
			continue
		}
		if v == nil {
			*out = append(*out, key)
		}
	}
}
