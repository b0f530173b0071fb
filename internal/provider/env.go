package provider

import (
	"os"
	"strings"
)

// mergeEnv composes the child environment: OS environment as base, then
// caller-supplied globals, then the capability's own declared entries.
// Later entries override earlier ones by key; ${VAR} references are expanded
// against the composed map (single pass, no recursion).
func mergeEnv(global, perCap []string) []string {
	m := make(map[string]string)
	apply := func(kvs []string) {
		for _, kv := range kvs {
			if i := strings.IndexByte(kv, '='); i > 0 {
				m[kv[:i]] = kv[i+1:]
			}
		}
	}
	apply(os.Environ())
	apply(global)
	apply(perCap)

	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+expand(v, m))
	}
	return out
}

func expand(s string, m map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}
