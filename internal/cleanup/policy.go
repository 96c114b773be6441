package cleanup

import (
	"fmt"
	"sort"
	"strings"
)

// DeletePolicy selects which source extensions are eligible for removal
// after a verified conversion. The zero value covers nothing.
type DeletePolicy struct {
	All        bool
	Extensions map[string]struct{}
}

// ParseDeletePolicy builds a policy from its textual form: "none", "all",
// or a comma-separated extension list such as "mkv,webm" (leading dots
// optional, matching is case-insensitive).
func ParseDeletePolicy(spec string) (DeletePolicy, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	switch spec {
	case "", "none":
		return DeletePolicy{}, nil
	case "all":
		return DeletePolicy{All: true}, nil
	}

	policy := DeletePolicy{Extensions: make(map[string]struct{})}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		if strings.ContainsAny(part[1:], "./\\ ") {
			return DeletePolicy{}, fmt.Errorf("invalid extension %q in delete policy", part)
		}
		policy.Extensions[part] = struct{}{}
	}
	if len(policy.Extensions) == 0 {
		return DeletePolicy{}, fmt.Errorf("delete policy %q names no extensions", spec)
	}
	return policy, nil
}

// Enabled reports whether the policy covers anything at all.
func (p DeletePolicy) Enabled() bool {
	return p.All || len(p.Extensions) > 0
}

// Covers reports whether ext (with leading dot) is eligible under the
// policy.
func (p DeletePolicy) Covers(ext string) bool {
	if p.All {
		return true
	}
	_, ok := p.Extensions[strings.ToLower(ext)]
	return ok
}

// String renders the policy in the same textual form ParseDeletePolicy
// accepts.
func (p DeletePolicy) String() string {
	if p.All {
		return "all"
	}
	if len(p.Extensions) == 0 {
		return "none"
	}
	exts := make([]string, 0, len(p.Extensions))
	for ext := range p.Extensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)
	return strings.Join(exts, ",")
}
