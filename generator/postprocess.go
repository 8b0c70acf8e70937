package generator

import (
	"regexp"
	"strings"

	"funnel_copy_generator/sections"
)

var fencedRe = regexp.MustCompile("(?s)^```(?:markdown|md)?[ \t]*\n(.*)\n```$")

// PostProcess 校验并清理单个分段的模型输出。
// Empty output is reported as transient so the part is retried.
func PostProcess(raw string, reg *sections.Registry) (string, error) {
	md := strings.TrimSpace(raw)
	if m := fencedRe.FindStringSubmatch(md); m != nil {
		md = strings.TrimSpace(m[1])
	}
	if reg != nil {
		md = strings.TrimSpace(reg.StripMarkers(md))
	}
	if md == "" {
		return "", &TransientProviderError{Provider: "postprocess", Message: "model returned empty markdown"}
	}
	return md, nil
}

var titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
