package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// ExtractOutputURLs pulls the downloadable output URLs out of a provider
// payload. When expr is set it is evaluated as a JMESPath expression against
// the payload and its result scanned; otherwise the whole payload is walked.
// Providers return outputs as a bare string, a list of strings, or nested
// structures, so the scan recurses and keeps every http(s) string it finds,
// deduplicated in first-seen order.
func ExtractOutputURLs(payload json.RawMessage, expr string) ([]string, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode output payload: %w", err)
	}

	if expr != "" {
		result, err := jmespath.Search(expr, decoded)
		if err != nil {
			return nil, fmt.Errorf("evaluate output expression %q: %w", expr, err)
		}
		decoded = result
	}

	var urls []string
	seen := map[string]struct{}{}
	collectURLs(decoded, seen, &urls)
	return urls, nil
}

func collectURLs(value any, seen map[string]struct{}, out *[]string) {
	switch v := value.(type) {
	case string:
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		*out = append(*out, v)
	case []any:
		for _, item := range v {
			collectURLs(item, seen, out)
		}
	case map[string]any:
		// Iterate keys in sorted order so extraction stays deterministic.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectURLs(v[k], seen, out)
		}
	}
}
