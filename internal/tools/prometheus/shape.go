package prometheus

import (
	"regexp"
	"strings"

	"github.com/promgate/promgate/internal/server"
)

// PaginationMetadata describes the slice a paginated response carries.
// Limit stays nil when no limit was requested so the caller can tell the
// two cases apart.
type PaginationMetadata struct {
	Total    int  `json:"total"`
	Offset   int  `json:"offset"`
	Limit    *int `json:"limit"`
	Returned int  `json:"returned"`
	HasMore  bool `json:"hasMore"`
}

// paginate slices items to [offset, offset+limit), clamped to the sequence
// bounds. A nil limit means "from offset to the end", in which case
// hasMore is always false: without a limit there is no boundary to look
// past. Out-of-range offsets yield an empty slice, never an error.
func paginate(items []interface{}, limit, offset *int) ([]interface{}, PaginationMetadata) {
	total := len(items)

	requested := 0
	if offset != nil && *offset > 0 {
		requested = *offset
	}

	start := requested
	if start > total {
		start = total
	}

	var data []interface{}
	hasMore := false

	if limit != nil {
		hasMore = requested+*limit < total
		end := start + *limit
		if end > total {
			end = total
		}
		if end < start {
			end = start
		}
		data = items[start:end]
	} else {
		data = items[start:]
	}

	return data, PaginationMetadata{
		Total:    total,
		Offset:   requested,
		Limit:    limit,
		Returned: len(data),
		HasMore:  hasMore,
	}
}

// filterMetricNames filters names by prefix, then by regex pattern; the
// two are intersected. The pattern uses search semantics (a match anywhere
// in the name). An invalid pattern never aborts the call: it is logged and
// the prefix-filtered set is returned unchanged.
func filterMetricNames(names []string, prefix, pattern string, logger server.Logger) []string {
	filtered := names

	if prefix != "" {
		kept := make([]string, 0, len(filtered))
		for _, name := range filtered {
			if strings.HasPrefix(name, prefix) {
				kept = append(kept, name)
			}
		}
		filtered = kept
	}

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			logger.Warn("Invalid regex pattern, skipping pattern filter", "pattern", pattern, "error", err)
			return filtered
		}
		kept := make([]string, 0, len(filtered))
		for _, name := range filtered {
			if re.MatchString(name) {
				kept = append(kept, name)
			}
		}
		filtered = kept
	}

	return filtered
}

// CompactSample is the reduced representation of one vector sample.
type CompactSample struct {
	Name      string            `json:"name"`
	Value     interface{}       `json:"value"`
	Timestamp interface{}       `json:"timestamp"`
	Labels    map[string]string `json:"labels"`
}

// compactQueryResult reshapes a vector result into compact samples to cut
// payload size. Non-vector results pass through untouched. A sample whose
// metric carries no __name__ label gets the literal name "unknown".
func compactQueryResult(result *QueryResult) *QueryResult {
	if result.ResultType != "vector" {
		return result
	}

	samples, ok := result.Result.([]interface{})
	if !ok {
		return result
	}

	compact := make([]interface{}, 0, len(samples))
	for _, item := range samples {
		sample, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		metric, _ := sample["metric"].(map[string]interface{})
		value, _ := sample["value"].([]interface{})

		cs := CompactSample{
			Name:   "unknown",
			Labels: make(map[string]string),
		}
		for k, v := range metric {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if k == "__name__" {
				cs.Name = s
				continue
			}
			cs.Labels[k] = s
		}
		if len(value) == 2 {
			cs.Timestamp = value[0]
			cs.Value = value[1]
		}

		compact = append(compact, cs)
	}

	return &QueryResult{
		ResultType: "compact_vector",
		Result:     compact,
	}
}
