package predictor

import (
	"encoding/json"
	"fmt"

	"github.com/frontera-freight/frontera/internal/common"
)

// extractLastJSONObject scans combined process output for the last
// syntactically valid top-level JSON object. Model tooling routinely prints
// warnings and progress lines before the result, so earlier text is ignored.
func extractLastJSONObject(output []byte) (json.RawMessage, error) {
	var (
		last     []byte
		start    = -1
		depth    int
		inString bool
		escaped  bool
	)

	for i, b := range output {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := output[start : i+1]
				if json.Valid(candidate) {
					last = candidate
				}
				start = -1
			}
		}
	}

	if last == nil {
		return nil, fmt.Errorf("no JSON object in process output (%d bytes): %w",
			len(output), common.ErrMalformedResult)
	}
	return json.RawMessage(last), nil
}
