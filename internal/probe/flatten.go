package probe

import (
	"encoding/json"
	"strconv"
)

// Flatten converts a probe report into a single-level key/value record.
//
// Container keys get the format_ prefix; each stream's keys get
// stream_<index>_<codec_type>_ where index is the stream's zero-based
// position and codec_type its declared type (or "unknown"). Nested
// objects recurse with underscore-joined key paths. A convenience key
// file_size_bytes mirrors the container's size field when present.
//
// The mapping is deterministic and lossless: every scalar leaf lands on
// exactly one key, and the stream index keeps same-typed streams from
// colliding.
func Flatten(r *Report) map[string]string {
	out := make(map[string]string)

	if r.Format != nil {
		flattenInto(out, "format", r.Format)
		if size, ok := r.Format["size"]; ok {
			out["file_size_bytes"] = scalar(size)
		}
	}

	for i, stream := range r.Streams {
		codecType, _ := stream["codec_type"].(string)
		if codecType == "" {
			codecType = "unknown"
		}
		flattenInto(out, "stream_"+strconv.Itoa(i)+"_"+codecType, stream)
	}

	return out
}

func flattenInto(out map[string]string, prefix string, obj map[string]any) {
	for k, v := range obj {
		key := prefix + "_" + k
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = scalar(v)
	}
}

// scalar renders a JSON leaf deterministically. Numbers keep the exact
// textual form the tool emitted; arrays are re-encoded as JSON.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
