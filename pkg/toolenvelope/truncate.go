package toolenvelope

import "encoding/json"

// truncate serialises resp.Sections; if it exceeds maxBytes, it drops
// the heaviest section (by serialized size) until the payload fits or
// only one section remains, marking resp.Truncated (§4.H rule 11).
func truncate(resp *Response, maxBytes int64) {
	if maxBytes <= 0 {
		return
	}

	size := serializedSize(resp.Sections)
	if size <= maxBytes {
		return
	}

	remaining := 0
	for _, v := range resp.Sections {
		if v != nil {
			remaining++
		}
	}
	for size > maxBytes && remaining > 1 {
		heaviest, heaviestSize := "", int64(-1)
		for k, v := range resp.Sections {
			if v == nil {
				continue
			}
			if s := serializedSize(v); s > heaviestSize {
				heaviest, heaviestSize = k, s
			}
		}
		if heaviest == "" {
			break
		}
		resp.Sections[heaviest] = nil
		remaining--
		size = serializedSize(resp.Sections)
	}

	resp.Truncated = true
	resp.TruncationReason = "output exceeded max_payload_bytes; heaviest sections dropped"
}

func serializedSize(v interface{}) int64 {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return int64(len(data))
}
