package evidence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Mindburn-Labs/replayspine/pkg/canonicalize"
)

// WireFiles is the three-file on-wire rendering of an EvidencePack
// (§6.5): pretty-printed manifest.json and case.json, plus one
// canonical JSON event per line in events.jsonl with no trailing
// newline.
type WireFiles struct {
	ManifestJSON []byte
	CaseJSON     []byte
	EventsJSONL  []byte
}

// EncodeWireFiles renders pack into its three on-wire files.
func EncodeWireFiles(pack EvidencePack) (WireFiles, error) {
	manifestJSON, err := json.MarshalIndent(pack.Manifest, "", "  ")
	if err != nil {
		return WireFiles{}, fmt.Errorf("evidence: marshal manifest: %w", err)
	}
	caseJSON, err := json.MarshalIndent(pack.Case, "", "  ")
	if err != nil {
		return WireFiles{}, fmt.Errorf("evidence: marshal case: %w", err)
	}

	var buf bytes.Buffer
	for i, ev := range pack.Events {
		if i > 0 {
			buf.WriteByte('\n')
		}
		line, err := canonicalize.JCS(ev)
		if err != nil {
			return WireFiles{}, fmt.Errorf("evidence: marshal event %d: %w", i, err)
		}
		buf.Write(line)
	}

	return WireFiles{ManifestJSON: manifestJSON, CaseJSON: caseJSON, EventsJSONL: buf.Bytes()}, nil
}
