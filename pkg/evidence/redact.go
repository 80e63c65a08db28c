package evidence

import (
	"crypto/sha256"
	"encoding/hex"
)

const redactedMask = "***REDACTED***"

var actorKeyFields = map[string]bool{
	"actor": true, "wallet": true, "pubkey": true, "public_key": true,
}

// ApplyRedaction walks v (the decoded JSON tree of a case object or
// event) and applies policy, masking or removing leaves purely by key
// name — never by inspecting the value's shape, per §4.H rule 10.
func ApplyRedaction(v interface{}, policy RedactionPolicy) interface{} {
	remove := toSet(policy.RemoveFields)
	mask := toSet(policy.MaskFields)
	return redactValue(v, policy, remove, mask)
}

func redactValue(v interface{}, policy RedactionPolicy, remove, mask map[string]bool) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if remove[k] {
				continue
			}
			if mask[k] {
				out[k] = redactedMask
				continue
			}
			if k == "signature" && policy.HashSignatures {
				if s, ok := val.(string); ok {
					out[k] = hashString(s)
					continue
				}
			}
			if actorKeyFields[k] && policy.TruncateActorKeys > 0 {
				if s, ok := val.(string); ok {
					out[k] = truncate(s, policy.TruncateActorKeys)
					continue
				}
			}
			out[k] = redactValue(val, policy, remove, mask)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = redactValue(val, policy, remove, mask)
		}
		return out
	default:
		return v
	}
}

func toSet(fields []string) map[string]bool {
	s := make(map[string]bool, len(fields))
	for _, f := range fields {
		s[f] = true
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
