package content

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// ComputeFingerprint hashes the metadata and body of a document. The stored
// fingerprint field itself is excluded so that a document carrying its own
// fingerprint hashes to the same value.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		serialized, err := frontmatter.SerializeYAML(forHash)
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}
