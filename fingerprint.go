package qpersist

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// FingerprintAlgorithm names the hash used for configuration fingerprints.
const FingerprintAlgorithm = "SHA-256"

// operational keys change how a run executes but never what it computes.
var operational = map[string]bool{
	"workers":           true,
	"progress_interval": true,
}

/*
Fingerprint returns a deterministic hash of every configuration value that can
influence a result. Two runs with equal fingerprints produce identical trials.
*/
func Fingerprint(cfg *Config) string {
	settings := cfg.Settings()

	keys := make([]string, 0, len(settings))
	for k := range settings {
		if !operational[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%v|", k, settings[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 8 characters of the fingerprint.
func ShortFingerprint(cfg *Config) string {
	return Fingerprint(cfg)[:8]
}
