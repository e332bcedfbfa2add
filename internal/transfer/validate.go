package transfer

import (
	"fmt"
	"strings"

	"ferry/internal/config"
	"ferry/internal/objectstore"
)

// Policy is the acceptance policy applied before any network activity.
// A file that fails policy is rejected synchronously and no record is created.
type Policy struct {
	AllowedTypes []string
	MaxSizeBytes int64
}

// PolicyFromConfig builds the policy from configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		AllowedTypes: append([]string(nil), cfg.Policy.AllowedTypes...),
		MaxSizeBytes: cfg.Policy.MaxSizeMiB << 20,
	}
}

// Validate checks a candidate file against the policy. Failures are tagged
// with the validation marker and are never retried.
func (p Policy) Validate(fileName, mimeType string, sizeBytes int64) error {
	if strings.TrimSpace(fileName) == "" {
		return objectstore.Wrap(objectstore.ErrValidation, "validate upload", "file name is empty", nil)
	}
	if sizeBytes < 0 {
		return objectstore.Wrap(objectstore.ErrValidation, "validate upload", "file size is negative", nil)
	}
	if p.MaxSizeBytes > 0 && sizeBytes > p.MaxSizeBytes {
		return objectstore.Wrap(objectstore.ErrValidation, "validate upload",
			fmt.Sprintf("file size %d exceeds limit %d", sizeBytes, p.MaxSizeBytes), nil)
	}
	if !p.typeAllowed(mimeType) {
		return objectstore.Wrap(objectstore.ErrValidation, "validate upload",
			fmt.Sprintf("type %q is not permitted", mimeType), nil)
	}
	return nil
}

func (p Policy) typeAllowed(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return false
	}
	for _, allowed := range p.AllowedTypes {
		if allowed == mimeType {
			return true
		}
		// "image/*" style wildcards.
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok && strings.HasPrefix(mimeType, prefix+"/") {
			return true
		}
	}
	return false
}
