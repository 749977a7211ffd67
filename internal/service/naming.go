package service

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/terabiome/skyvllm/internal/deployment"
)

const (
	clusterNamePrefix = "vllm"
	maxClusterName    = 63
	maxModelSlug      = 40
)

var clusterNamePattern = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])?$`)

func validateClusterName(name string) error {
	if len(name) > maxClusterName {
		return &deployment.ValidationError{Field: "cluster_name", Reason: "must be at most 63 characters"}
	}
	if !clusterNamePattern.MatchString(name) {
		return &deployment.ValidationError{
			Field:  "cluster_name",
			Reason: "must start with a letter and contain only lowercase letters, digits and '-'",
		}
	}
	return nil
}

// newClusterName derives a name from the model and GPU plus a random
// suffix, e.g. vllm-gpt-neo-2-7b-v100-1f3a9c0e.
func newClusterName(d deployment.Descriptor, id uuid.UUID) string {
	parts := []string{clusterNamePrefix}
	if slug := modelSlug(d.ModelPath()); slug != "" {
		parts = append(parts, slug)
	}
	parts = append(parts, strings.ToLower(string(d.GPUType())), id.String()[:8])
	return strings.Join(parts, "-")
}

func modelSlug(modelPath string) string {
	base := modelPath
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := b.String()
	if len(slug) > maxModelSlug {
		slug = slug[:maxModelSlug]
	}
	return strings.Trim(slug, "-")
}
