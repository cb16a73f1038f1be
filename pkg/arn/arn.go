package arn

import (
	"strings"

	awsarn "github.com/aws/aws-sdk-go-v2/aws/arn"
)

// Field positions in a colon-delimited ARN.
const (
	fieldRegion   = 3
	fieldAccount  = 4
	fieldResource = 5
)

// prefixRepairs maps known malformed prefixes to their correct form.
// Some inventory exporters emit "garn:" instead of "arn:".
var prefixRepairs = []struct {
	from string
	to   string
}{
	{from: "garn:", to: "arn:"},
}

// Canonicalize turns a raw resource identifier into a node key.
// It lower-cases the input and repairs known malformed prefixes.
// Inputs that are not ARN-shaped are returned lower-cased and otherwise untouched.
func Canonicalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, r := range prefixRepairs {
		if strings.HasPrefix(key, r.from) {
			key = r.to + strings.TrimPrefix(key, r.from)
			break
		}
	}
	return key
}

// IsARN reports whether key looks like a well-formed ARN.
func IsARN(key string) bool {
	return awsarn.IsARN(key)
}

// AccountRegion extracts the account and region fields from an ARN-shaped key.
// ok is false when the key has fewer than five colon-delimited fields.
func AccountRegion(key string) (account, region string, ok bool) {
	parts := strings.Split(key, ":")
	if len(parts) <= fieldAccount {
		return "", "", false
	}
	return parts[fieldAccount], parts[fieldRegion], true
}

// ResourceType extracts the resource type segment (e.g. "vpc", "transit-gateway").
// ok is false when the key has fewer than six colon-delimited fields.
func ResourceType(key string) (string, bool) {
	parts := strings.Split(key, ":")
	if len(parts) <= fieldResource {
		return "", false
	}
	resource := parts[fieldResource]
	if i := strings.Index(resource, "/"); i >= 0 {
		resource = resource[:i]
	}
	return resource, true
}

// Reconstruct builds a synthetic ARN for a resource that is only referenced
// by bare ID, e.g. the VPN gateway behind a Direct Connect virtual interface.
func Reconstruct(service, account, region, resourceType, resourceID string) string {
	a := awsarn.ARN{
		Partition: "aws",
		Service:   service,
		Region:    region,
		AccountID: account,
		Resource:  resourceType + "/" + resourceID,
	}
	return Canonicalize(a.String())
}
