package objectclient

import (
	"fmt"
	"strings"
)

// ObjectURL builds the virtual-hosted–style URL for key.
func ObjectURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// SplitURL extracts the bucket and key from a typical virtual-hosted–style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
// Plain keys ("papers/a.pdf") come back with an empty bucket.
func SplitURL(u string) (bucket, key string) {
	if !strings.HasPrefix(u, "https://") {
		return "", strings.TrimPrefix(u, "/")
	}
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	if i := strings.Index(host, "."); i > 0 {
		bucket = host[:i]
	}
	return bucket, key
}
