package errors

import (
	"path"
	"strings"
	"time"
)

// SourceContext records the habitat and the kind of dataset source. Only the
// scheme and file extension are kept, DSN credentials and hosts never are.
func (eb *ErrorBuilder) SourceContext(habitat, source string) *ErrorBuilder {
	if habitat != "" {
		eb.Context("habitat", habitat)
	}
	if source != "" {
		eb.Context("source_type", sourceKind(source))
		eb.Context("file_extension", extensionOf(source))
	}
	return eb
}

// FileContext records whether the path was absolute, its extension and a
// coarse size bucket.
func (eb *ErrorBuilder) FileContext(filePath string, fileSize int64) *ErrorBuilder {
	if filePath != "" {
		pathKind := "relative-path"
		if strings.HasPrefix(filePath, "/") || strings.Contains(filePath, `:\`) {
			pathKind = "absolute-path"
		}
		eb.Context("file_type", pathKind)
		eb.Context("file_extension", extensionOf(filePath))
	}
	if fileSize > 0 {
		eb.Context("file_size_category", sizeBucket(fileSize))
	}
	return eb
}

// NetworkContext records the endpoint scheme and the timeout in effect.
func (eb *ErrorBuilder) NetworkContext(url string, timeout time.Duration) *ErrorBuilder {
	if url != "" {
		scheme := "other"
		if i := strings.Index(url, "://"); i > 0 {
			scheme = strings.ToLower(url[:i])
		}
		eb.Context("url_category", scheme+"-endpoint")
	}
	if timeout > 0 {
		eb.Context("timeout_seconds", timeout.Seconds())
	}
	return eb
}

// Timing records the operation name and how long it ran before failing.
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	eb.Context("operation", operation)
	eb.Context("duration_ms", duration.Milliseconds())
	return eb
}

var sourceSchemes = []string{"sqlite", "mysql", "https", "http", "sftp", "ftp", "file"}

// sourceKind reduces a dataset location to its scheme, "file" for bare paths.
func sourceKind(source string) string {
	lower := strings.ToLower(source)
	for _, scheme := range sourceSchemes {
		if strings.HasPrefix(lower, scheme+"://") {
			return scheme
		}
	}
	return "file"
}

func extensionOf(location string) string {
	if q := strings.IndexByte(location, '?'); q >= 0 {
		location = location[:q]
	}
	base := path.Base(strings.ReplaceAll(location, `\`, "/"))
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || dot == len(base)-1 {
		return "none"
	}
	return strings.ToLower(base[dot+1:])
}

func sizeBucket(size int64) string {
	const mb = 1 << 20
	switch {
	case size < 1<<10:
		return "tiny"
	case size < mb:
		return "small"
	case size < 10*mb:
		return "medium"
	case size < 100*mb:
		return "large"
	default:
		return "very-large"
	}
}
