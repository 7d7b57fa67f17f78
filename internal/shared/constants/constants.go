package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultQueryTimeout bounds a single log-analytics query server-side.
	DefaultQueryTimeout = 300 * time.Second
	// DefaultHTTPTimeout bounds management-plane and reputation HTTP calls.
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultMaxParallel is the parallelism hint advertised to callers that
	// issue concurrent queries against one connected driver.
	DefaultMaxParallel = 4
	// DefaultDNSTimeout bounds a single DNS exchange.
	DefaultDNSTimeout = 10 * time.Second
)

const (
	// ToolkitVersion is the library version reported in the user agent.
	ToolkitVersion = "0.3.0"
	// UserAgent identifies toolkit HTTP traffic to external services.
	UserAgent = "huntkit/" + ToolkitVersion
)
