package logger

import (
	"log/slog"
	"strconv"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so device, GC and
// API logs can be correlated.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Host I/O
	// ========================================================================
	KeyOperation    = "operation"     // Device operation: read, write, format
	KeyOffset       = "offset"        // Byte offset of a host request
	KeyLength       = "length"        // Byte length of a host request
	KeyBytesRead    = "bytes_read"    // Bytes returned to the host
	KeyBytesWritten = "bytes_written" // Bytes accepted from the host
	KeySize         = "size"          // Logical device size in bytes

	// ========================================================================
	// Flash Translation
	// ========================================================================
	KeyLBA        = "lba"         // Logical page address
	KeyPCA        = "pca"         // Physical page address
	KeyBlock      = "block"       // Erase block id
	KeyPage       = "page"        // Page index within a block
	KeyVictim     = "victim"      // GC victim block
	KeyStaging    = "staging"     // GC staging block
	KeyMigrated   = "migrated"    // Pages migrated by GC
	KeyFreeBlocks = "free_blocks" // Free block count
	KeyWA         = "wa"          // Write amplification

	// ========================================================================
	// Media Backend
	// ========================================================================
	KeyBackend = "backend" // Backend type: memory, fs, mmap, badger, s3, sql
	KeyBucket  = "bucket"  // Cloud bucket name
	KeyPath    = "path"    // Filesystem path

	// ========================================================================
	// HTTP
	// ========================================================================
	KeyRequestID = "request_id" // HTTP request identifier
	KeyClientIP  = "client_ip"  // Client IP address
	KeyMethod    = "method"     // HTTP method
	KeyStatus    = "status"     // HTTP status code

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Host I/O
// ----------------------------------------------------------------------------

// Operation returns a slog.Attr for the device operation
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Offset returns a slog.Attr for a byte offset
func Offset(off uint64) slog.Attr {
	return slog.Uint64(KeyOffset, off)
}

// Length returns a slog.Attr for a byte length
func Length(n int) slog.Attr {
	return slog.Int(KeyLength, n)
}

// BytesRead returns a slog.Attr for bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// Size returns a slog.Attr for the logical size
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// ----------------------------------------------------------------------------
// Flash Translation
// ----------------------------------------------------------------------------

// LBA returns a slog.Attr for a logical page address
func LBA(lba uint32) slog.Attr {
	return slog.Uint64(KeyLBA, uint64(lba))
}

// PCA returns a slog.Attr for a physical page address, rendered as block:page
func PCA(block, page uint32) slog.Attr {
	return slog.String(KeyPCA, formatPCA(block, page))
}

// Block returns a slog.Attr for an erase block id
func Block(b uint32) slog.Attr {
	return slog.Uint64(KeyBlock, uint64(b))
}

// Page returns a slog.Attr for a page index
func Page(p uint32) slog.Attr {
	return slog.Uint64(KeyPage, uint64(p))
}

// Victim returns a slog.Attr for a GC victim block
func Victim(b uint32) slog.Attr {
	return slog.Uint64(KeyVictim, uint64(b))
}

// Staging returns a slog.Attr for the GC staging block
func Staging(b uint32) slog.Attr {
	return slog.Uint64(KeyStaging, uint64(b))
}

// Migrated returns a slog.Attr for migrated page count
func Migrated(n int) slog.Attr {
	return slog.Int(KeyMigrated, n)
}

// FreeBlocks returns a slog.Attr for the free block count
func FreeBlocks(n int) slog.Attr {
	return slog.Int(KeyFreeBlocks, n)
}

// WA returns a slog.Attr for write amplification
func WA(wa float64) slog.Attr {
	return slog.Float64(KeyWA, wa)
}

// ----------------------------------------------------------------------------
// Media Backend
// ----------------------------------------------------------------------------

// Backend returns a slog.Attr for the media backend type
func Backend(t string) slog.Attr {
	return slog.String(KeyBackend, t)
}

// Bucket returns a slog.Attr for cloud bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Path returns a slog.Attr for a filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// ----------------------------------------------------------------------------
// HTTP
// ----------------------------------------------------------------------------

// RequestID returns a slog.Attr for the HTTP request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Method returns a slog.Attr for the HTTP method
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Status returns a slog.Attr for the HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

func formatPCA(block, page uint32) string {
	return strconv.FormatUint(uint64(block), 10) + ":" + strconv.FormatUint(uint64(page), 10)
}
