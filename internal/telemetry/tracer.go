package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for device operations.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Host I/O attributes
	// ========================================================================
	AttrOperation  = "ssd.operation"     // read, write, format
	AttrOffset     = "ssd.offset"        // Host byte offset
	AttrLength     = "ssd.length"        // Host byte length
	AttrSize       = "ssd.size"          // Logical size
	AttrBytesRead  = "ssd.bytes_read"    // Bytes returned to the host
	AttrBytesWrite = "ssd.bytes_written" // Bytes accepted from the host

	// ========================================================================
	// FTL attributes
	// ========================================================================
	AttrLBA        = "ftl.lba"
	AttrBlock      = "ftl.block"
	AttrPage       = "ftl.page"
	AttrVictim     = "ftl.gc.victim"
	AttrMigrated   = "ftl.gc.migrated"
	AttrFreeBlocks = "ftl.free_blocks"

	// ========================================================================
	// Media attributes
	// ========================================================================
	AttrBackend = "nand.backend"
	AttrBucket  = "storage.bucket"
)

// Span names for FTL operations.
const (
	SpanRead   = "ftl.Read"
	SpanWrite  = "ftl.Write"
	SpanFormat = "ftl.Format"
	SpanGC     = "ftl.GC"
)

// ClientIP returns an attribute for client IP
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for client address (ip:port)
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Operation returns an attribute for the device operation
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Offset returns an attribute for a host byte offset
func Offset(offset uint64) attribute.KeyValue {
	return attribute.Int64(AttrOffset, int64(offset))
}

// Length returns an attribute for a host byte length
func Length(n int) attribute.KeyValue {
	return attribute.Int(AttrLength, n)
}

// Size returns an attribute for the logical size
func Size(size uint64) attribute.KeyValue {
	return attribute.Int64(AttrSize, int64(size))
}

// BytesRead returns an attribute for bytes read
func BytesRead(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesRead, n)
}

// BytesWritten returns an attribute for bytes written
func BytesWritten(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesWrite, n)
}

// LBA returns an attribute for a logical page address
func LBA(lba uint32) attribute.KeyValue {
	return attribute.Int64(AttrLBA, int64(lba))
}

// Block returns an attribute for an erase block id
func Block(block uint32) attribute.KeyValue {
	return attribute.Int64(AttrBlock, int64(block))
}

// Page returns an attribute for a page index
func Page(page uint32) attribute.KeyValue {
	return attribute.Int64(AttrPage, int64(page))
}

// Victim returns an attribute for the GC victim block
func Victim(block uint32) attribute.KeyValue {
	return attribute.Int64(AttrVictim, int64(block))
}

// Migrated returns an attribute for pages migrated by GC
func Migrated(n int) attribute.KeyValue {
	return attribute.Int(AttrMigrated, n)
}

// FreeBlocks returns an attribute for the free block count
func FreeBlocks(n int) attribute.KeyValue {
	return attribute.Int(AttrFreeBlocks, n)
}

// Backend returns an attribute for the media backend type
func Backend(name string) attribute.KeyValue {
	return attribute.String(AttrBackend, name)
}

// Bucket returns an attribute for storage bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StartFTLSpan starts a span for a host-facing FTL operation.
// The span name is the operation span name (e.g. SpanWrite).
func StartFTLSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// StartMediaSpan starts a span for a NAND backend call.
func StartMediaSpan(ctx context.Context, operation string, block uint32, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, Block(block))
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, fmt.Sprintf("nand.%s", operation), trace.WithAttributes(allAttrs...))
}
