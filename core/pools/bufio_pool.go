package pools

import (
	"bufio"
	"io"
)

// Default buffer sizes
const (
	DefaultReaderSize = 4 * 1024
	DefaultWriterSize = 4 * 1024
)

// BufioPool hands out per-connection buffered readers and writers. Buffers
// are detached from their connection when returned.
type BufioPool struct {
	readers *SmartPool[*bufio.Reader]
	writers *SmartPool[*bufio.Writer]
}

// BufioConfig sizes the pooled buffers
type BufioConfig struct {
	ReaderSize int
	WriterSize int
	WarmupSize int
}

// NewBufioPool creates reader and writer pools
func NewBufioPool(cfg BufioConfig) *BufioPool {
	if cfg.ReaderSize <= 0 {
		cfg.ReaderSize = DefaultReaderSize
	}
	if cfg.WriterSize <= 0 {
		cfg.WriterSize = DefaultWriterSize
	}

	return &BufioPool{
		readers: NewSmartPool(SmartPoolConfig[*bufio.Reader]{
			New:        func() *bufio.Reader { return bufio.NewReaderSize(nil, cfg.ReaderSize) },
			Reset:      func(br *bufio.Reader) { br.Reset(nil) },
			WarmupSize: cfg.WarmupSize,
		}),
		writers: NewSmartPool(SmartPoolConfig[*bufio.Writer]{
			New:        func() *bufio.Writer { return bufio.NewWriterSize(nil, cfg.WriterSize) },
			Reset:      func(bw *bufio.Writer) { bw.Reset(nil) },
			WarmupSize: cfg.WarmupSize,
		}),
	}
}

// GetReader returns a reader bound to r
func (p *BufioPool) GetReader(r io.Reader) *bufio.Reader {
	br := p.readers.Get()
	br.Reset(r)
	return br
}

// PutReader releases br. Unread bytes are discarded.
func (p *BufioPool) PutReader(br *bufio.Reader) {
	if br != nil {
		p.readers.Put(br)
	}
}

// GetWriter returns a writer bound to w
func (p *BufioPool) GetWriter(w io.Writer) *bufio.Writer {
	bw := p.writers.Get()
	bw.Reset(w)
	return bw
}

// PutWriter releases bw. Unflushed bytes are discarded.
func (p *BufioPool) PutWriter(bw *bufio.Writer) {
	if bw != nil {
		p.writers.Put(bw)
	}
}

// Stats returns statistics for both pools
func (p *BufioPool) Stats() BufioStats {
	return BufioStats{
		Readers: p.readers.Stats(),
		Writers: p.writers.Stats(),
	}
}

// BufioStats contains reader and writer pool statistics
type BufioStats struct {
	Readers SmartPoolStats `json:"readers"`
	Writers SmartPoolStats `json:"writers"`
}
