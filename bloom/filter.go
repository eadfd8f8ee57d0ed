// Package bloom provides page-title deduplication using Bloom filters.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter for title deduplication across a crawl. A
// misbehaving server can re-yield titles at pagination chunk boundaries; the
// filter suppresses the repeats without holding every title in memory.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected titles
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds a title to the filter.
func (f *Filter) Add(title string) {
	f.f.AddString(title)
}

// Test returns true if the title might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(title string) bool {
	return f.f.TestString(title)
}

// EstimatedCount returns the approximate number of titles in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
