package pdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdocs/backend/internal/pdf/pdftest"
)

func TestPageRangesPartition(t *testing.T) {
	for total := 1; total <= 60; total++ {
		for size := 1; size <= 15; size++ {
			ranges := PageRanges(total, size)

			require.Len(t, ranges, (total+size-1)/size, "total=%d size=%d", total, size)

			next := 1
			for _, r := range ranges {
				assert.Equal(t, next, r.Start, "gap or overlap at total=%d size=%d", total, size)
				assert.LessOrEqual(t, r.Pages(), size)
				assert.GreaterOrEqual(t, r.End, r.Start)
				next = r.End + 1
			}
			assert.Equal(t, total+1, next)
		}
	}
}

func TestPageRangesEmpty(t *testing.T) {
	assert.Nil(t, PageRanges(0, 12))
	assert.Nil(t, PageRanges(10, 0))
}

func TestPageCount(t *testing.T) {
	s := NewSplitter(WithFallbackCounter(nil))

	n, err := s.PageCount(pdftest.Blank(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageCountFallsBack(t *testing.T) {
	called := false
	s := NewSplitter(WithFallbackCounter(func([]byte) (int, error) {
		called = true
		return 7, nil
	}))

	n, err := s.PageCount([]byte("%PDF-1.4 garbage"))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 7, n)
}

func TestNeedsSplit(t *testing.T) {
	s := NewSplitter(WithSplitThreshold(15), WithFallbackCounter(nil))

	assert.False(t, s.NeedsSplit(pdftest.Blank(15)))
	assert.True(t, s.NeedsSplit(pdftest.Blank(16)))
}

func TestNeedsSplitUnreadableIsSingleUnit(t *testing.T) {
	s := NewSplitter(WithFallbackCounter(func([]byte) (int, error) {
		return 0, errors.New("corrupt")
	}))

	assert.False(t, s.NeedsSplit([]byte("not a pdf at all")))
}

func TestSplitCoversAllPages(t *testing.T) {
	s := NewSplitter(WithMaxPagesPerChunk(12), WithFallbackCounter(nil))

	chunks, err := s.Split(pdftest.Blank(30))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	wantPages := []int{12, 12, 6}
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, 30, c.TotalPages)
		assert.True(t, IsPDF(c.Data))

		n, err := s.PageCount(c.Data)
		require.NoError(t, err)
		assert.Equal(t, wantPages[i], n)
	}
	assert.Equal(t, PageRange{Start: 25, End: 30}, chunks[2].Pages)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte{0xFF, 0xD8, 0xFF}))
}
