package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/fleetdocs/backend/pkg/logger"
)

const (
	DefaultSplitThreshold   = 15
	DefaultMaxPagesPerChunk = 12
)

var ErrNoPages = errors.New("pdf has no pages")

type PageRange struct {
	Start int
	End   int
}

func (r PageRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func (r PageRange) Pages() int {
	return r.End - r.Start + 1
}

type Chunk struct {
	Index      int
	Pages      PageRange
	TotalPages int
	Data       []byte
}

// PageCounter is the fallback used when pdfcpu cannot parse a file.
type PageCounter func(data []byte) (int, error)

type Splitter struct {
	splitThreshold   int
	maxPagesPerChunk int
	conf             *model.Configuration
	fallback         PageCounter
}

type Option func(*Splitter)

func WithSplitThreshold(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.splitThreshold = n
		}
	}
}

func WithMaxPagesPerChunk(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxPagesPerChunk = n
		}
	}
}

func WithFallbackCounter(fn PageCounter) Option {
	return func(s *Splitter) {
		s.fallback = fn
	}
}

func NewSplitter(opts ...Option) *Splitter {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	s := &Splitter{
		splitThreshold:   DefaultSplitThreshold,
		maxPagesPerChunk: DefaultMaxPagesPerChunk,
		conf:             conf,
		fallback:         fitzPageCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Splitter) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), s.conf)
	if err == nil && n > 0 {
		return n, nil
	}

	if s.fallback == nil {
		if err == nil {
			err = ErrNoPages
		}
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}

	logger.Debug("pdfcpu page count failed, trying fallback", zap.Error(err))
	n, fbErr := s.fallback(data)
	if fbErr != nil {
		return 0, fmt.Errorf("failed to count pages: %w", errors.Join(err, fbErr))
	}
	if n <= 0 {
		return 0, ErrNoPages
	}
	return n, nil
}

// NeedsSplit is false when the page count cannot be read so the caller
// processes the file whole.
func (s *Splitter) NeedsSplit(data []byte) bool {
	n, err := s.PageCount(data)
	if err != nil {
		logger.Warn("Page count unavailable, processing as single unit", zap.Error(err))
		return false
	}
	return n > s.splitThreshold
}

func (s *Splitter) Split(data []byte) ([]Chunk, error) {
	total, err := s.PageCount(data)
	if err != nil {
		return nil, err
	}

	ranges := PageRanges(total, s.maxPagesPerChunk)
	chunks := make([]Chunk, 0, len(ranges))

	for i, r := range ranges {
		var buf bytes.Buffer
		if err := api.Trim(bytes.NewReader(data), &buf, []string{r.String()}, s.conf); err != nil {
			return nil, fmt.Errorf("failed to extract pages %s: %w", r, err)
		}
		chunks = append(chunks, Chunk{
			Index:      i,
			Pages:      r,
			TotalPages: total,
			Data:       buf.Bytes(),
		})
	}

	logger.Info("PDF split into chunks",
		zap.Int("total_pages", total),
		zap.Int("chunks", len(chunks)),
		zap.Int("max_pages_per_chunk", s.maxPagesPerChunk),
	)

	return chunks, nil
}

// PageRanges partitions pages 1..total into consecutive ranges of at most size pages.
func PageRanges(total, size int) []PageRange {
	if total <= 0 || size <= 0 {
		return nil
	}

	ranges := make([]PageRange, 0, (total+size-1)/size)
	for start := 1; start <= total; start += size {
		end := start + size - 1
		if end > total {
			end = total
		}
		ranges = append(ranges, PageRange{Start: start, End: end})
	}
	return ranges
}

func fitzPageCount(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("mupdf open: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
