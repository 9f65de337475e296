package raster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/drummonds/tex2img/texerror"
)

const (
	DefaultDPI         = 200
	DefaultFormat      = "png"
	DefaultJPEGQuality = 95
)

// Options configures a Converter. Zero values are replaced by the defaults.
type Options struct {
	DPI int
	// Pages defaults to the first page
	Pages PageSelection
	// Format is an image file extension: png, jpg/jpeg, gif, tif/tiff or bmp
	Format      string
	JPEGQuality int
}

func (o Options) withDefaults() Options {
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.JPEGQuality == 0 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	return o
}

func (o Options) validate() error {
	if o.DPI <= 0 {
		return texerror.Invalid(opConvert, "dpi must be positive, got %d", o.DPI)
	}
	if _, err := imaging.FormatFromExtension(o.Format); err != nil {
		return texerror.Invalid(opConvert, "image format %q: %w", o.Format, err)
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return texerror.Invalid(opConvert, "jpeg quality must be between 1 and 100, got %d", o.JPEGQuality)
	}
	return o.Pages.validate()
}

type selectionMode int

const (
	selectFirst selectionMode = iota
	selectAll
	selectList
)

// MaxListedPages bounds how many pages an explicit list may name, ranges included
const MaxListedPages = 10000

// pageRange is an inclusive span of 1-based pages, a single page has first == last
type pageRange struct {
	first, last int
}

func (r pageRange) span() int {
	return r.last - r.first + 1
}

// PageSelection picks which pages to rasterize. The zero value selects the first page.
type PageSelection struct {
	mode   selectionMode
	ranges []pageRange
}

// FirstPage selects page 1 only
func FirstPage() PageSelection {
	return PageSelection{mode: selectFirst}
}

// AllPages selects every page in document order
func AllPages() PageSelection {
	return PageSelection{mode: selectAll}
}

// PageList selects explicit 1-based pages, in the order given
func PageList(pages ...int) PageSelection {
	ranges := make([]pageRange, len(pages))
	for i, page := range pages {
		ranges[i] = pageRange{first: page, last: page}
	}
	return PageSelection{mode: selectList, ranges: ranges}
}

// ParsePages accepts "first", "all", or a comma separated list of pages and
// ranges such as "1,3,5-7". Ranges stay unexpanded until the document is known.
func ParsePages(s string) (PageSelection, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "first":
		return FirstPage(), nil
	case "all":
		return AllPages(), nil
	}

	var ranges []pageRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if from, to, isRange := strings.Cut(part, "-"); isRange {
			start, err1 := strconv.Atoi(strings.TrimSpace(from))
			end, err2 := strconv.Atoi(strings.TrimSpace(to))
			if err1 != nil || err2 != nil || start > end {
				return PageSelection{}, texerror.Invalid(opConvert, "bad page range %q", part)
			}
			ranges = append(ranges, pageRange{first: start, last: end})
			continue
		}
		page, err := strconv.Atoi(part)
		if err != nil {
			return PageSelection{}, texerror.Invalid(opConvert, "bad page %q", part)
		}
		ranges = append(ranges, pageRange{first: page, last: page})
	}

	selection := PageSelection{mode: selectList, ranges: ranges}
	if err := selection.validate(); err != nil {
		return PageSelection{}, err
	}
	return selection, nil
}

func (s PageSelection) String() string {
	switch s.mode {
	case selectAll:
		return "all"
	case selectList:
		parts := make([]string, len(s.ranges))
		for i, r := range s.ranges {
			if r.first == r.last {
				parts[i] = strconv.Itoa(r.first)
			} else {
				parts[i] = strconv.Itoa(r.first) + "-" + strconv.Itoa(r.last)
			}
		}
		return strings.Join(parts, ",")
	default:
		return "first"
	}
}

// Pages returns the explicit page list with ranges expanded, nil for "first" and "all"
func (s PageSelection) Pages() []int {
	if s.mode != selectList {
		return nil
	}
	return s.expand()
}

func (s PageSelection) expand() []int {
	var pages []int
	for _, r := range s.ranges {
		for page := r.first; page <= r.last; page++ {
			pages = append(pages, page)
		}
	}
	return pages
}

func (s PageSelection) validate() error {
	if s.mode != selectList {
		return nil
	}
	if len(s.ranges) == 0 {
		return texerror.Invalid(opConvert, "page list is empty")
	}
	total := 0
	for _, r := range s.ranges {
		if r.first < 1 {
			return texerror.Invalid(opConvert, "pages are numbered from 1, got %d", r.first)
		}
		if r.last < r.first {
			return texerror.Invalid(opConvert, "bad page range %d-%d", r.first, r.last)
		}
		if r.span() > MaxListedPages-total {
			return texerror.Invalid(opConvert, "page list names more than %d pages", MaxListedPages)
		}
		total += r.span()
	}
	return nil
}

// single reports whether the selection asks for exactly one image
func (s PageSelection) single() bool {
	if s.mode == selectFirst {
		return true
	}
	return s.mode == selectList && len(s.ranges) == 1 && s.ranges[0].span() == 1
}

// resolve turns the selection into concrete 1-based pages for a document of numPages
func (s PageSelection) resolve(numPages int) ([]int, error) {
	switch s.mode {
	case selectAll:
		if numPages < 1 {
			return nil, texerror.Invalid(opConvert, "document has no pages: %w", texerror.ErrPageOutOfRange)
		}
		pages := make([]int, numPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	case selectList:
		for _, r := range s.ranges {
			if r.last > numPages {
				return nil, texerror.Invalid(opConvert, "page %d of %d: %w", r.last, numPages, texerror.ErrPageOutOfRange)
			}
		}
		return s.expand(), nil
	default:
		if numPages < 1 {
			return nil, texerror.Invalid(opConvert, "document has no pages: %w", texerror.ErrPageOutOfRange)
		}
		return []int{1}, nil
	}
}

var mimeTypes = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
	imaging.TIFF: "image/tiff",
	imaging.BMP:  "image/bmp",
}

func parseFormat(name string) (imaging.Format, string, error) {
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return 0, "", texerror.Invalid(opConvert, "image format %q: %w", name, err)
	}
	return format, mimeTypes[format], nil
}

// describe is used in log lines
func (o Options) describe() string {
	return fmt.Sprintf("dpi=%d pages=%s format=%s", o.DPI, o.Pages, o.Format)
}
