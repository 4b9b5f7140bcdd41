package core

import (
	"fmt"
	"strings"
	"time"

	"bordercross/internal/cache"
)

// MonthParser turns a raw Date cell into its calendar month.
type MonthParser interface {
	ParseMonth(s string) (MonthKey, error)
}

// LayoutParser parses timestamps with ParseLayout and formats months with
// Layout. The default layout parses leniently: unpadded month, day and hour
// and a lower-case am/pm suffix are accepted.
type LayoutParser struct {
	Layout      string
	ParseLayout string
}

func NewLayoutParser(layout string) LayoutParser {
	if layout == "" {
		layout = DefaultLayout
	}
	parse := layout
	if layout == DefaultLayout {
		parse = LenientLayout
	}
	return LayoutParser{Layout: layout, ParseLayout: parse}
}

func (p LayoutParser) ParseMonth(s string) (MonthKey, error) {
	layout := p.ParseLayout
	if layout == "" {
		layout = p.Layout
	}
	if strings.Contains(layout, "PM") {
		s = upperMeridiem(s)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return NewMonthKey(t), nil
}

// upperMeridiem upper-cases a trailing am/pm so the "PM" layout element matches it.
func upperMeridiem(s string) string {
	n := len(s)
	if n < 2 {
		return s
	}
	if suffix := s[n-2:]; strings.EqualFold(suffix, "am") || strings.EqualFold(suffix, "pm") {
		return s[:n-2] + strings.ToUpper(suffix)
	}
	return s
}

// Format renders m as the first day of the month in the parser's layout.
func (p LayoutParser) Format(m MonthKey) string {
	return m.Time().Format(p.Layout)
}

// CachingParser memoizes successful parses. Input files repeat the same
// handful of timestamps across thousands of rows.
type CachingParser struct {
	next  MonthParser
	cache cache.Cache[MonthKey]
}

func NewCachingParser(next MonthParser, c cache.Cache[MonthKey]) *CachingParser {
	return &CachingParser{next: next, cache: c}
}

func (p *CachingParser) ParseMonth(s string) (MonthKey, error) {
	if m, ok := p.cache.Get(s); ok {
		return m, nil
	}
	m, err := p.next.ParseMonth(s)
	if err != nil {
		return MonthKey{}, err
	}
	p.cache.Set(s, m)
	return m, nil
}
