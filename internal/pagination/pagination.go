// Package pagination slices computed result lists into pages and renders them
// either as a bare array or as a JSON-API style envelope.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Format selects the response contract.
type Format string

const (
	FormatJSON    Format = "json"
	FormatJSONAPI Format = "json-api"
)

// ParseFormat maps a request value onto a Format. Empty means FormatJSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatJSONAPI:
		return FormatJSONAPI, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Request parameter names. The legacy names are accepted as aliases and are
// dropped from generated links.
const (
	ParamOffset  = "page_offset"
	ParamLimit   = "page_limit"
	LegacyOffset = "startRecord"
	LegacyLimit  = "maxRecords"
)

// DefaultLimit is the page size used when page_limit is not supplied.
const DefaultLimit = 10

// Error status codes.
const (
	StatusNotInteger  = 901
	StatusBelowOne    = 902
	StatusOutOfBounds = 903
)

// Error describes one violated pagination rule.
type Error struct {
	Status int               `json:"status"`
	Source map[string]string `json:"source"`
	Title  string            `json:"title"`
	Detail string            `json:"detail"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

// Param returns the name of the offending parameter.
func (e Error) Param() string {
	for k := range e.Source {
		return k
	}
	return ""
}

// Request carries what pagination needs from the incoming request.
type Request struct {
	// BaseURL is scheme and host, e.g. "https://example.org".
	BaseURL string
	Path    string
	Query   url.Values
}

// RequestFromURL splits an absolute or path-only request URL.
func RequestFromURL(raw string) (Request, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Request{}, fmt.Errorf("parse request url: %w", err)
	}
	req := Request{Path: u.Path, Query: u.Query()}
	if u.Host != "" {
		req.BaseURL = u.Scheme + "://" + u.Host
	}
	return req, nil
}

// Links are the navigation links of a json-api response.
type Links struct {
	Self  string `json:"self"`
	First string `json:"first"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last"`
}

// PageMeta reports the page that was served. Offset and limit are the raw
// request values when they are in error, the resolved values otherwise.
type PageMeta struct {
	Offset         string `json:"page_offset"`
	Limit          string `json:"page_limit"`
	ActualPageSize int    `json:"actual_page_size"`
	TotalNumFound  int    `json:"total_num_found"`
}

// Meta wraps PageMeta the way json-api clients expect it.
type Meta struct {
	Page PageMeta `json:"page"`
}

// Page is a computed page of T.
type Page[T any] struct {
	Data   []T     `json:"data"`
	Meta   Meta    `json:"meta"`
	Links  Links   `json:"links"`
	Errors []Error `json:"errors,omitempty"`
}

// Build paginates results and returns the response body for format: the
// page's data slice for FormatJSON, the whole *Page for FormatJSONAPI.
// Validation problems never surface as a Go error; they empty the data and,
// for json-api, populate Errors.
func Build[T any](req Request, results []T, format Format) any {
	p := Paginate(req, results, format)
	if format == FormatJSONAPI {
		return p
	}
	return p.Data
}

// Paginate computes the page of results selected by req.
func Paginate[T any](req Request, results []T, format Format) *Page[T] {
	total := len(results)
	off := lookupInt(req.Query, ParamOffset, LegacyOffset)
	lim := lookupInt(req.Query, ParamLimit, LegacyLimit)

	var errs []Error
	offset, offsetBad := 1, false
	switch off.outcome {
	case notInteger:
		errs = append(errs, notIntegerError(off))
		offsetBad = true
	case parsed:
		switch {
		case off.value < 1:
			errs = append(errs, belowOneError(off))
			offsetBad = true
		case off.value != 1 && off.value > total:
			errs = append(errs, Error{
				Status: StatusOutOfBounds,
				Source: map[string]string{off.name: off.raw},
				Title:  "Page offset out of range",
				Detail: fmt.Sprintf("%s %s exceeds the total number of results (%d)", off.name, off.raw, total),
			})
			offsetBad = true
		default:
			offset = off.value
		}
	}

	limit, limitBad := DefaultLimit, false
	if format == FormatJSON && off.outcome == absent && lim.outcome == absent {
		limit = total
	}
	switch lim.outcome {
	case notInteger:
		errs = append(errs, notIntegerError(lim))
		limitBad = true
	case parsed:
		if lim.value < 1 {
			errs = append(errs, belowOneError(lim))
			limitBad = true
		} else {
			limit = lim.value
		}
	}

	p := &Page[T]{Data: []T{}, Errors: errs}
	if len(errs) == 0 {
		p.Data = slice(results, offset, limit)
	}

	meta := PageMeta{
		Offset:         strconv.Itoa(offset),
		Limit:          strconv.Itoa(limit),
		ActualPageSize: len(p.Data),
		TotalNumFound:  total,
	}
	if offsetBad {
		meta.Offset = off.raw
	}
	if limitBad {
		meta.Limit = lim.raw
	}
	p.Meta = Meta{Page: meta}

	p.Links = Links{
		Self:  req.link(meta.Offset, meta.Limit),
		First: req.link("1", strconv.Itoa(limit)),
		Last:  req.link(strconv.Itoa(lastOffset(total, limit)), strconv.Itoa(limit)),
	}
	if len(errs) == 0 {
		if offset != 1 {
			p.Links.Prev = req.link(strconv.Itoa(max(offset-limit, 1)), strconv.Itoa(limit))
		}
		if limit <= total-offset {
			p.Links.Next = req.link(strconv.Itoa(offset+limit), strconv.Itoa(limit))
		}
	}
	return p
}

// slice returns results[offset-1 : offset-1+limit], clamped to the list.
func slice[T any](results []T, offset, limit int) []T {
	start := offset - 1
	if start < 0 || start >= len(results) || limit < 1 {
		return []T{}
	}
	end := start + min(limit, len(results)-start)
	out := make([]T, end-start)
	copy(out, results[start:end])
	return out
}

// lastOffset is the greatest page boundary 1, 1+limit, 1+2*limit, ... that
// does not exceed total, and never less than 1.
func lastOffset(total, limit int) int {
	if total < 1 || limit < 1 {
		return 1
	}
	return ((total-1)/limit)*limit + 1
}

func (r Request) link(offset, limit string) string {
	q := url.Values{}
	for k, vs := range r.Query {
		if k == LegacyOffset || k == LegacyLimit {
			continue
		}
		q[k] = append([]string(nil), vs...)
	}
	q.Set(ParamOffset, offset)
	q.Set(ParamLimit, limit)
	return strings.TrimRight(r.BaseURL, "/") + r.Path + "?" + q.Encode()
}

func notIntegerError(p intParam) Error {
	return Error{
		Status: StatusNotInteger,
		Source: map[string]string{p.name: p.raw},
		Title:  "Invalid parameter value",
		Detail: fmt.Sprintf("%s must be an integer; got %q", p.name, p.raw),
	}
}

func belowOneError(p intParam) Error {
	return Error{
		Status: StatusBelowOne,
		Source: map[string]string{p.name: p.raw},
		Title:  "Parameter value too small",
		Detail: fmt.Sprintf("%s must be greater than or equal to 1; got %s", p.name, p.raw),
	}
}
