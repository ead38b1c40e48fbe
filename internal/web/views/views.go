// Package views renders the server-side HTML table pages.
//
// Components are written against the templ runtime directly so they compose
// with any templ-generated component and render through the same
// templ.Component interface.
package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/tableview/internal/core"
	"github.com/a-h/templ"
)

// htmlWriter collects the first write error so components read top to bottom.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Layout wraps body in a minimal HTML document.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
		h.text(title)
		h.raw("</title></head><body>")
		h.render(ctx, body)
		h.raw("</body></html>")
		return h.err
	})
}

// TableList renders links to every registered table.
func TableList(tables []core.TableInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<h1>Tables</h1><ul class=\"tables\">")
		for _, t := range tables {
			h.raw("<li><a")
			h.attr("href", "/table/"+url.PathEscape(t.Key))
			h.raw(">")
			h.text(t.Group + " / " + t.Label)
			h.raw("</a></li>")
		}
		h.raw("</ul>")
		return h.err
	})
}

// TablePage renders one page of a table with sort links on the headers and
// previous/next links. params are the request's query parameters; links keep
// everything except the parameter they change.
func TablePage(info core.TableInfo, types []core.FieldType, result *core.TableDataResult, params url.Values) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		base := "/table/" + url.PathEscape(info.Key)

		h.raw("<h1>")
		h.text(info.Label)
		h.raw("</h1><p class=\"summary\">")
		h.text(fmt.Sprintf("%d rows, page %d of %d", result.Total, result.Page, max(result.TotalPages, 1)))
		h.raw("</p><table><thead><tr>")

		for _, col := range info.Columns {
			dir := "asc"
			label := col
			if result.Sort.Column == col {
				if result.Sort.Dir == "asc" {
					dir = "desc"
					label += " ▲"
				} else {
					label += " ▼"
				}
			}
			h.raw("<th><a")
			h.attr("href", link(base, params, map[string]string{
				core.ParamSortBy:  col,
				core.ParamSortDir: dir,
				core.ParamPage:    "",
			}))
			h.raw(">")
			h.text(label)
			h.raw("</a></th>")
		}
		h.raw("</tr></thead><tbody>")

		if len(result.Rows) == 0 {
			h.raw("<tr><td")
			h.attr("colspan", strconv.Itoa(len(info.Columns)))
			h.raw(">No rows match</td></tr>")
		}
		for _, row := range result.Rows {
			h.raw("<tr>")
			for i, col := range info.Columns {
				var t core.FieldType
				if i < len(types) {
					t = types[i]
				}
				h.raw("<td>")
				h.text(core.FormatCell(t, row[col]))
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table><nav class=\"pager\">")

		if result.Page > 1 {
			h.raw("<a rel=\"prev\"")
			h.attr("href", link(base, params, map[string]string{core.ParamPage: strconv.Itoa(result.Page - 1)}))
			h.raw(">Previous</a> ")
		}
		if result.Page < result.TotalPages {
			h.raw("<a rel=\"next\"")
			h.attr("href", link(base, params, map[string]string{core.ParamPage: strconv.Itoa(result.Page + 1)}))
			h.raw(">Next</a> ")
		}
		h.raw("<a")
		h.attr("href", link(info.Endpoint(), params, map[string]string{"export": "csv", core.ParamPage: ""}))
		h.raw(">Export CSV</a></nav>")

		return h.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<div class=\"error\" role=\"alert\"><strong>")
		h.text(message)
		h.raw("</strong>")
		if action != "" {
			h.raw(" <span>")
			h.text(action)
			h.raw("</span>")
		}
		h.raw(" <code>")
		h.text(code)
		h.raw("</code></div>")
		return h.err
	})
}

// link returns base with params overridden by set. Empty values in set remove
// the parameter.
func link(base string, params url.Values, set map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	for k, v := range set {
		if v == "" {
			q.Del(k)
			continue
		}
		q.Set(k, v)
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
