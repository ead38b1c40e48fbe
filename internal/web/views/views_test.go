package views

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/tableview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablePage(t *testing.T) {
	info := core.TableInfo{Key: "users", Label: "Users", Columns: []string{"id", "name"}}
	result := &core.TableDataResult{
		Rows: []core.TableRow{
			{"id": int64(1), "name": "<script>alert(1)</script>"},
			{"id": int64(2), "name": "Joan"},
		},
		Total:      60,
		Page:       2,
		PageSize:   25,
		TotalPages: 3,
		Sort:       core.SortSpec{Column: "name", Dir: "asc"},
	}
	params, _ := url.ParseQuery("page=2&sortBy=name&sortDir=asc&filter_name=jo")

	var sb strings.Builder
	err := TablePage(info, []core.FieldType{core.FieldInt, core.FieldText}, result, params).Render(context.Background(), &sb)
	require.NoError(t, err)
	html := sb.String()

	assert.Contains(t, html, "60 rows, page 2 of 3")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "name ▲")
	assert.Contains(t, html, `href="/table/users?filter_name=jo&amp;sortBy=name&amp;sortDir=desc"`)
	assert.Contains(t, html, `rel="prev" href="/table/users?filter_name=jo&amp;page=1&amp;sortBy=name&amp;sortDir=asc"`)
	assert.Contains(t, html, `rel="next"`)
	assert.Contains(t, html, `href="/api/tables/users?export=csv&amp;filter_name=jo&amp;sortBy=name&amp;sortDir=asc"`)
}

func TestTablePage_Empty(t *testing.T) {
	info := core.TableInfo{Key: "users", Label: "Users", Columns: []string{"id", "name"}}

	var sb strings.Builder
	err := TablePage(info, nil, &core.TableDataResult{Page: 1}, url.Values{}).Render(context.Background(), &sb)
	require.NoError(t, err)

	assert.Contains(t, sb.String(), `colspan="2"`)
	assert.Contains(t, sb.String(), "page 1 of 1")
	assert.NotContains(t, sb.String(), `rel="next"`)
}

func TestLayoutAndList(t *testing.T) {
	body := TableList([]core.TableInfo{{Key: "orders", Group: "Sales", Label: "Orders"}})

	var sb strings.Builder
	require.NoError(t, Layout("Tables & more", body).Render(context.Background(), &sb))

	assert.Contains(t, sb.String(), "<title>Tables &amp; more</title>")
	assert.Contains(t, sb.String(), `<a href="/table/orders">Sales / Orders</a>`)
}

func TestErrorAlert(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, ErrorAlert("Table not found", "Verify the table name is correct", "TBL001").Render(context.Background(), &sb))

	assert.Contains(t, sb.String(), "<strong>Table not found</strong>")
	assert.Contains(t, sb.String(), "<code>TBL001</code>")
}
