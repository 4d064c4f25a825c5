package smsportal

import (
	"strings"

	"rangedesk-backend/lib/htmlutil"
	"rangedesk-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// ClientRecord is one entry of the portal's client picker. ExternalId is
// the upstream's opaque selector value and is the identity of the record;
// names are display-only and may repeat.
type ClientRecord struct {
	Name       string `json:"name"`
	ExternalId string `json:"external_id"`
}

// RangeRecord is one row of the portal's "all ranges" table.
// AllocationToken is the hidden form value the portal requires to
// allocate against the range; a row without one renders read-only.
type RangeRecord struct {
	Label           string `json:"label"`
	Total           int    `json:"total"`
	Free            int    `json:"free"`
	Allocated       int    `json:"allocated"`
	AllocationToken string `json:"allocation_token"`
	IsAllocatable   bool   `json:"is_allocatable"`
}

// ExtractClients scans the client picker for options with a non-empty
// value. Page order is preserved, duplicate external ids collapse to the
// first occurrence.
func ExtractClients(html string) ([]ClientRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []ClientRecord
	doc.Find("select[name=selidd] option").Each(func(_ int, opt *goquery.Selection) {
		value := strings.TrimSpace(opt.AttrOr("value", ""))
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		out = append(out, ClientRecord{
			Name:       htmlutil.CellText(opt),
			ExternalId: value,
		})
	})
	return out, nil
}

func isHeaderLabel(label string) bool {
	up := strings.ToUpper(strings.TrimSpace(label))
	return up == "RANGE" || up == "S/N"
}

// ExtractRanges scans every table row of the page. A row counts only if
// it has at least 4 cells and a non-empty first cell that isn't a header
// label; malformed rows are skipped, never an error. Numeric cells
// degrade to 0 on unparseable text.
func ExtractRanges(html string) ([]RangeRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var out []RangeRecord
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		label := htmlutil.CellText(cells.Eq(0))
		if label == "" || isHeaderLabel(label) {
			return
		}

		token := strings.TrimSpace(row.Find("input[name=selrng]").First().AttrOr("value", ""))
		if token == "" {
			// some revisions of the page nest the hidden input in a
			// per-row form instead
			form := row.Find("form").First()
			token = strings.TrimSpace(form.Find("input[name=selrng]").First().AttrOr("value", ""))
		}

		out = append(out, RangeRecord{
			Label:           label,
			Total:           textutil.NumericFromText(htmlutil.CellText(cells.Eq(1))),
			Free:            textutil.NumericFromText(htmlutil.CellText(cells.Eq(2))),
			Allocated:       textutil.NumericFromText(htmlutil.CellText(cells.Eq(3))),
			AllocationToken: token,
			IsAllocatable:   token != "",
		})
	})
	return out, nil
}
