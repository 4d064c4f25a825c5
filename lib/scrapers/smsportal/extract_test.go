package smsportal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const rangesPage = `
<html><body>
<table>
  <tr><td>RANGE</td><td>ALL</td><td>FREE</td><td>ALLOCATED</td></tr>
  <tr>
    <td>R1-100</td><td>500</td><td>300</td><td>200</td>
    <td><input type="hidden" name="selrng" value="tok1"/></td>
  </tr>
  <tr>
    <td>R2-200</td><td>1,234</td><td>N/A</td><td>-</td>
    <td><form method="post"><input type="hidden" name="selrng" value="tok2"/></form></td>
  </tr>
  <tr>
    <td>R3-300</td><td>10</td><td>5</td><td>5</td>
  </tr>
  <tr><td>only</td><td>three</td><td>cells</td></tr>
  <tr><td>   </td><td>1</td><td>2</td><td>3</td></tr>
  <tr><td>s/n</td><td>1</td><td>2</td><td>3</td></tr>
</table>
</body></html>`

func TestExtractRanges(t *testing.T) {
	ranges, err := ExtractRanges(rangesPage)
	require.NoError(t, err)

	expected := []RangeRecord{
		{
			Label:           "R1-100",
			Total:           500,
			Free:            300,
			Allocated:       200,
			AllocationToken: "tok1",
			IsAllocatable:   true,
		},
		{
			Label:           "R2-200",
			Total:           1234,
			Free:            0,
			Allocated:       0,
			AllocationToken: "tok2",
			IsAllocatable:   true,
		},
		{
			Label:           "R3-300",
			Total:           10,
			Free:            5,
			Allocated:       5,
			AllocationToken: "",
			IsAllocatable:   false,
		},
	}
	if diff := cmp.Diff(expected, ranges); diff != "" {
		t.Fatalf("unexpected ranges (-want +got):\n%s", diff)
	}
}

func TestExtractRangesRowLevelTokenWins(t *testing.T) {
	page := `
<table><tr>
  <td>R9<input type="hidden" name="selrng" value="rowtok"/></td>
  <td>1</td><td>1</td><td>0</td>
  <td><form><input type="hidden" name="selrng" value="formtok"/></form></td>
</tr></table>`

	ranges, err := ExtractRanges(page)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	require.Equal(t, "rowtok", ranges[0].AllocationToken)
}

func TestExtractRangesEmptyPage(t *testing.T) {
	ranges, err := ExtractRanges("<html><body><p>session expired</p></body></html>")
	require.NoError(t, err)
	require.Empty(t, ranges)
}

const clientsPage = `
<html><body>
<select name="selidd">
  <option value="">-- select --</option>
  <option value="42">Acme Telco</option>
  <option value="42">Acme Telco (dup)</option>
  <option value="  7  ">Beta Communications</option>
  <option value="13">Gamma Mobile</option>
</select>
</body></html>`

func TestExtractClients(t *testing.T) {
	clients, err := ExtractClients(clientsPage)
	require.NoError(t, err)

	expected := []ClientRecord{
		{Name: "Acme Telco", ExternalId: "42"},
		{Name: "Beta Communications", ExternalId: "7"},
		{Name: "Gamma Mobile", ExternalId: "13"},
	}
	if diff := cmp.Diff(expected, clients); diff != "" {
		t.Fatalf("unexpected clients (-want +got):\n%s", diff)
	}
}

func TestExtractClientsNoPicker(t *testing.T) {
	clients, err := ExtractClients("<html><body></body></html>")
	require.NoError(t, err)
	require.Empty(t, clients)
}
