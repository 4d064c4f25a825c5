package allocator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"rangedesk-backend/lib/scrapers/smsportal"
	"rangedesk-backend/lib/telemetry"
	"rangedesk-backend/lib/testutil"
	"rangedesk-backend/services/allocator/db"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakePortal mimics the portal's index.php dispatch well enough for the
// workflow: login, client picker page, open-client and allocate posts.
type fakePortal struct {
	mu          sync.Mutex
	requests    int
	loginCalls  int
	openCalls   int
	submitCalls []url.Values

	loginStatus  int
	submitStatus int
	submitBody   string
	clientsHtml  string
	rangesHtml   string
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		loginStatus:  http.StatusOK,
		submitStatus: http.StatusOK,
		submitBody:   "<html>allocated</html>",
		clientsHtml: `<select name="selidd">
			<option value="42">Acme Telco</option>
			<option value="42">Acme Telco</option>
			<option value="7">Beta Communications</option>
		</select>`,
		rangesHtml: `<table>
			<tr><td>RANGE</td><td>ALL</td><td>FREE</td><td>ALLOC</td></tr>
			<tr><td>R1-100</td><td>500</td><td>300</td><td>200</td>
				<td><input type="hidden" name="selrng" value="tok1"/></td></tr>
		</table>`,
	}
}

func (p *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++

	query := r.URL.Query()
	switch {
	case query.Get("login") == "1":
		p.loginCalls++
		if p.loginStatus != http.StatusOK {
			w.WriteHeader(p.loginStatus)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "fresh"})
		w.Write([]byte("<html>welcome</html>"))

	case query.Get("opt") == "shw_all_v2":
		if r.Method == http.MethodGet {
			w.Write([]byte(p.clientsHtml))
			return
		}
		r.ParseForm()
		if r.PostForm.Get("allocate") == "1" {
			p.submitCalls = append(p.submitCalls, r.PostForm)
			w.WriteHeader(p.submitStatus)
			w.Write([]byte(p.submitBody))
			return
		}
		if r.PostForm.Get("selected2") == "1" {
			p.openCalls++
			w.Write([]byte(p.rangesHtml))
			return
		}
		w.WriteHeader(http.StatusBadRequest)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *fakePortal) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

func (p *fakePortal) submitCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.submitCalls)
}

func newTestService(t *testing.T, baseUrl string) Service {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "allocator",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	t.Cleanup(func() { res.DB.Close() })

	return NewService(Config{
		BaseUrl:   baseUrl,
		UserAgent: "test-agent",
		Credentials: smsportal.Credentials{
			Username: "operator",
			Password: "secret",
		},
	}, res.DB)
}

func TestListClients(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:allocator")
	defer cleanup()

	portal := newFakePortal()
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	clients, err := service.ListClients(ctx)
	require.NoError(t, err)
	require.Equal(t, []smsportal.ClientRecord{
		{Name: "Acme Telco", ExternalId: "42"},
		{Name: "Beta Communications", ExternalId: "7"},
	}, clients)
	require.Equal(t, 1, portal.loginCalls)
}

func TestListClientsLoginFailure(t *testing.T) {
	portal := newFakePortal()
	portal.loginStatus = http.StatusUnauthorized
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)
	_, err := service.ListClients(context.Background())
	require.Error(t, err)
	require.Equal(t, KindAuth, KindOf(err))
}

func TestListRanges(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)
	ranges, err := service.ListRanges(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	require.Equal(t, "R1-100", ranges[0].Label)
	require.Equal(t, "tok1", ranges[0].AllocationToken)
	require.True(t, ranges[0].IsAllocatable)
	require.Equal(t, 1, portal.openCalls)
}

func TestListRangesTransportFailure(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal)

	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "allocator",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	t.Cleanup(func() { res.DB.Close() })

	// cookie injection logs in without the network, so the dead
	// upstream is first observed by the open-client request
	service := NewService(Config{
		BaseUrl:     server.URL,
		UserAgent:   "test-agent",
		Credentials: smsportal.Credentials{SessionCookie: "stale"},
	}, res.DB)
	server.Close()

	_, err := service.ListRanges(context.Background(), "42")
	require.Error(t, err)
	require.Equal(t, KindTransport, KindOf(err))
}

func TestAllocateRejectsInvalidQuantity(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)

	for _, quantity := range []int{0, -5} {
		_, err := service.Allocate(context.Background(), "42", "tok1", quantity)
		require.Error(t, err)
		require.Equal(t, KindValidation, KindOf(err))
	}
	// local validation failures must never reach the network
	require.Equal(t, 0, portal.requestCount())

	history, err := service.RecentHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestAllocateSuccess(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)
	ctx := context.Background()

	attempt, err := service.Allocate(ctx, "42", "tok1", 25)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, attempt.Outcome)
	require.NotZero(t, attempt.Id)
	require.Equal(t, "42", attempt.ClientExternalId)
	require.Equal(t, "tok1", attempt.RangeToken)
	require.Equal(t, 25, attempt.Quantity)

	require.Equal(t, 1, portal.submitCount())
	require.Equal(t, "25", portal.submitCalls[0].Get("quantity"))

	history, err := service.RecentHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, attempt.Id, history[0].Id)
	require.Equal(t, OutcomeSuccess, history[0].Outcome)
}

func TestAllocateUpstreamFailure(t *testing.T) {
	portal := newFakePortal()
	portal.submitStatus = http.StatusInternalServerError
	portal.submitBody = strings.Repeat("x", 5000)
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)
	attempt, err := service.Allocate(context.Background(), "42", "tok1", 10)
	require.NoError(t, err)
	require.Equal(t, "http_500", attempt.Outcome)
	require.Len(t, attempt.ResponseExcerpt, responseExcerptLimit)

	history, err := service.RecentHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "http_500", history[0].Outcome)
	require.Len(t, history[0].ResponseExcerpt, responseExcerptLimit)
}

func TestAllocateLoginFailureIsRecorded(t *testing.T) {
	portal := newFakePortal()
	portal.loginStatus = http.StatusUnauthorized
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)
	attempt, err := service.Allocate(context.Background(), "42", "tok1", 10)
	require.NoError(t, err)
	require.Equal(t, OutcomeError, attempt.Outcome)
	require.NotEmpty(t, attempt.ResponseExcerpt)

	history, err := service.RecentHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestAllocateTransportFailureIsRecorded(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal)
	service := newTestService(t, server.URL)
	// kill the upstream before the attempt
	server.Close()

	attempt, err := service.Allocate(context.Background(), "42", "tok1", 10)
	require.NoError(t, err)
	require.Equal(t, OutcomeError, attempt.Outcome)
	require.NotEmpty(t, attempt.ResponseExcerpt)

	history, err := service.RecentHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, OutcomeError, history[0].Outcome)
}

func TestRecentHistoryOrderAndLimit(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal)
	defer server.Close()

	service := newTestService(t, server.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Allocate(ctx, "42", "tok1", i+1)
		require.NoError(t, err)
	}

	history, err := service.RecentHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// newest first
	require.Equal(t, 3, history[0].Quantity)
	require.Equal(t, 2, history[1].Quantity)
}
