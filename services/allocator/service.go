// Package allocator orchestrates range allocation against the portal:
// read-only lookups, single and CSV-batched allocation attempts, and the
// audit trail of every attempt. One fresh portal session per logical
// operation; sessions are never reused across calls.
package allocator

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"rangedesk-backend/lib/scrapers/smsportal"
	"rangedesk-backend/lib/textutil"
	"rangedesk-backend/services/allocator/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/allocator")

// attempt outcomes; non-200 submissions become "http_<status>"
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeLoginFailed = "login_failed"
	OutcomeSkipped     = "skipped"
)

const responseExcerptLimit = 200

const defaultHistoryLimit = 200

type Config struct {
	BaseUrl          string                `json:"base_url"`
	UserAgent        string                `json:"user_agent"`
	CloudflareBypass bool                  `json:"cloudflare_bypass"`
	Credentials      smsportal.Credentials `json:"credentials"`
}

type Service struct {
	config Config
	db     *sql.DB
	qry    *db.Queries
}

func NewService(config Config, database *sql.DB) Service {
	return Service{
		config: config,
		db:     database,
		qry:    db.New(database),
	}
}

// Attempt is one recorded allocation attempt, successful or not.
type Attempt struct {
	Id               int64     `json:"id"`
	BatchId          string    `json:"batch_id,omitempty"`
	ClientExternalId string    `json:"client_external_id"`
	RangeToken       string    `json:"range_token"`
	Quantity         int       `json:"quantity"`
	Outcome          string    `json:"outcome"`
	ResponseExcerpt  string    `json:"response_excerpt"`
	CreatedAt        time.Time `json:"created_at"`
}

func (s Service) newPortalClient() (*smsportal.Client, error) {
	return smsportal.NewClient(smsportal.ClientOptions{
		BaseUrl:          s.config.BaseUrl,
		UserAgent:        s.config.UserAgent,
		Credentials:      s.config.Credentials,
		CloudflareBypass: s.config.CloudflareBypass,
	})
}

// ListClients logs in with a fresh session and extracts the client
// picker from the portal's all-ranges page.
func (s Service) ListClients(ctx context.Context) ([]smsportal.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "allocator:ListClients")
	defer span.End()

	client, err := s.newPortalClient()
	if err != nil {
		return nil, newError(KindUpstream, "construct portal client", err)
	}
	err = client.Login(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "login failed")
		return nil, newError(KindAuth, "login failed", err)
	}

	html, err := client.FetchClientsPage(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch clients page")
		return nil, newError(upstreamKind(err), "fetch clients page", err)
	}
	clients, err := smsportal.ExtractClients(html)
	if err != nil {
		return nil, newError(KindUpstream, "extract clients", err)
	}
	return clients, nil
}

// ListRanges opens the given client's context in a fresh session and
// extracts its range table. The open is what makes the returned
// allocation tokens valid, so it cannot be skipped.
func (s Service) ListRanges(ctx context.Context, clientExternalId string) ([]smsportal.RangeRecord, error) {
	ctx, span := tracer.Start(ctx, "allocator:ListRanges")
	defer span.End()

	if clientExternalId == "" {
		return nil, newError(KindValidation, "client external id is required", nil)
	}

	client, err := s.newPortalClient()
	if err != nil {
		return nil, newError(KindUpstream, "construct portal client", err)
	}
	err = client.Login(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "login failed")
		return nil, newError(KindAuth, "login failed", err)
	}

	html, err := client.OpenClient(ctx, clientExternalId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open client")
		return nil, newError(upstreamKind(err), "open client", err)
	}
	ranges, err := smsportal.ExtractRanges(html)
	if err != nil {
		return nil, newError(KindUpstream, "extract ranges", err)
	}
	return ranges, nil
}

// Allocate performs one allocation attempt and persists the result.
// Invalid input fails locally without touching the network; every
// attempt that gets past validation produces exactly one audit record,
// whatever happens upstream.
func (s Service) Allocate(ctx context.Context, clientExternalId, rangeToken string, quantity int) (Attempt, error) {
	ctx, span := tracer.Start(ctx, "allocator:Allocate")
	defer span.End()

	if clientExternalId == "" || rangeToken == "" {
		return Attempt{}, newError(KindValidation, "client external id and range token are required", nil)
	}
	if quantity <= 0 {
		return Attempt{}, newError(KindValidation, "quantity must be a positive integer", nil)
	}

	return s.attemptAllocation(ctx, "", OutcomeError, clientExternalId, rangeToken, quantity)
}

// attemptAllocation runs login -> open client -> submit on a fresh
// session and records the outcome. loginFailOutcome distinguishes the
// single path ("error") from the batch path ("login_failed"); input
// validation is the caller's job.
func (s Service) attemptAllocation(ctx context.Context, batchId, loginFailOutcome, clientExternalId, rangeToken string, quantity int) (Attempt, error) {
	attempt := Attempt{
		BatchId:          batchId,
		ClientExternalId: clientExternalId,
		RangeToken:       rangeToken,
		Quantity:         quantity,
		CreatedAt:        time.Now(),
	}

	client, err := s.newPortalClient()
	if err != nil {
		attempt.Outcome = OutcomeError
		attempt.ResponseExcerpt = textutil.Excerpt(err.Error(), responseExcerptLimit)
		return s.recordAttempt(ctx, attempt)
	}

	err = client.Login(ctx)
	if err != nil {
		attempt.Outcome = loginFailOutcome
		attempt.ResponseExcerpt = textutil.Excerpt(err.Error(), responseExcerptLimit)
		return s.recordAttempt(ctx, attempt)
	}

	// the portal only honors an allocation for a client opened earlier
	// in the same session
	_, err = client.OpenClient(ctx, clientExternalId)
	if err != nil {
		attempt.Outcome = OutcomeError
		attempt.ResponseExcerpt = textutil.Excerpt(err.Error(), responseExcerptLimit)
		return s.recordAttempt(ctx, attempt)
	}

	status, body, err := client.SubmitAllocation(ctx, clientExternalId, rangeToken, quantity)
	if err != nil {
		attempt.Outcome = OutcomeError
		attempt.ResponseExcerpt = textutil.Excerpt(err.Error(), responseExcerptLimit)
		return s.recordAttempt(ctx, attempt)
	}

	if status == http.StatusOK {
		attempt.Outcome = OutcomeSuccess
	} else {
		attempt.Outcome = fmt.Sprintf("http_%d", status)
	}
	attempt.ResponseExcerpt = textutil.Excerpt(body, responseExcerptLimit)
	return s.recordAttempt(ctx, attempt)
}

func (s Service) recordAttempt(ctx context.Context, attempt Attempt) (Attempt, error) {
	id, err := s.qry.CreateAllocationAttempt(ctx, db.CreateAllocationAttemptParams{
		BatchID:          attempt.BatchId,
		ClientExternalID: attempt.ClientExternalId,
		RangeToken:       attempt.RangeToken,
		Quantity:         int64(attempt.Quantity),
		Outcome:          attempt.Outcome,
		ResponseExcerpt:  attempt.ResponseExcerpt,
		CreatedAt:        attempt.CreatedAt.Unix(),
	})
	if err != nil {
		return attempt, fmt.Errorf("persist allocation attempt: %w", err)
	}
	attempt.Id = id
	return attempt, nil
}

// RecentHistory lists the most recent allocation attempts, newest first.
func (s Service) RecentHistory(ctx context.Context, limit int) ([]Attempt, error) {
	ctx, span := tracer.Start(ctx, "allocator:RecentHistory")
	defer span.End()

	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	rows, err := s.qry.ListRecentAllocationAttempts(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Attempt, len(rows))
	for i, r := range rows {
		out[i] = Attempt{
			Id:               r.ID,
			BatchId:          r.BatchID,
			ClientExternalId: r.ClientExternalID,
			RangeToken:       r.RangeToken,
			Quantity:         int(r.Quantity),
			Outcome:          r.Outcome,
			ResponseExcerpt:  r.ResponseExcerpt,
			CreatedAt:        time.Unix(r.CreatedAt, 0),
		}
	}
	return out, nil
}
