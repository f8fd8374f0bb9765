package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/internal/identity"
	"github.com/veriwork/trustengine/internal/moderation"
	"github.com/veriwork/trustengine/internal/repository/memory"
)

// fakeClassifier returns a canned result, or an error when result is nil.
type fakeClassifier struct {
	mu     sync.Mutex
	result *moderation.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, _, _ string) (*moderation.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func cleanClassifier() *fakeClassifier {
	return &fakeClassifier{result: &moderation.Result{Approved: true, ToxicityScore: 0.1}}
}

// recordingNotifier counts emitted facts; counting must be safe under the
// concurrent report tests.
type recordingNotifier struct {
	mu            sync.Mutex
	created       int
	statusChanged int
	autoHidden    int
	spamEscalated int
	flagged       int
}

func (n *recordingNotifier) ReviewCreated(context.Context, *domain.Review) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
	return nil
}

func (n *recordingNotifier) ReviewStatusChanged(context.Context, *domain.Review, string, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusChanged++
	return nil
}

func (n *recordingNotifier) ReviewAutoHidden(context.Context, *domain.Review) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.autoHidden++
	return nil
}

func (n *recordingNotifier) ReviewSpamEscalated(context.Context, *domain.Review, int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.spamEscalated++
	return nil
}

func (n *recordingNotifier) ReporterFlagged(context.Context, string, int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flagged++
	return nil
}

// fixedAuthors serves one profile for every user.
type fixedAuthors struct {
	profile domain.AuthorProfile
}

func (f *fixedAuthors) AuthorProfile(_ context.Context, userID string) (domain.AuthorProfile, error) {
	p := f.profile
	p.UserID = userID
	return p, nil
}

var _ identity.AuthorLookup = (*fixedAuthors)(nil)

// engine bundles fully wired services over the in-memory store for
// end-to-end scenarios.
type engine struct {
	store      *memory.Store
	classifier *fakeClassifier
	notifier   *recordingNotifier
	companies  *CompanyService
	reviews    *ReviewService
	votes      *VoteService
	reports    *ReportService
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := memory.NewStore()
	classifier := cleanClassifier()
	notifier := &recordingNotifier{}

	companies := NewCompanyService(store, store, logger)
	gate := moderation.NewGate(classifier, logger)
	authors := &fixedAuthors{}

	return &engine{
		store:      store,
		classifier: classifier,
		notifier:   notifier,
		companies:  companies,
		reviews:    NewReviewService(store, gate, authors, companies, notifier, logger),
		votes:      NewVoteService(store, logger),
		reports:    NewReportService(store, store, store, companies, notifier, logger),
	}
}

func validBody(topic string) string {
	return strings.Repeat("The "+topic+" here is handled fairly and transparently. ", 3)
}

func submitInput(companyID, userID string) SubmitReviewInput {
	return SubmitReviewInput{
		CompanyID: companyID,
		UserID:    userID,
		Category:  domain.CategorySalary,
		Rating:    4.5,
		Body:      validBody("compensation"),
	}
}
