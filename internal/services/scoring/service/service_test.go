package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"sigscore/internal/modkit/repokit"
	perr "sigscore/internal/platform/errors"
	pnet "sigscore/internal/platform/net"
	"sigscore/internal/services/scoring/domain"
	"sigscore/internal/services/scoring/repo"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (f fakeDB) Tx(_ context.Context, fn func(q repokit.Queryer) error) error   { return fn(f) }

type memRepo struct {
	mu        sync.Mutex
	accounts  map[string]bool
	stats     map[string]domain.WindowStats
	snapshots map[string][]domain.AccountScore
	casReject bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts:  map[string]bool{},
		stats:     map[string]domain.WindowStats{},
		snapshots: map[string][]domain.AccountScore{},
	}
}

func (m *memRepo) AccountExists(_ context.Context, orgID, accountID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID], nil
}

func (m *memRepo) WindowStats(_ context.Context, orgID, accountID string, now time.Time, windowDays int) (domain.WindowStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stats[accountID]
	st.Now = now
	st.WindowDays = windowDays
	return st, nil
}

func (m *memRepo) Latest(_ context.Context, orgID, accountID string) (domain.AccountScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snapshots[accountID]
	if len(snaps) == 0 {
		return domain.AccountScore{}, perr.NotFoundf("no snapshot")
	}
	return snaps[len(snaps)-1], nil
}

func (m *memRepo) InsertSnapshot(_ context.Context, s domain.AccountScore) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.casReject {
		return false, nil
	}
	for _, ex := range m.snapshots[s.AccountID] {
		if ex.Version == s.Version {
			return false, nil
		}
	}
	m.snapshots[s.AccountID] = append(m.snapshots[s.AccountID], s)
	return true, nil
}

func (m *memRepo) Top(context.Context, string, string, int) ([]domain.AccountScore, error) {
	return nil, nil
}

func (m *memRepo) StaleAccounts(context.Context, string, time.Time, int) ([]string, error) {
	return nil, nil
}

func (m *memRepo) OrgIDs(context.Context) ([]string, error) { return nil, nil }

type memBinder struct{ r *memRepo }

func (b memBinder) Bind(repokit.Queryer) repo.Repo { return b.r }

type captureListener struct {
	mu    sync.Mutex
	calls []*domain.AccountScore // prev snapshot per call, nil on first compute
}

func (c *captureListener) OnScoreChange(_ context.Context, prev *domain.AccountScore, _ domain.AccountScore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, prev)
}

func (c *captureListener) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func testConfig() Config {
	return Config{WindowDays: 90, TrendPct: 0.20, Weights: domain.DefaultWeights()}
}

func newTestSvc(r *memRepo) *Svc {
	return New(fakeDB{}, memBinder{r: r}, nil, nil, testConfig())
}

func orgCtx() context.Context {
	return pnet.WithRequest(context.Background(), "req-test", "org-1")
}

func activeStats(now time.Time) domain.WindowStats {
	return domain.WindowStats{
		SignalCount:    10,
		PriorCount:     30,
		DistinctActors: 3,
		DistinctTypes:  7,
		LastSignalAt:   now,
	}
}

func TestCompute_FirstSnapshot(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	m.accounts["acct-1"] = true
	m.stats["acct-1"] = activeStats(time.Now().UTC())
	svc := newTestSvc(m)

	snap, err := svc.Compute(orgCtx(), "acct-1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if snap.Version != 1 {
		t.Fatalf("version = %d, want 1", snap.Version)
	}
	if snap.Trend != domain.TrendStable {
		t.Fatalf("first snapshot trend = %s, want stable", snap.Trend)
	}
	if snap.Score < 0 || snap.Score > 100 {
		t.Fatalf("score %d out of [0,100]", snap.Score)
	}
	if snap.Tier != domain.TierFor(snap.Score) {
		t.Fatalf("tier = %s, inconsistent with score %d", snap.Tier, snap.Score)
	}
	if len(snap.Factors) != 4 {
		t.Fatalf("got %d factors, want 4", len(snap.Factors))
	}
	if snap.SignalCount != 10 || snap.UserCount != 3 {
		t.Fatalf("counts = %d/%d, want 10/3", snap.SignalCount, snap.UserCount)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	var first int
	for i := 0; i < 5; i++ {
		m := newMemRepo()
		m.accounts["acct-1"] = true
		m.stats["acct-1"] = activeStats(now)
		snap, err := newTestSvc(m).Compute(orgCtx(), "acct-1")
		if err != nil {
			t.Fatalf("Compute run %d: %v", i, err)
		}
		if i == 0 {
			first = snap.Score
		} else if snap.Score != first {
			t.Fatalf("run %d score = %d, first run %d", i, snap.Score, first)
		}
	}
}

func TestCompute_VersionAndTrend(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	m.accounts["acct-1"] = true
	m.stats["acct-1"] = domain.WindowStats{SignalCount: 2, PriorCount: 20, DistinctActors: 1, DistinctTypes: 1}
	svc := newTestSvc(m)
	lis := &captureListener{}
	svc.WithListener(lis)

	low, err := svc.Compute(orgCtx(), "acct-1")
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}

	// activity surges, the next snapshot must rise and bump the version
	m.mu.Lock()
	m.stats["acct-1"] = domain.WindowStats{
		SignalCount: 50, PriorCount: 0, DistinctActors: 30, DistinctTypes: 50,
		LastSignalAt: time.Now().UTC(),
	}
	m.mu.Unlock()

	high, err := svc.Compute(orgCtx(), "acct-1")
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if high.Version != low.Version+1 {
		t.Fatalf("version = %d, want %d", high.Version, low.Version+1)
	}
	if high.Score <= low.Score {
		t.Fatalf("score %d not above prior %d", high.Score, low.Score)
	}
	if high.Trend != domain.TrendRising {
		t.Fatalf("trend = %s, want rising", high.Trend)
	}

	if lis.count() != 2 {
		t.Fatalf("listener called %d times, want 2", lis.count())
	}
	lis.mu.Lock()
	defer lis.mu.Unlock()
	if lis.calls[0] != nil {
		t.Fatal("first change should carry no prior snapshot")
	}
	if lis.calls[1] == nil || lis.calls[1].Score != low.Score {
		t.Fatalf("second change prior = %+v, want score %d", lis.calls[1], low.Score)
	}
}

func TestCompute_UnchangedScoreSkipsListener(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	m.accounts["acct-1"] = true
	m.stats["acct-1"] = domain.WindowStats{SignalCount: 5, PriorCount: 5, DistinctActors: 2, DistinctTypes: 2}
	svc := newTestSvc(m)
	lis := &captureListener{}
	svc.WithListener(lis)

	a, err := svc.Compute(orgCtx(), "acct-1")
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	b, err := svc.Compute(orgCtx(), "acct-1")
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if a.Score != b.Score {
		t.Fatalf("same stats produced %d then %d", a.Score, b.Score)
	}
	if b.Version != a.Version+1 {
		t.Fatalf("snapshot history must still grow: version %d after %d", b.Version, a.Version)
	}
	if lis.count() != 1 {
		t.Fatalf("listener called %d times, want only the first compute", lis.count())
	}
}

func TestCompute_ConcurrentRecomputeConflicts(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	m.accounts["acct-1"] = true
	m.stats["acct-1"] = activeStats(time.Now().UTC())
	m.casReject = true

	_, err := newTestSvc(m).Compute(orgCtx(), "acct-1")
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(m.snapshots["acct-1"]) != 0 {
		t.Fatal("lost recompute must not leave a snapshot behind")
	}
}

func TestCompute_UnknownAccount(t *testing.T) {
	t.Parallel()

	_, err := newTestSvc(newMemRepo()).Compute(orgCtx(), "ghost")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestGet_NoSnapshot(t *testing.T) {
	t.Parallel()

	_, err := newTestSvc(newMemRepo()).Get(orgCtx(), "acct-1")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestTop_RejectsUnknownTier(t *testing.T) {
	t.Parallel()

	_, err := newTestSvc(newMemRepo()).Top(orgCtx(), domain.TopInput{Tier: "lukewarm"})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
