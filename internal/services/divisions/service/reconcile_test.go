package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"opengov/internal/services/divisions/domain"
	"opengov/internal/services/divisions/guardrails"
)

func div(id int, title, marker string) domain.DivisionRecord {
	return domain.DivisionRecord{DivisionID: id, Title: title, PublicationUpdated: marker}
}

func newSvc(src *fakeSource, st *memStore, th *fakeThreads) *Service {
	s := New(src, st, th, st, Config{Timeouts: guardrails.Timeouts{
		Pass:     5 * time.Second,
		Source:   time.Second,
		Store:    time.Second,
		Platform: time.Second,
	}})
	n := 0
	s.newID = func() string { n++; return "pass-" + string(rune('0'+n)) }
	return s
}

func TestRunPass_BudgetVote(t *testing.T) {
	src := newSource(div(101, "Budget Vote", "2024-03-01"))
	st, th := newStore(), newThreads()

	rep, err := newSvc(src, st, th).RunPass(context.Background(), "test")
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if len(th.created) != 1 || th.created[0] != "Budget Vote" {
		t.Fatalf("createThread calls = %v", th.created)
	}
	if st.creates != 1 || st.rows() != 1 {
		t.Fatalf("createMapping calls = %d rows = %d", st.creates, st.rows())
	}
	m := st.mappings[101]
	if m.DivisionID != 101 || m.ThreadID == "" {
		t.Fatalf("mapping = %+v", m)
	}
	if st.seen[101] != "2024-03-01" {
		t.Fatalf("marker = %q", st.seen[101])
	}
	if rep.Listed != 1 || rep.Created != 1 || rep.Failed != 0 || rep.Aborted {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunPass_Idempotent(t *testing.T) {
	src := newSource(div(1, "A", "m1"), div(2, "B", "m1"), div(3, "C", "m1"))
	st, th := newStore(), newThreads()
	svc := newSvc(src, st, th)

	if _, err := svc.RunPass(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	creates, _ := th.counts()
	rows := st.rows()

	rep, err := svc.RunPass(context.Background(), "second")
	if err != nil {
		t.Fatal(err)
	}
	c2, posts := th.counts()
	if c2 != creates || st.rows() != rows || posts != 0 {
		t.Fatalf("second pass had side effects: creates %d->%d rows %d->%d posts %d", creates, c2, rows, st.rows(), posts)
	}
	if rep.Unchanged != 3 || rep.Created != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunPass_Converges(t *testing.T) {
	const n = 6
	var rs []domain.DivisionRecord
	for i := 1; i <= n; i++ {
		rs = append(rs, div(i, "Division", "m"))
	}
	st, th := newStore(), newThreads()
	if _, err := newSvc(newSource(rs...), st, th).RunPass(context.Background(), "test"); err != nil {
		t.Fatal(err)
	}
	if st.rows() != n {
		t.Fatalf("rows = %d", st.rows())
	}
	threads := map[domain.ThreadID]bool{}
	for _, m := range st.mappings {
		threads[m.ThreadID] = true
	}
	if len(threads) != n {
		t.Fatalf("thread ids not distinct: %v", threads)
	}
}

func TestRunPass_UpdateSkipAndFire(t *testing.T) {
	src := newSource(div(7, "Motion", "2024-01-01"))
	st, th := newStore(), newThreads()
	svc := newSvc(src, st, th)
	ctx := context.Background()

	if _, err := svc.RunPass(ctx, "create"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RunPass(ctx, "unchanged"); err != nil {
		t.Fatal(err)
	}
	if _, posts := th.counts(); posts != 0 {
		t.Fatalf("unchanged marker posted %d updates", posts)
	}

	src.set(div(7, "Motion", "2024-01-02"))
	rep, err := svc.RunPass(ctx, "changed")
	if err != nil {
		t.Fatal(err)
	}
	if len(th.posts) != 1 {
		t.Fatalf("posts = %d", len(th.posts))
	}
	p := th.posts[0]
	if p.thread != st.mappings[7].ThreadID {
		t.Fatalf("posted to %q", p.thread)
	}
	if !strings.Contains(p.content, "2024-01-02") || !strings.Contains(p.content, "2024-01-01") {
		t.Fatalf("content = %q", p.content)
	}
	if st.seen[7] != "2024-01-02" || rep.Updated != 1 {
		t.Fatalf("marker = %q report = %+v", st.seen[7], rep)
	}

	if _, err := svc.RunPass(ctx, "again"); err != nil {
		t.Fatal(err)
	}
	if len(th.posts) != 1 {
		t.Fatalf("second pass reposted: %d", len(th.posts))
	}
}

func TestRunPass_UpdateUsesDetailMarker(t *testing.T) {
	src := newSource(div(8, "Motion", "old"))
	st, th := newStore(), newThreads()
	svc := newSvc(src, st, th)
	_, _ = svc.RunPass(context.Background(), "create")

	// listing is abbreviated and stale; the detail document decides
	src.details[8] = div(8, "Motion", "new")
	if _, err := svc.RunPass(context.Background(), "update"); err != nil {
		t.Fatal(err)
	}
	if len(th.posts) != 1 || st.seen[8] != "new" {
		t.Fatalf("posts=%d marker=%q", len(th.posts), st.seen[8])
	}
}

func TestRunPass_BaselineWithoutMarker(t *testing.T) {
	st, th := newStore(), newThreads()
	st.mappings[9] = domain.DivisionMapping{ID: 1, DivisionID: 9, ThreadID: "900"}

	rep, err := newSvc(newSource(div(9, "Legacy", "m5")), st, th).RunPass(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(th.posts) != 0 || st.seen[9] != "m5" || rep.Unchanged != 1 {
		t.Fatalf("posts=%d marker=%q report=%+v", len(th.posts), st.seen[9], rep)
	}
}

func TestRunPass_Isolation(t *testing.T) {
	src := newSource(div(1, "A", "m"), div(2, "B", "m"), div(3, "C", "m"))
	st, th := newStore(), newThreads()
	th.createErr["A"] = domain.Mark(domain.ErrPlatformRejected, errors.New("missing permissions"))
	st.findErr[2] = domain.Mark(domain.ErrStoreUnavailable, errors.New("conn reset"))

	rep, err := newSvc(src, st, th).RunPass(context.Background(), "test")
	if err != nil {
		t.Fatalf("per-division failures must not fail the pass: %v", err)
	}
	if _, ok := st.mappings[3]; !ok {
		t.Fatal("division after a failure should still be persisted")
	}
	if rep.Failed != 2 || rep.Created != 1 || len(rep.Failures) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Failures[0].DivisionID != 1 || rep.Failures[0].Kind != "PlatformRejected" {
		t.Fatalf("failure[0] = %+v", rep.Failures[0])
	}
	if rep.Failures[1].DivisionID != 2 || rep.Failures[1].Kind != "StoreUnavailable" {
		t.Fatalf("failure[1] = %+v", rep.Failures[1])
	}
}

func TestRunPass_SourceNotFoundSkips(t *testing.T) {
	src := newSource(div(1, "A", "m"), div(2, "B", "m"))
	src.fetchErr[1] = domain.Mark(domain.ErrSourceNotFound, errors.New("404"))
	st, th := newStore(), newThreads()

	rep, err := newSvc(src, st, th).RunPass(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(th.created) != 1 || th.created[0] != "B" || rep.Failures[0].Kind != "SourceNotFound" {
		t.Fatalf("created=%v report=%+v", th.created, rep)
	}
}

func TestRunPass_DuplicateGuard(t *testing.T) {
	src := newSource(div(5, "Race", "m"))
	st, th := newStore(), newThreads()
	// another pass wins the insert between our lookup and our create
	st.beforeCreate = func(id int) {
		st.mu.Lock()
		defer st.mu.Unlock()
		if _, ok := st.mappings[id]; !ok {
			st.mappings[id] = domain.DivisionMapping{ID: 99, DivisionID: id, ThreadID: "777"}
		}
	}

	rep, err := newSvc(src, st, th).RunPass(context.Background(), "test")
	if err != nil {
		t.Fatalf("DuplicateMapping must be benign: %v", err)
	}
	if st.rows() != 1 || st.mappings[5].ThreadID != "777" {
		t.Fatalf("surviving mapping = %+v", st.mappings[5])
	}
	if rep.Duplicates != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunPass_ConcurrentPassesKeepOneRow(t *testing.T) {
	src := newSource(div(1, "A", "m"), div(2, "B", "m"), div(3, "C", "m"))
	st, th := newStore(), newThreads()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := newSvc(src, st, th).RunPass(context.Background(), "race"); err != nil {
				t.Errorf("RunPass: %v", err)
			}
		}()
	}
	wg.Wait()

	if st.rows() != 3 {
		t.Fatalf("rows = %d", st.rows())
	}
}

func TestRunPass_ListingFailureAborts(t *testing.T) {
	for _, kind := range []error{domain.ErrSourceUnavailable, domain.ErrSourceMalformed} {
		src := newSource(div(1, "A", "m"))
		src.listErr = domain.Mark(kind, errors.New("boom"))
		st, th := newStore(), newThreads()
		svc := newSvc(src, st, th)

		rep, err := svc.RunPass(context.Background(), "test")
		if !errors.Is(err, kind) {
			t.Fatalf("err = %v, want %v", err, kind)
		}
		if !rep.Aborted || rep.Listed != 0 {
			t.Fatalf("report = %+v", rep)
		}
		if st.creates != 0 || st.records != 0 || src.fetches != 0 || len(th.created) != 0 {
			t.Fatal("aborted pass must not touch anything")
		}
		if last, ok := svc.LastPass(); !ok || !last.Aborted {
			t.Fatalf("last pass = %+v %v", last, ok)
		}
	}
}

func TestRunPass_TimesOut(t *testing.T) {
	src := newSource(div(1, "A", "m"), div(2, "B", "m"))
	src.block = true
	st, th := newStore(), newThreads()
	svc := New(src, st, th, nil, Config{Timeouts: guardrails.Timeouts{Pass: 30 * time.Millisecond}})

	start := time.Now()
	rep, err := svc.RunPass(context.Background(), "test")
	if !errors.Is(err, domain.ErrPassTimedOut) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("pass deadline not honored")
	}
	if rep.Failed != 1 || rep.Processed() != 1 {
		t.Fatalf("a timed out pass stops at the stuck division: %+v", rep)
	}
}

func TestRunPass_CancelledIsNotTimeout(t *testing.T) {
	src := newSource(div(1, "A", "m"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src.listErr = domain.Mark(domain.ErrSourceUnavailable, context.Canceled)

	_, err := newSvc(src, newStore(), newThreads()).RunPass(ctx, "test")
	if errors.Is(err, domain.ErrPassTimedOut) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunPass_ThreadNotFound(t *testing.T) {
	src := newSource(div(4, "Gone", "a"))
	st, th := newStore(), newThreads()
	svc := newSvc(src, st, th)
	_, _ = svc.RunPass(context.Background(), "create")

	th.postErr[st.mappings[4].ThreadID] = domain.Mark(domain.ErrThreadNotFound, errors.New("10003"))
	src.set(div(4, "Gone", "b"))

	rep, err := svc.RunPass(context.Background(), "update")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed != 1 || rep.Failures[0].Kind != "ThreadNotFound" {
		t.Fatalf("report = %+v", rep)
	}
	if st.seen[4] != "a" {
		t.Fatalf("marker must stay until the update lands, got %q", st.seen[4])
	}
}

func TestRunPass_MappingInsertFails(t *testing.T) {
	st, th := newStore(), newThreads()
	st.createErr = domain.Mark(domain.ErrStoreUnavailable, errors.New("conn refused"))

	rep, err := newSvc(newSource(div(1, "A", "m")), st, th).RunPass(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed != 1 || rep.Failures[0].Kind != "StoreUnavailable" || st.rows() != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunPass_MarkerFailureAfterCreateIsNotFatal(t *testing.T) {
	st, th := newStore(), newThreads()
	st.recordErr = domain.Mark(domain.ErrStoreUnavailable, errors.New("timeout"))

	rep, err := newSvc(newSource(div(1, "A", "m")), st, th).RunPass(context.Background(), "test")
	if err != nil || rep.Created != 1 || st.rows() != 1 {
		t.Fatalf("err=%v report=%+v", err, rep)
	}
}

func TestLastPassAndDivision(t *testing.T) {
	st, th := newStore(), newThreads()
	svc := newSvc(newSource(div(101, "Budget Vote", "2024-03-01")), st, th)

	if _, ok := svc.LastPass(); ok {
		t.Fatal("no pass yet")
	}
	rep, _ := svc.RunPass(context.Background(), "test")
	last, ok := svc.LastPass()
	if !ok || last.PassID != rep.PassID {
		t.Fatalf("last = %+v", last)
	}

	v, err := svc.Division(context.Background(), 101)
	if err != nil || v.PublicationUpdated != "2024-03-01" || v.FetchedAt.IsZero() {
		t.Fatalf("view = %+v %v", v, err)
	}
	if _, err := svc.Division(context.Background(), 0); err == nil {
		t.Fatal("zero id must be rejected")
	}
}

func TestComposeUpdate(t *testing.T) {
	got := ComposeUpdate(domain.DivisionRecord{
		DivisionID:         101,
		Title:              " Budget Vote ",
		PublicationUpdated: "2024-03-02",
		Date:               "2024-03-01",
		Number:             55,
	}, "2024-03-01T09:00")
	for _, want := range []string{"Division 101 updated", "no. 55", "Budget Vote", "Date: 2024-03-01", "2024-03-02", "previously 2024-03-01T09:00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
	if strings.Contains(ComposeUpdate(div(1, "T", "b"), "a"), "no.") {
		t.Fatal("number line should be omitted when unknown")
	}
}

func TestNew_RequiresPorts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(nil, newStore(), newThreads(), nil, Config{})
}
