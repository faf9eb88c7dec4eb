package escrow_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/daystake/go-daystake/audit"
	"github.com/daystake/go-daystake/escrow"
	"github.com/daystake/go-daystake/gateway"
	"github.com/daystake/go-daystake/ledger"
)

const (
	owner       = escrow.Address("alice")
	beneficiary = escrow.Address("charity")
	attester    = escrow.Address("oracle")
	admin       = escrow.Address("root")
)

var ctx = context.Background()

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeClock) SetTo(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// flakyGateway wraps a real gateway and can be told to fail transfers, to
// exercise the engine's rollback paths.
type flakyGateway struct {
	inner      escrow.Gateway
	mu         sync.Mutex
	failPullIn bool
	failPayOut bool
	pullIns    int
	payOuts    int
}

func (g *flakyGateway) PullIn(ctx context.Context, from escrow.Address, amount *uint256.Int) error {
	g.mu.Lock()
	g.pullIns++
	fail := g.failPullIn
	g.mu.Unlock()
	if fail {
		return errors.New("simulated pull failure")
	}
	return g.inner.PullIn(ctx, from, amount)
}

func (g *flakyGateway) PayOut(ctx context.Context, to escrow.Address, amount *uint256.Int) error {
	g.mu.Lock()
	g.payOuts++
	fail := g.failPayOut
	g.mu.Unlock()
	if fail {
		return errors.New("simulated payout failure")
	}
	return g.inner.PayOut(ctx, to, amount)
}

type fixture struct {
	engine *escrow.Engine
	clock  *fakeClock
	vault  *gateway.Vault
	gw     *flakyGateway
	store  *ledger.Memory
	log    *audit.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	vault := gateway.NewVault()
	vault.Credit(owner, uint256.NewInt(1_000_000))
	gw := &flakyGateway{inner: vault}
	store := ledger.NewMemory()
	log := audit.NewMemory()

	engine := escrow.NewEngine(store, gw, admin, attester).
		WithClock(clock).
		WithRecorder(log)

	return &fixture{engine: engine, clock: clock, vault: vault, gw: gw, store: store, log: log}
}

// create locks amount for days starting now and fails the test on error.
func (f *fixture) create(t *testing.T, amount uint64, days uint32) uint64 {
	t.Helper()
	id, err := f.engine.CreateChallenge(ctx, owner, beneficiary,
		uint256.NewInt(amount), f.clock.Now(), days)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return id
}

func (f *fixture) attest(t *testing.T, id uint64, day uint32) {
	t.Helper()
	if err := f.engine.AttestCompletion(ctx, attester, id, day); err != nil {
		t.Fatalf("attest day %d failed: %v", day, err)
	}
}

func (f *fixture) get(t *testing.T, id uint64) *escrow.Challenge {
	t.Helper()
	c, err := f.engine.GetChallenge(ctx, id)
	if err != nil {
		t.Fatalf("get challenge %d failed: %v", id, err)
	}
	return c
}

func TestCreateChallengeValidation(t *testing.T) {
	cases := []struct {
		name        string
		beneficiary escrow.Address
		amount      *uint256.Int
		startOffset time.Duration
		days        uint32
		want        error
	}{
		{"zero beneficiary", escrow.ZeroAddress, uint256.NewInt(100), 0, 7, escrow.ErrInvalidBeneficiary},
		{"nil amount", beneficiary, nil, 0, 7, escrow.ErrZeroAmount},
		{"zero amount", beneficiary, uint256.NewInt(0), 0, 7, escrow.ErrZeroAmount},
		{"zero duration", beneficiary, uint256.NewInt(100), 0, 0, escrow.ErrZeroDuration},
		{"start in past", beneficiary, uint256.NewInt(100), -time.Minute, 7, escrow.ErrStartInPast},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			start := f.clock.Now().Add(tc.startOffset)

			_, err := f.engine.CreateChallenge(ctx, owner, tc.beneficiary, tc.amount, start, tc.days)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
			if f.gw.pullIns != 0 {
				t.Error("validation failure must not attempt a transfer")
			}
		})
	}
}

func TestCreateChallenge(t *testing.T) {
	f := newFixture(t)

	id := f.create(t, 100, 7)
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}
	if id2 := f.create(t, 50, 5); id2 != 2 {
		t.Errorf("second id = %d, want 2", id2)
	}

	c := f.get(t, id)
	if c.DailySlice.Uint64() != 14 {
		t.Errorf("daily slice = %s, want 14", c.DailySlice.Dec())
	}
	if !c.Released.IsZero() || !c.Penalized.IsZero() || c.Finalized {
		t.Error("new challenge must start with zero balances and not finalized")
	}

	// Principal moved into custody.
	if got := f.vault.Custody().Uint64(); got != 150 {
		t.Errorf("custody = %d, want 150", got)
	}
	if got := f.vault.Balance(owner).Uint64(); got != 1_000_000-150 {
		t.Errorf("owner balance = %d, want %d", got, 1_000_000-150)
	}

	events, _ := f.log.ByChallenge(ctx, id)
	if len(events) != 1 || events[0].Type != audit.TypeCreated {
		t.Fatalf("expected one created event, got %v", events)
	}
	if events[0].Amount.Uint64() != 100 {
		t.Errorf("created event amount = %s, want 100", events[0].Amount.Dec())
	}
}

func TestCreateChallengePullInFails(t *testing.T) {
	f := newFixture(t)
	f.gw.failPullIn = true

	_, err := f.engine.CreateChallenge(ctx, owner, beneficiary,
		uint256.NewInt(100), f.clock.Now(), 7)
	if !errors.Is(err, escrow.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}

	// No record was created.
	challenges, _ := f.store.List(ctx)
	if len(challenges) != 0 {
		t.Errorf("ledger should be empty, has %d records", len(challenges))
	}
}

func TestAttestAuthorization(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)

	for _, caller := range []escrow.Address{owner, admin, "stranger"} {
		if err := f.engine.AttestCompletion(ctx, caller, id, 0); !errors.Is(err, escrow.ErrNotAuthorized) {
			t.Errorf("caller %q: got %v, want ErrNotAuthorized", caller, err)
		}
	}
}

func TestAttestStateChecks(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)

	if err := f.engine.AttestCompletion(ctx, attester, id+1, 0); !errors.Is(err, escrow.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
	if err := f.engine.AttestCompletion(ctx, attester, id, 7); !errors.Is(err, escrow.ErrInvalidDay) {
		t.Errorf("day == duration: got %v, want ErrInvalidDay", err)
	}

	f.attest(t, id, 0)
	if err := f.engine.AttestCompletion(ctx, attester, id, 0); !errors.Is(err, escrow.ErrAlreadyUnlocked) {
		t.Errorf("second attest: got %v, want ErrAlreadyUnlocked", err)
	}
}

func TestAttestDayGating(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)
	start := f.get(t, id).StartTime

	// One instant before day 2 starts: rejected.
	f.clock.SetTo(start.Add(2*escrow.Day - time.Nanosecond))
	if err := f.engine.AttestCompletion(ctx, attester, id, 2); !errors.Is(err, escrow.ErrDayNotStarted) {
		t.Errorf("before day start: got %v, want ErrDayNotStarted", err)
	}

	// At exactly the day boundary: accepted.
	f.clock.SetTo(start.Add(2 * escrow.Day))
	if err := f.engine.AttestCompletion(ctx, attester, id, 2); err != nil {
		t.Errorf("at day start: got %v, want success", err)
	}

	// Out of order: earlier days are still individually eligible.
	f.attest(t, id, 0)
	f.attest(t, id, 1)

	c := f.get(t, id)
	if got := c.Released.Uint64(); got != 3*14 {
		t.Errorf("released = %d, want %d", got, 3*14)
	}
}

func TestAttestMovesNoAssets(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)
	custodyBefore := f.vault.Custody().Uint64()

	f.attest(t, id, 0)

	if got := f.vault.Custody().Uint64(); got != custodyBefore {
		t.Errorf("custody changed from %d to %d on attest", custodyBefore, got)
	}
}

func TestClaimUnlocked(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)
	ownerBefore := f.vault.Balance(owner).Uint64()

	if _, err := f.engine.ClaimUnlocked(ctx, "stranger", id); !errors.Is(err, escrow.ErrNotOwner) {
		t.Errorf("stranger claim: got %v, want ErrNotOwner", err)
	}
	if _, err := f.engine.ClaimUnlocked(ctx, owner, id); !errors.Is(err, escrow.ErrNothingToClaim) {
		t.Errorf("empty claim: got %v, want ErrNothingToClaim", err)
	}

	f.clock.Advance(4 * escrow.Day)
	for day := uint32(0); day < 4; day++ {
		f.attest(t, id, day)
	}

	amount, err := f.engine.ClaimUnlocked(ctx, owner, id)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if amount.Uint64() != 56 {
		t.Errorf("claimed %s, want 56", amount.Dec())
	}

	c := f.get(t, id)
	if !c.Released.IsZero() {
		t.Errorf("released = %s after claim, want 0", c.Released.Dec())
	}
	if c.Claimed.Uint64() != 56 {
		t.Errorf("claimed total = %s, want 56", c.Claimed.Dec())
	}
	if got := f.vault.Balance(owner).Uint64(); got != ownerBefore+56 {
		t.Errorf("owner balance = %d, want %d", got, ownerBefore+56)
	}

	if _, err := f.engine.ClaimUnlocked(ctx, owner, id); !errors.Is(err, escrow.ErrNothingToClaim) {
		t.Errorf("repeat claim: got %v, want ErrNothingToClaim", err)
	}
}

func TestClaimPayOutFailureRestoresBalance(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)
	f.clock.Advance(escrow.Day)
	f.attest(t, id, 0)

	f.gw.failPayOut = true
	if _, err := f.engine.ClaimUnlocked(ctx, owner, id); !errors.Is(err, escrow.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}

	c := f.get(t, id)
	if c.Released.Uint64() != 14 {
		t.Errorf("released = %s after failed payout, want 14 restored", c.Released.Dec())
	}
	if !c.Claimed.IsZero() {
		t.Errorf("claimed = %s after failed payout, want 0", c.Claimed.Dec())
	}

	// Retry with a working gateway pays exactly once.
	f.gw.failPayOut = false
	ownerBefore := f.vault.Balance(owner).Uint64()
	amount, err := f.engine.ClaimUnlocked(ctx, owner, id)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if amount.Uint64() != 14 {
		t.Errorf("retry claimed %s, want 14", amount.Dec())
	}
	if got := f.vault.Balance(owner).Uint64(); got != ownerBefore+14 {
		t.Errorf("owner balance = %d, want %d", got, ownerBefore+14)
	}
}

func TestFinalize(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)

	if _, err := f.engine.Finalize(ctx, "anyone", id); !errors.Is(err, escrow.ErrNotEnded) {
		t.Fatalf("early finalize: got %v, want ErrNotEnded", err)
	}

	f.clock.Advance(5 * escrow.Day)
	for day := uint32(0); day < 5; day++ {
		f.attest(t, id, day)
	}

	f.clock.Advance(2 * escrow.Day)
	benBefore := f.vault.Balance(beneficiary).Uint64()

	swept, err := f.engine.Finalize(ctx, "anyone", id)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if swept.Uint64() != 30 {
		t.Errorf("swept %s, want 30", swept.Dec())
	}
	if got := f.vault.Balance(beneficiary).Uint64(); got != benBefore+30 {
		t.Errorf("beneficiary balance = %d, want %d", got, benBefore+30)
	}

	c := f.get(t, id)
	if !c.Finalized {
		t.Error("challenge should be finalized")
	}
	// Conservation: penalized + unlocked slices == principal.
	total := new(uint256.Int).Add(c.Penalized, c.UnlockedTotal())
	if !total.Eq(c.Principal) {
		t.Errorf("penalized %s + unlocked %s != principal %s",
			c.Penalized.Dec(), c.UnlockedTotal().Dec(), c.Principal.Dec())
	}

	if _, err := f.engine.Finalize(ctx, "anyone", id); !errors.Is(err, escrow.ErrAlreadyFinalized) {
		t.Errorf("second finalize: got %v, want ErrAlreadyFinalized", err)
	}
	if err := f.engine.AttestCompletion(ctx, attester, id, 5); !errors.Is(err, escrow.ErrAlreadyFinalized) {
		t.Errorf("attest after finalize: got %v, want ErrAlreadyFinalized", err)
	}
	after := f.get(t, id)
	if !after.Released.Eq(c.Released) {
		t.Error("released changed by rejected attest")
	}
}

func TestFinalizeZeroRemainder(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 5)

	f.clock.Advance(5 * escrow.Day)
	for day := uint32(0); day < 5; day++ {
		f.attest(t, id, day)
	}

	benBefore := f.vault.Balance(beneficiary).Uint64()
	payOutsBefore := f.gw.payOuts

	swept, err := f.engine.Finalize(ctx, owner, id)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !swept.IsZero() {
		t.Errorf("swept %s, want 0", swept.Dec())
	}
	if f.gw.payOuts != payOutsBefore {
		t.Error("zero remainder must not issue a payout")
	}
	if got := f.vault.Balance(beneficiary).Uint64(); got != benBefore {
		t.Errorf("beneficiary balance changed to %d", got)
	}
}

func TestFinalizePayOutFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)
	f.clock.Advance(7 * escrow.Day)

	f.gw.failPayOut = true
	if _, err := f.engine.Finalize(ctx, owner, id); !errors.Is(err, escrow.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}

	c := f.get(t, id)
	if c.Finalized {
		t.Error("failed sweep must roll back the finalized flag")
	}
	if !c.Penalized.IsZero() {
		t.Errorf("penalized = %s after rollback, want 0", c.Penalized.Dec())
	}

	// Retryable: a working gateway completes the finalization.
	f.gw.failPayOut = false
	swept, err := f.engine.Finalize(ctx, owner, id)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if swept.Uint64() != 100 {
		t.Errorf("swept %s, want 100", swept.Dec())
	}
}

// TestScenario100Over7 walks the full lifecycle from the reference
// scenario: principal 100 over 7 days, slice 14, remainder 2.
func TestScenario100Over7(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)
	ownerStart := f.vault.Balance(owner).Uint64()

	f.clock.Advance(4 * escrow.Day)
	for day := uint32(0); day < 4; day++ {
		f.attest(t, id, day)
	}
	if got := f.get(t, id).Released.Uint64(); got != 56 {
		t.Fatalf("released after days 0-3 = %d, want 56", got)
	}

	amount, err := f.engine.ClaimUnlocked(ctx, owner, id)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if amount.Uint64() != 56 {
		t.Fatalf("claimed %s, want 56", amount.Dec())
	}
	if got := f.vault.Balance(owner).Uint64(); got != ownerStart+56 {
		t.Fatalf("owner balance = %d, want %d", got, ownerStart+56)
	}

	f.clock.Advance(escrow.Day)
	f.attest(t, id, 4)
	if got := f.get(t, id).Released.Uint64(); got != 14 {
		t.Fatalf("released after day 4 = %d, want 14", got)
	}

	// Days 5 and 6 never attested; period elapses.
	f.clock.Advance(2 * escrow.Day)
	swept, err := f.engine.Finalize(ctx, owner, id)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if swept.Uint64() != 30 {
		t.Fatalf("swept %s, want 30 (100 - 5*14)", swept.Dec())
	}
	if got := f.vault.Balance(beneficiary).Uint64(); got != 30 {
		t.Fatalf("beneficiary balance = %d, want 30", got)
	}

	c := f.get(t, id)
	if c.Penalized.Uint64() != 30 {
		t.Fatalf("penalized = %s, want 30", c.Penalized.Dec())
	}

	// Day 4's slice is still owed; claiming it completes the payout and
	// the conservation invariant holds exactly.
	if _, err := f.engine.ClaimUnlocked(ctx, owner, id); err != nil {
		t.Fatalf("post-finalize claim failed: %v", err)
	}
	c = f.get(t, id)
	if !c.Conserved() {
		t.Error("conservation violated after full lifecycle")
	}
	paid := c.Claimed.Uint64() + c.Penalized.Uint64()
	if paid != 100 {
		t.Errorf("total paid out = %d, want exactly 100", paid)
	}
}

func TestSetAttester(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)

	if err := f.engine.SetAttester(owner, "newOracle"); !errors.Is(err, escrow.ErrNotAdmin) {
		t.Errorf("non-admin rotation: got %v, want ErrNotAdmin", err)
	}
	if err := f.engine.SetAttester(admin, escrow.ZeroAddress); !errors.Is(err, escrow.ErrInvalidAttester) {
		t.Errorf("zero attester: got %v, want ErrInvalidAttester", err)
	}

	f.attest(t, id, 0)

	if err := f.engine.SetAttester(admin, "newOracle"); err != nil {
		t.Fatalf("rotation failed: %v", err)
	}
	if got := f.engine.Attester(); got != "newOracle" {
		t.Errorf("attester = %q, want newOracle", got)
	}

	// The old attester is locked out; the new one works. The prior
	// attestation stands.
	f.clock.Advance(escrow.Day)
	if err := f.engine.AttestCompletion(ctx, attester, id, 1); !errors.Is(err, escrow.ErrNotAuthorized) {
		t.Errorf("old attester: got %v, want ErrNotAuthorized", err)
	}
	if err := f.engine.AttestCompletion(ctx, "newOracle", id, 1); err != nil {
		t.Errorf("new attester: got %v, want success", err)
	}
	if !f.get(t, id).IsDayUnlocked(0) {
		t.Error("rotation must not invalidate prior attestations")
	}
}

func TestReadAPI(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)
	f.attest(t, id, 0)

	unlocked, err := f.engine.IsDayUnlocked(ctx, id, 0)
	if err != nil || !unlocked {
		t.Errorf("IsDayUnlocked(0) = %v, %v; want true", unlocked, err)
	}
	unlocked, err = f.engine.IsDayUnlocked(ctx, id, 1)
	if err != nil || unlocked {
		t.Errorf("IsDayUnlocked(1) = %v, %v; want false", unlocked, err)
	}
	if _, err := f.engine.IsDayUnlocked(ctx, id, 7); !errors.Is(err, escrow.ErrInvalidDay) {
		t.Errorf("out of range: got %v, want ErrInvalidDay", err)
	}
	if _, err := f.engine.GetChallenge(ctx, id+1); !errors.Is(err, escrow.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, 100, 7)

	f.clock.Advance(7 * escrow.Day)
	f.attest(t, id, 0)
	if _, err := f.engine.ClaimUnlocked(ctx, owner, id); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := f.engine.Finalize(ctx, owner, id); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	events, err := f.log.ByChallenge(ctx, id)
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}

	want := []string{audit.TypeCreated, audit.TypeAttested, audit.TypeClaimed, audit.TypeFinalized}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("event %d type = %s, want %s", i, e.Type, want[i])
		}
		if e.ChallengeID != id {
			t.Errorf("event %d challenge = %d, want %d", i, e.ChallengeID, id)
		}
	}
	if events[1].Day != 0 {
		t.Errorf("attested event day = %d, want 0", events[1].Day)
	}
	if events[3].Amount.Uint64() != 86 {
		t.Errorf("finalized event amount = %s, want 86", events[3].Amount.Dec())
	}
}

// TestConcurrentAttestations fires every day's attestation concurrently;
// per-challenge serialization must make all of them land exactly once.
func TestConcurrentAttestations(t *testing.T) {
	f := newFixture(t)
	const dayCount = 30
	id := f.create(t, 30_000, dayCount)
	f.clock.Advance(dayCount * escrow.Day)

	var wg sync.WaitGroup
	errs := make(chan error, dayCount)
	for day := uint32(0); day < dayCount; day++ {
		wg.Add(1)
		go func(day uint32) {
			defer wg.Done()
			errs <- f.engine.AttestCompletion(ctx, attester, id, day)
		}(day)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent attest failed: %v", err)
		}
	}

	c := f.get(t, id)
	if got := c.Unlocked.Count(); got != dayCount {
		t.Errorf("unlocked %d days, want %d", got, dayCount)
	}
	wantReleased := uint64(dayCount) * c.DailySlice.Uint64()
	if got := c.Released.Uint64(); got != wantReleased {
		t.Errorf("released = %d, want %d", got, wantReleased)
	}
}

// TestConcurrentChallengesIndependent runs full lifecycles on many
// challenges in parallel; operations on different ids never interfere.
func TestConcurrentChallengesIndependent(t *testing.T) {
	f := newFixture(t)
	const n = 8

	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = f.create(t, 70, 7)
	}
	f.clock.Advance(7 * escrow.Day)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			for day := uint32(0); day < 7; day++ {
				if err := f.engine.AttestCompletion(ctx, attester, id, day); err != nil {
					t.Errorf("challenge %d day %d: %v", id, day, err)
				}
			}
			if _, err := f.engine.ClaimUnlocked(ctx, owner, id); err != nil {
				t.Errorf("challenge %d claim: %v", id, err)
			}
			if _, err := f.engine.Finalize(ctx, owner, id); err != nil {
				t.Errorf("challenge %d finalize: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		c := f.get(t, id)
		if !c.Conserved() {
			t.Errorf("challenge %d violates conservation", id)
		}
		if !c.Finalized {
			t.Errorf("challenge %d not finalized", id)
		}
	}
}

func ExampleEngine() {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	vault := gateway.NewVault()
	vault.Credit("alice", uint256.NewInt(100))

	engine := escrow.NewEngine(ledger.NewMemory(), vault, "root", "oracle").
		WithClock(clock)

	ctx := context.Background()
	id, _ := engine.CreateChallenge(ctx, "alice", "charity",
		uint256.NewInt(100), clock.Now(), 7)

	clock.Advance(escrow.Day)
	_ = engine.AttestCompletion(ctx, "oracle", id, 0)

	claimed, _ := engine.ClaimUnlocked(ctx, "alice", id)
	fmt.Println("claimed:", claimed.Dec())
	// Output: claimed: 14
}
