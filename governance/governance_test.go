package governance

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowscroll/libknowscroll-go/event"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

const channelOne = uint64(1)

func makeAddr(seed byte) ledger.Address {
	var addr ledger.Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

var (
	creator = makeAddr(0xC0) // 70% of the channel
	holderA = makeAddr(0xA1) // 25%
	holderB = makeAddr(0xB1) // 5%
	outside = makeAddr(0x00)
)

type testEnv struct {
	engine *Engine
	ledger *ledger.MemLedger
	clock  *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	l := ledger.NewMemLedger()
	l.Mint(creator, channelOne, 700)
	l.Mint(holderA, channelOne, 250)
	l.Mint(holderB, channelOne, 50)

	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	e, err := New(Options{Ledger: l, Clock: clock})
	require.NoError(t, err)
	return &testEnv{engine: e, ledger: l, clock: clock}
}

// --- Propose tests ---

func TestPropose(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	id, err := env.engine.Propose(ctx, creator, channelOne, "episode 12 direction", "ipfs://QmEpisode12", 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	p, err := env.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, creator, p.Proposer)
	assert.Equal(t, env.clock.Now(), p.StartsAt)
	assert.Equal(t, env.clock.Now().Add(72*time.Hour), p.EndsAt)
	assert.False(t, p.Executed)
}

func TestPropose_ThresholdGating(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// holderB sits exactly at the 5% default threshold.
	_, err := env.engine.Propose(ctx, holderB, channelOne, "at threshold", "", 72*time.Hour)
	require.NoError(t, err)

	_, err = env.engine.Propose(ctx, outside, channelOne, "no shares", "", 72*time.Hour)
	assert.ErrorIs(t, err, ErrBelowThreshold)
}

func TestPropose_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.engine.Propose(ctx, creator, channelOne, "", "", 72*time.Hour)
	assert.ErrorIs(t, err, ErrEmptyDescription)

	_, err = env.engine.Propose(ctx, creator, channelOne, "too short", "", MinVotingPeriod-time.Second)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = env.engine.Propose(ctx, creator, channelOne, "too long", "", MaxVotingPeriod+time.Second)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	// A channel with no shares outstanding cannot host proposals.
	_, err = env.engine.Propose(ctx, creator, 99, "empty channel", "", 72*time.Hour)
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

// --- Vote tests ---

func TestVote(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id, err := env.engine.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)

	require.NoError(t, env.engine.Vote(ctx, creator, id, true))
	require.NoError(t, env.engine.Vote(ctx, holderA, id, false))

	p, err := env.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), p.ForVotes)
	assert.Equal(t, uint64(250), p.AgainstVotes)
}

func TestVote_OncePerHolder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id, err := env.engine.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)

	require.NoError(t, env.engine.Vote(ctx, holderA, id, true))
	err = env.engine.Vote(ctx, holderA, id, false)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	p, _ := env.engine.GetProposal(id)
	assert.Equal(t, uint64(250), p.ForVotes)
	assert.Zero(t, p.AgainstVotes)
}

// Vote weight is the voter's balance at vote time, not at proposal time.
func TestVote_WeightAtVoteTime(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id, err := env.engine.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)

	// holderA sells 100 shares to holderB before voting.
	require.NoError(t, env.ledger.Transfer(ctx, holderA, holderB, channelOne, 100))

	require.NoError(t, env.engine.Vote(ctx, holderA, id, true))
	require.NoError(t, env.engine.Vote(ctx, holderB, id, true))

	p, _ := env.engine.GetProposal(id)
	assert.Equal(t, uint64(300), p.ForVotes)
}

func TestVote_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id, err := env.engine.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)

	err = env.engine.Vote(ctx, outside, id, true)
	assert.ErrorIs(t, err, ErrNoVotingPower)

	err = env.engine.Vote(ctx, creator, 99, true)
	assert.ErrorIs(t, err, ErrProposalNotFound)

	// The window closes at EndsAt exactly.
	env.clock.Advance(72 * time.Hour)
	err = env.engine.Vote(ctx, creator, id, true)
	assert.ErrorIs(t, err, ErrVotingClosed)
}

// --- Execute tests ---

func TestExecute(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id, err := env.engine.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.engine.Vote(ctx, creator, id, true))
	require.NoError(t, env.engine.Vote(ctx, holderA, id, false))

	// Too early.
	_, err = env.engine.Execute(id)
	assert.ErrorIs(t, err, ErrVotingOpen)

	env.clock.Advance(72 * time.Hour)
	passed, err := env.engine.Execute(id)
	require.NoError(t, err)
	assert.True(t, passed)

	p, _ := env.engine.GetProposal(id)
	assert.True(t, p.Executed)
	assert.True(t, p.Passed)

	// Execution happens at most once.
	_, err = env.engine.Execute(id)
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestExecute_TieFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	other := makeAddr(0xA2)
	require.NoError(t, env.ledger.Transfer(ctx, creator, other, channelOne, 250))

	id, err := env.engine.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.engine.Vote(ctx, holderA, id, true))
	require.NoError(t, env.engine.Vote(ctx, other, id, false))

	env.clock.Advance(72 * time.Hour)
	passed, err := env.engine.Execute(id)
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestExecute_NoVotesFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id, err := env.engine.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)

	env.clock.Advance(72 * time.Hour)
	passed, err := env.engine.Execute(id)
	require.NoError(t, err)
	assert.False(t, passed)
}

// --- Query tests ---

func TestProposalsByChannel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.ledger.Mint(creator, 2, 100)

	id1, err := env.engine.Propose(ctx, creator, channelOne, "one", "", 72*time.Hour)
	require.NoError(t, err)
	_, err = env.engine.Propose(ctx, creator, 2, "two", "", 72*time.Hour)
	require.NoError(t, err)
	id3, err := env.engine.Propose(ctx, creator, channelOne, "three", "", 72*time.Hour)
	require.NoError(t, err)

	got, err := env.engine.ProposalsByChannel(channelOne)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, id1, got[0].ID)
	assert.Equal(t, id3, got[1].ID)
}

// --- Event tests ---

func TestEngine_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus(nil, nil)
	_, votes := bus.Subscribe(TypeVoteCast)

	l := ledger.NewMemLedger()
	l.Mint(creator, channelOne, 1000)
	e, err := New(Options{Ledger: l, Bus: bus})
	require.NoError(t, err)

	id, err := e.Propose(ctx, creator, channelOne, "proposal", "", 72*time.Hour)
	require.NoError(t, err)
	require.NoError(t, e.Vote(ctx, creator, id, true))

	evt := <-votes
	payload := evt.Data.(VoteCast)
	assert.Equal(t, id, payload.ProposalID)
	assert.True(t, payload.Support)
	assert.Equal(t, uint64(1000), payload.Weight)
}
