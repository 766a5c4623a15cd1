package admission_test

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/insight-deck/core/internal/models"
	"github.com/insight-deck/core/internal/modules/admission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyChallengeMintsUsableToken(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	token, err := engine.VerifyChallenge(ch.ID, solvePayload(t, ch.Descriptor), "")
	require.NoError(t, err)
	require.Len(t, token, 32)

	decision, err := engine.Check(bearer(token), 10)
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
}

func TestVerifyChallengeExactlyOnce(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	payload := solvePayload(t, ch.Descriptor)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	tokens := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], results[i] = engine.VerifyChallenge(ch.ID, payload, "")
		}(i)
	}
	wg.Wait()

	granted := 0
	for i, err := range results {
		if err == nil {
			granted++
			assert.Len(t, tokens[i], 32)
			continue
		}
		assert.ErrorIs(t, err, admission.ErrChallengeReplayed, "worker %d", i)
	}
	assert.Equal(t, 1, granted, "a challenge converts to budget exactly once")
}

func TestVerifyChallengeSequentialReplay(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	payload := solvePayload(t, ch.Descriptor)

	_, err := engine.VerifyChallenge(ch.ID, payload, "")
	require.NoError(t, err)

	_, err = engine.VerifyChallenge(ch.ID, payload, "")
	assert.ErrorIs(t, err, admission.ErrChallengeReplayed)
}

func TestVerifyChallengeUnknownID(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	_, err := engine.VerifyChallenge("does-not-exist", solvePayload(t, ch.Descriptor), "")
	assert.ErrorIs(t, err, admission.ErrChallengeInvalid)
}

func TestVerifyChallengeExpired(t *testing.T) {
	engine, clock, _ := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	payload := solvePayload(t, ch.Descriptor)

	clock.Advance(admission.ChallengeTTL + time.Millisecond)
	_, err := engine.VerifyChallenge(ch.ID, payload, "")
	assert.ErrorIs(t, err, admission.ErrChallengeInvalid)
}

func TestVerifyChallengeGarbagePayload(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	for _, payload := range []string{"", "not-base64!!", base64.StdEncoding.EncodeToString([]byte("{"))} {
		_, err := engine.VerifyChallenge(ch.ID, payload, "")
		assert.ErrorIs(t, err, admission.ErrChallengeInvalid, "payload %q", payload)
	}
}

func TestVerifyChallengeForeignSolutionRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	// A valid solution for challenge B must not consume challenge A.
	chA := issueChallenge(t, engine, "")
	chB := issueChallenge(t, engine, "")

	_, err := engine.VerifyChallenge(chA.ID, solvePayload(t, chB.Descriptor), "")
	assert.ErrorIs(t, err, admission.ErrChallengeInvalid)

	// Challenge A stays consumable afterwards.
	_, err = engine.VerifyChallenge(chA.ID, solvePayload(t, chA.Descriptor), "")
	assert.NoError(t, err)
}

func TestVerifyChallengeTamperedSignature(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	sol := admission.Solution{
		Algorithm: ch.Algorithm,
		Challenge: ch.Challenge,
		Number:    solveNumber(t, ch.Descriptor),
		Salt:      ch.Salt,
		Signature: "deadbeef",
	}
	raw, err := json.Marshal(sol)
	require.NoError(t, err)

	_, err = engine.VerifyChallenge(ch.ID, base64.StdEncoding.EncodeToString(raw), "")
	assert.ErrorIs(t, err, admission.ErrChallengeInvalid)
}

func TestVerifyChallengeFailedAttemptDoesNotConsume(t *testing.T) {
	engine, _, db := newTestEngine(t)

	ch := issueChallenge(t, engine, "")
	_, err := engine.VerifyChallenge(ch.ID, "garbage", "")
	require.ErrorIs(t, err, admission.ErrChallengeInvalid)

	var row models.ChallengeModel
	require.NoError(t, db.First(&row, "id = ?", ch.ID).Error)
	assert.Nil(t, row.ConsumedAt, "rejected attempts must leave the challenge open")
}
