package admission_test

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/insight-deck/core/internal/database"
	"github.com/insight-deck/core/internal/modules/admission"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSecret    = "test-pow-secret"
	testMaxNumber = 64
)

// fakeClock is an adjustable time source injected into the engine.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One writer; concurrent verifiers queue on the connection instead of
	// tripping SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEngine(t *testing.T, opts ...admission.Option) (*admission.Engine, *fakeClock, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock()
	base := []admission.Option{admission.WithClock(clock.Now)}
	engine := admission.NewEngine(db,
		admission.NewPowAdapter(testSecret, testMaxNumber),
		append(base, opts...)...,
	)
	return engine, clock, db
}

// issueChallenge asks the engine for a challenge by running an unfunded check.
func issueChallenge(t *testing.T, engine *admission.Engine, bearer string) *admission.IssuedChallenge {
	t.Helper()
	decision, err := engine.Check(bearer, 1)
	require.NoError(t, err)
	require.False(t, decision.Admitted)
	require.NotNil(t, decision.Challenge)
	return decision.Challenge
}

// solveNumber brute-forces the hash search the same way a client would.
func solveNumber(t *testing.T, d admission.Descriptor) int64 {
	t.Helper()
	for n := int64(0); n <= d.MaxNumber; n++ {
		sum := sha256.Sum256([]byte(d.Salt + strconv.FormatInt(n, 10)))
		if hex.EncodeToString(sum[:]) == d.Challenge {
			return n
		}
	}
	t.Fatalf("no solution found within maxnumber %d", d.MaxNumber)
	return 0
}

// solvePayload solves the challenge and returns the base64 payload for the
// verify endpoint.
func solvePayload(t *testing.T, d admission.Descriptor) string {
	t.Helper()
	raw, err := json.Marshal(admission.Solution{
		Algorithm: d.Algorithm,
		Challenge: d.Challenge,
		Number:    solveNumber(t, d),
		Salt:      d.Salt,
		Signature: d.Signature,
	})
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

// grantSession issues, solves and verifies one challenge, returning a funded
// session token.
func grantSession(t *testing.T, engine *admission.Engine) string {
	t.Helper()
	ch := issueChallenge(t, engine, "")
	token, err := engine.VerifyChallenge(ch.ID, solvePayload(t, ch.Descriptor), "")
	require.NoError(t, err)
	return token
}

func bearer(token string) string { return "Bearer " + token }
