package admission

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/insight-deck/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Budget policy. Grants are clamped so that an accumulating sequence of
// unsolved-challenge / solved-challenge cycles can never push a session past
// MaxBudgetUnits.
const (
	MaxBudgetUnits = 150
	BootstrapGrant = 100
	RefreshGrant   = 100

	BudgetTTL          = 30 * time.Minute
	SessionRetention   = 24 * time.Hour
	ChallengeTTL       = 120 * time.Second
	ChallengeRetention = 24 * time.Hour
	QuotaWindow        = 24 * time.Hour

	sweepMinInterval = 5 * time.Minute
)

// Engine is the budget-and-challenge admission core. All cross-request races
// are resolved by the store's transaction isolation; the engine holds no
// in-process lock over ledger state.
type Engine struct {
	db  *gorm.DB
	pow *PowAdapter
	log *zap.Logger
	now func() time.Time

	enableCleanup    bool
	dailyReportLimit int

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock injects the time source, letting tests advance expiry
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log.Named("AdmissionEngine") }
}

// WithCleanup enables the retention sweep.
func WithCleanup(enabled bool) Option {
	return func(e *Engine) { e.enableCleanup = enabled }
}

// WithDailyReportLimit overrides the report download quota.
func WithDailyReportLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.dailyReportLimit = limit
		}
	}
}

// NewEngine builds the admission engine on an already-migrated store.
func NewEngine(db *gorm.DB, pow *PowAdapter, opts ...Option) *Engine {
	e := &Engine{
		db:               db,
		pow:              pow,
		log:              zap.NewNop(),
		now:              time.Now,
		dailyReportLimit: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time from its injected clock.
func (e *Engine) Now() time.Time { return e.now() }

// IssuedChallenge is the client-facing view of a freshly issued challenge.
type IssuedChallenge struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
	Descriptor
}

// Decision is the outcome of a budget check: either the request is admitted,
// or the client must solve the attached challenge first.
type Decision struct {
	Admitted  bool
	Challenge *IssuedChallenge
}

// Check is the admission decision. Cost 0 always passes without touching the
// ledger. Otherwise it attempts one atomic conditional deduction against the
// session named by the bearer value; if that changes no row, a challenge
// sized for the session's current deficit is issued instead.
func (e *Engine) Check(bearer string, cost int) (*Decision, error) {
	e.maybeSweep()

	if cost == 0 {
		return &Decision{Admitted: true}, nil
	}

	now := e.now()
	token, hasToken := ParseBearer(bearer)

	if hasToken {
		res := e.db.Model(&models.SessionModel{}).
			Where("token = ? AND last_used_at > ? AND budget_expires_at > ? AND budget_units >= ?",
				token, now.Add(-SessionRetention), now, cost).
			Updates(map[string]interface{}{
				"budget_units":          gorm.Expr("budget_units - ?", cost),
				"credits_used_lifetime": gorm.Expr("credits_used_lifetime + ?", cost),
				"last_used_at":          now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &Decision{Admitted: true}, nil
		}
	}

	return e.issueChallenge(token, hasToken, now)
}

// issueChallenge computes the grant for the session's current state and
// persists a new challenge row. grantUnits is fixed here, at issuance time,
// so a session cannot benefit from stale budget math at verification time.
func (e *Engine) issueChallenge(token string, hasToken bool, now time.Time) (*Decision, error) {
	effectiveBudget := 0
	sessionActive := false
	if hasToken {
		var s models.SessionModel
		err := e.db.
			Where("token = ? AND last_used_at > ?", token, now.Add(-SessionRetention)).
			First(&s).Error
		switch {
		case err == nil:
			sessionActive = true
			if s.BudgetExpiresAt.After(now) {
				effectiveBudget = s.BudgetUnits
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, err
		}
	}

	baseGrant := BootstrapGrant
	if sessionActive {
		baseGrant = RefreshGrant
	}
	grant := min(baseGrant, MaxBudgetUnits-effectiveBudget)
	if grant < 0 {
		grant = 0
	}

	desc, err := e.pow.Issue()
	if err != nil {
		return nil, err
	}
	material, err := json.Marshal(desc)
	if err != nil {
		return nil, err
	}

	row := models.ChallengeModel{
		ExpiresAt:  now.Add(ChallengeTTL),
		Material:   string(material),
		GrantUnits: grant,
	}
	if err := e.db.Create(&row).Error; err != nil {
		return nil, err
	}

	e.log.Debug("challenge issued",
		zap.String("challenge_id", row.ID),
		zap.Int("grant_units", grant),
		zap.Bool("session_active", sessionActive),
	)

	return &Decision{
		Challenge: &IssuedChallenge{
			ID:         row.ID,
			ExpiresAt:  row.ExpiresAt,
			Descriptor: *desc,
		},
	}, nil
}
