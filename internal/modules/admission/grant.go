package admission

import (
	"encoding/json"
	"errors"

	"github.com/insight-deck/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerifyChallenge validates a solved challenge and converts it into budget,
// exactly once. It either refreshes the session named by bearer or mints a
// fresh one, and returns the token to use on retry.
//
// Under N concurrent calls with the same challenge id, exactly one passes the
// conditional consume; the rest observe zero affected rows and fail with
// ErrChallengeReplayed. No lock is taken; the store's transaction isolation
// on the conditional update is the serialization point.
func (e *Engine) VerifyChallenge(challengeID, payload, bearer string) (string, error) {
	now := e.now()

	var ch models.ChallengeModel
	if err := e.db.First(&ch, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrChallengeInvalid
		}
		return "", err
	}
	if !now.Before(ch.ExpiresAt) {
		return "", ErrChallengeInvalid
	}
	// Cheap pre-check; the authoritative replay gate is the conditional
	// update below.
	if ch.ConsumedAt != nil {
		return "", ErrChallengeReplayed
	}

	sol, err := DecodeSolution(payload)
	if err != nil {
		return "", ErrChallengeInvalid
	}
	if !e.pow.Verify(sol) {
		return "", ErrChallengeInvalid
	}

	var issued Descriptor
	if err := json.Unmarshal([]byte(ch.Material), &issued); err != nil {
		return "", err
	}
	if !sol.Matches(&issued) {
		return "", ErrChallengeInvalid
	}

	token, hasToken := ParseBearer(bearer)

	var grantedToken string
	err = e.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ChallengeModel{}).
			Where("id = ? AND consumed_at IS NULL", ch.ID).
			Update("consumed_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrChallengeReplayed
		}

		if hasToken {
			var s models.SessionModel
			err := tx.
				Where("token = ? AND last_used_at > ?", token, now.Add(-SessionRetention)).
				First(&s).Error
			if err == nil {
				effective := 0
				if s.BudgetExpiresAt.After(now) {
					effective = s.BudgetUnits
				}
				if err := tx.Model(&s).Updates(map[string]interface{}{
					"budget_units":      min(MaxBudgetUnits, effective+ch.GrantUnits),
					"budget_expires_at": now.Add(BudgetTTL),
					"last_used_at":      now,
				}).Error; err != nil {
					return err
				}
				grantedToken = token
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		fresh, err := NewSessionToken()
		if err != nil {
			return err
		}
		s := models.SessionModel{
			Token:           fresh,
			LastUsedAt:      now,
			BudgetUnits:     min(MaxBudgetUnits, ch.GrantUnits),
			BudgetExpiresAt: now.Add(BudgetTTL),
		}
		if err := tx.Create(&s).Error; err != nil {
			return err
		}
		grantedToken = fresh
		return nil
	})
	if err != nil {
		return "", err
	}

	e.log.Debug("challenge consumed",
		zap.String("challenge_id", ch.ID),
		zap.Int("grant_units", ch.GrantUnits),
		zap.Bool("session_refreshed", grantedToken == token),
	)
	return grantedToken, nil
}
