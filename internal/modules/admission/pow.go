package admission

import (
	"encoding/base64"
	"encoding/json"

	altcha "github.com/altcha-org/altcha-lib-go"
)

// Descriptor is the proof-of-work challenge sent to the client. The same
// serialized form is stored as the issued challenge's material, binding every
// solution to exactly one ledger row.
type Descriptor struct {
	Algorithm string `json:"algorithm"`
	Challenge string `json:"challenge"`
	MaxNumber int64  `json:"maxnumber"`
	Salt      string `json:"salt"`
	Signature string `json:"signature"`
}

// PowAdapter wraps the ALTCHA HMAC proof-of-work primitive. It is stateless
// and knows nothing about sessions or budgets; any malformed payload verifies
// as invalid.
type PowAdapter struct {
	secret    string
	maxNumber int64
}

func NewPowAdapter(secret string, maxNumber int64) *PowAdapter {
	return &PowAdapter{secret: secret, maxNumber: maxNumber}
}

// Issue creates a new challenge descriptor signed with the server secret.
func (p *PowAdapter) Issue() (*Descriptor, error) {
	ch, err := altcha.CreateChallenge(altcha.ChallengeOptions{
		Algorithm:  altcha.SHA256,
		MaxNumber:  p.maxNumber,
		SaltLength: 12,
		HMACKey:    p.secret,
	})
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		Algorithm: string(ch.Algorithm),
		Challenge: ch.Challenge,
		MaxNumber: ch.MaxNumber,
		Salt:      ch.Salt,
		Signature: ch.Signature,
	}, nil
}

// Verify checks a decoded solution against the server secret. Fails closed.
func (p *PowAdapter) Verify(sol *Solution) bool {
	if sol == nil {
		return false
	}
	ok, err := altcha.VerifySolution(altcha.Payload{
		Algorithm: sol.Algorithm,
		Challenge: sol.Challenge,
		Number:    sol.Number,
		Salt:      sol.Salt,
		Signature: sol.Signature,
	}, p.secret, false)
	return err == nil && ok
}

// Solution is the client-found answer to an issued challenge.
type Solution struct {
	Algorithm string `json:"algorithm"`
	Challenge string `json:"challenge"`
	Number    int64  `json:"number"`
	Salt      string `json:"salt"`
	Signature string `json:"signature"`
}

// DecodeSolution parses the base64-encoded JSON payload submitted by the
// client. Raw JSON is accepted too.
func DecodeSolution(payload string) (*Solution, error) {
	raw := []byte(payload)
	if decoded, err := base64.StdEncoding.DecodeString(payload); err == nil {
		raw = decoded
	}
	var sol Solution
	if err := json.Unmarshal(raw, &sol); err != nil {
		return nil, err
	}
	return &sol, nil
}

// Matches reports whether the solution was computed for exactly the issued
// descriptor. This prevents replaying a solution solved for one challenge
// against another issued under the same secret.
func (s *Solution) Matches(d *Descriptor) bool {
	return s != nil && d != nil &&
		s.Algorithm == d.Algorithm &&
		s.Challenge == d.Challenge &&
		s.Salt == d.Salt &&
		s.Signature == d.Signature
}
