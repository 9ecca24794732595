package domain

// ConfidenceTable maps match kinds to confidence values
// operator configurable; defaults follow the documented ordering where a
// verified email is the strongest evidence and IP co-occurrence the weakest
type ConfidenceTable struct {
	VerifiedEmail  float64
	Email          float64
	VerifiedHandle float64
	Handle         float64
	Domain         float64
	IP             float64
}

// DefaultConfidence is the shipped table
func DefaultConfidence() ConfidenceTable {
	return ConfidenceTable{
		VerifiedEmail:  0.95,
		Email:          0.85,
		VerifiedHandle: 0.80,
		Handle:         0.65,
		Domain:         0.50,
		IP:             0.35,
	}
}

// For returns the confidence for an identity of type t, clamped to [0,1]
func (c ConfidenceTable) For(t IdentityType, verified bool) float64 {
	var v float64
	switch t {
	case IdentEmail:
		if verified {
			v = c.VerifiedEmail
		} else {
			v = c.Email
		}
	case IdentGitHub, IdentNPM, IdentTwitter, IdentLinkedIn:
		if verified {
			v = c.VerifiedHandle
		} else {
			v = c.Handle
		}
	case IdentDomain:
		v = c.Domain
	case IdentIP:
		v = c.IP
	}
	return Clamp01(v)
}

// Clamp01 bounds v to [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// GroupConfidence combines the confidences of the identities shared by a
// duplicate group, weighted toward the strongest shared identity
func GroupConfidence(shared []float64) float64 {
	if len(shared) == 0 {
		return 0
	}
	var max, sum float64
	for _, c := range shared {
		if c > max {
			max = c
		}
		sum += c
	}
	mean := sum / float64(len(shared))
	return Clamp01(0.6*max + 0.4*mean)
}
