// Package domain holds identity resolution types and the confidence model
package domain

import (
	"strings"
	"time"

	pstr "sigscore/internal/platform/strings"
)

// IdentityType classifies an external identifier
type IdentityType string

// Known identity types
const (
	IdentEmail    IdentityType = "EMAIL"
	IdentGitHub   IdentityType = "GITHUB"
	IdentNPM      IdentityType = "NPM"
	IdentTwitter  IdentityType = "TWITTER"
	IdentLinkedIn IdentityType = "LINKEDIN"
	IdentIP       IdentityType = "IP"
	IdentDomain   IdentityType = "DOMAIN"
)

// Valid reports whether t is a known identity type
func (t IdentityType) Valid() bool {
	switch t {
	case IdentEmail, IdentGitHub, IdentNPM, IdentTwitter, IdentLinkedIn, IdentIP, IdentDomain:
		return true
	}
	return false
}

// Identity links one external identifier to a contact with a confidence score
type Identity struct {
	ID         string       `json:"id"`
	OrgID      string       `json:"organization_id"`
	ContactID  string       `json:"contact_id"`
	Type       IdentityType `json:"type"`
	Value      string       `json:"value"`
	Verified   bool         `json:"verified"`
	Confidence float64      `json:"confidence"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Contact is the canonical person record
type Contact struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organization_id"`
	Name      string    `json:"name,omitempty"`
	AccountID string    `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActorHints carries the raw identifiers a connector delivered for one actor
type ActorHints struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	GitHub        string `json:"github,omitempty"`
	NPM           string `json:"npm,omitempty"`
	Twitter       string `json:"twitter,omitempty"`
	LinkedIn      string `json:"linkedin,omitempty"`
	IP            string `json:"ip,omitempty"`
	Domain        string `json:"domain,omitempty"`
}

// Empty reports whether no hint is present
func (h ActorHints) Empty() bool {
	return h.Email == "" && h.GitHub == "" && h.NPM == "" && h.Twitter == "" &&
		h.LinkedIn == "" && h.IP == "" && h.Domain == ""
}

// Pairs returns hints as (type, value) in descending confidence order
// the order drives which match wins when hints resolve to different contacts
func (h ActorHints) Pairs() []HintPair {
	out := make([]HintPair, 0, 7)
	add := func(t IdentityType, v string, verified bool) {
		if v != "" {
			out = append(out, HintPair{Type: t, Value: NormalizeValue(t, v), Verified: verified})
		}
	}
	add(IdentEmail, h.Email, h.EmailVerified)
	add(IdentGitHub, h.GitHub, false)
	add(IdentNPM, h.NPM, false)
	add(IdentTwitter, h.Twitter, false)
	add(IdentLinkedIn, h.LinkedIn, false)
	add(IdentDomain, h.Domain, false)
	add(IdentIP, h.IP, false)
	return out
}

// HintPair is a single normalized hint
type HintPair struct {
	Type     IdentityType
	Value    string
	Verified bool
}

// NormalizeValue folds an identity value so lookups never depend on the
// casing or spacing a connector happened to deliver
func NormalizeValue(t IdentityType, v string) string {
	switch t {
	case IdentIP:
		return strings.TrimSpace(v)
	default:
		return pstr.Fold(v)
	}
}

// DuplicateGroup is one cluster of contacts linked by shared identity values
type DuplicateGroup struct {
	PrimaryID         string   `json:"primary_id"`
	ContactIDs        []string `json:"contact_ids"`
	SharedIdentities  []string `json:"shared_identities"`
	OverallConfidence float64  `json:"overall_confidence"`
}
