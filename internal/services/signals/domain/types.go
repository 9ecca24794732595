// Package domain holds signal types, enums, and the dedup fingerprint
package domain

import "time"

// SourceType identifies the connector a signal arrived from
type SourceType string

// Known connector sources
const (
	SourceGitHub   SourceType = "github"
	SourceNPM      SourceType = "npm"
	SourcePyPI     SourceType = "pypi"
	SourceDocker   SourceType = "docker"
	SourceTwitter  SourceType = "twitter"
	SourceLinkedIn SourceType = "linkedin"
	SourceWebsite  SourceType = "website"
	SourceDocs     SourceType = "docs"
	SourceSlack    SourceType = "slack"
	SourceCustom   SourceType = "custom"
)

// Valid reports whether s is a known source
func (s SourceType) Valid() bool {
	switch s {
	case SourceGitHub, SourceNPM, SourcePyPI, SourceDocker, SourceTwitter,
		SourceLinkedIn, SourceWebsite, SourceDocs, SourceSlack, SourceCustom:
		return true
	}
	return false
}

// SignalType classifies what the actor did
type SignalType string

// Known signal types
const (
	TypeRepoStar        SignalType = "repo_star"
	TypeRepoFork        SignalType = "repo_fork"
	TypeIssueOpened     SignalType = "issue_opened"
	TypePROpened        SignalType = "pr_opened"
	TypePRMerged        SignalType = "pr_merged"
	TypePackageInstall  SignalType = "package_install"
	TypePackageDownload SignalType = "package_download"
	TypeMention         SignalType = "mention"
	TypeFollow          SignalType = "follow"
	TypePageView        SignalType = "page_view"
	TypeDocsView        SignalType = "docs_view"
	TypeSignup          SignalType = "signup"
	TypeFormSubmit      SignalType = "form_submit"
	TypeCustom          SignalType = "custom"
)

// Valid reports whether t is a known signal type
func (t SignalType) Valid() bool {
	switch t {
	case TypeRepoStar, TypeRepoFork, TypeIssueOpened, TypePROpened, TypePRMerged,
		TypePackageInstall, TypePackageDownload, TypeMention, TypeFollow,
		TypePageView, TypeDocsView, TypeSignup, TypeFormSubmit, TypeCustom:
		return true
	}
	return false
}

// AnonymousActor is the placeholder used in fingerprints when no actor id was provided
const AnonymousActor = "anonymous"

// Signal is one immutable developer-activity event
// rows are never mutated after insert
type Signal struct {
	ID         string         `json:"id"`
	OrgID      string         `json:"organization_id"`
	SourceType SourceType     `json:"source_type"`
	ActorID    string         `json:"actor_id,omitempty"`
	ContactID  string         `json:"contact_id,omitempty"`
	AccountID  string         `json:"account_id,omitempty"`
	Type       SignalType     `json:"type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	DedupKey   string         `json:"dedup_key"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Actor returns the fingerprint actor component
func (s Signal) Actor() string {
	if s.ActorID == "" {
		return AnonymousActor
	}
	return s.ActorID
}
