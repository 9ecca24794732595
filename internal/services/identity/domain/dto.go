package domain

// MergeInput names the surviving contact and the duplicates to fold into it
type MergeInput struct {
	PrimaryID    string   `json:"primary_id" validate:"required,uuid4"`
	DuplicateIDs []string `json:"duplicate_ids" validate:"required,min=1,max=50,dive,uuid4"`
}

// EnrichResult reports what enrichment added
type EnrichResult struct {
	IdentitiesAdded int  `json:"identities_added"`
	CompanyResolved bool `json:"company_resolved"`
}
