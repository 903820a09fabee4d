package model

// Field names used for by-name access, provenance and flat export.
const (
	FieldName                = "name"
	FieldTitle               = "title"
	FieldCompany             = "company"
	FieldLocation            = "location"
	FieldEmail               = "email"
	FieldAffiliationText     = "affiliation_text"
	FieldPublicationTitle    = "publication_title"
	FieldPublicationDate     = "publication_date"
	FieldJournal             = "journal"
	FieldPMID                = "pmid"
	FieldLinkedInTitle       = "linkedin_title"
	FieldLinkedInURL         = "linkedin_url"
	FieldCompanyNameVerified = "company_name_verified"
	FieldCompanyHQ           = "company_hq"
	FieldCompanyIndustry     = "company_industry"
	FieldCompanyFundingStage = "company_funding_stage"
	FieldPhone               = "phone"
	FieldPersonLocation      = "person_location"
)

// StringFields lists every string field reachable through Field/SetField, in
// export column order.
var StringFields = []string{
	FieldName,
	FieldTitle,
	FieldCompany,
	FieldLocation,
	FieldEmail,
	FieldAffiliationText,
	FieldPublicationTitle,
	FieldPublicationDate,
	FieldJournal,
	FieldPMID,
	FieldLinkedInTitle,
	FieldLinkedInURL,
	FieldCompanyNameVerified,
	FieldCompanyHQ,
	FieldCompanyIndustry,
	FieldCompanyFundingStage,
	FieldPhone,
	FieldPersonLocation,
}

func (l *Lead) fieldPtr(name string) *string {
	switch name {
	case FieldName:
		return &l.Name
	case FieldTitle:
		return &l.Title
	case FieldCompany:
		return &l.Company
	case FieldLocation:
		return &l.Location
	case FieldEmail:
		return &l.Email
	case FieldAffiliationText:
		return &l.AffiliationText
	case FieldPublicationTitle:
		return &l.PublicationTitle
	case FieldPublicationDate:
		return &l.PublicationDate
	case FieldJournal:
		return &l.Journal
	case FieldPMID:
		return &l.PMID
	case FieldLinkedInTitle:
		return &l.LinkedInTitle
	case FieldLinkedInURL:
		return &l.LinkedInURL
	case FieldCompanyNameVerified:
		return &l.CompanyNameVerified
	case FieldCompanyHQ:
		return &l.CompanyHQ
	case FieldCompanyIndustry:
		return &l.CompanyIndustry
	case FieldCompanyFundingStage:
		return &l.CompanyFundingStage
	case FieldPhone:
		return &l.Phone
	case FieldPersonLocation:
		return &l.PersonLocation
	}
	return nil
}

// Field returns the value of a named string field, or "" when unknown.
func (l *Lead) Field(name string) string {
	if p := l.fieldPtr(name); p != nil {
		return *p
	}
	return ""
}

// SetField assigns a named string field. It reports false for unknown names.
func (l *Lead) SetField(name, value string) bool {
	p := l.fieldPtr(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Flatten returns the lead as a flat mapping for presentation and export.
func (l *Lead) Flatten() map[string]any {
	out := make(map[string]any, len(StringFields)+8)
	for _, f := range StringFields {
		out[f] = l.Field(f)
	}
	out["author_position"] = string(l.AuthorPosition)
	out["source"] = string(l.Source)
	out["enrichment_status"] = string(l.EnrichmentStatus)
	out["propensity_score"] = l.PropensityScore
	out["priority_level"] = string(l.PriorityLevel)
	out["rank"] = l.Rank

	breakdown := make(map[string]int, len(l.ScoreBreakdown))
	for k, v := range l.ScoreBreakdown {
		breakdown[k] = v
	}
	out["score_breakdown"] = breakdown

	sources := make(map[string]string, len(l.Provenance))
	for field, p := range l.Provenance {
		sources[field] = p.Provider
	}
	out["field_sources"] = sources
	out["secondary_publications"] = len(l.SecondaryPublications)
	return out
}
