package model

import "time"

// Sender is the enrichment profile for one email address.
type Sender struct {
	Address        string     `json:"address"`
	Name           *string    `json:"name,omitempty"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	JobTitle       *string    `json:"job_title,omitempty"`
	Company        *string    `json:"company,omitempty"`
	Bio            *string    `json:"bio,omitempty"`
	Location       *string    `json:"location,omitempty"`
	GithubHandle   *string    `json:"github_handle,omitempty"`
	LinkedinHandle *string    `json:"linkedin_handle,omitempty"`
	TwitterHandle  *string    `json:"twitter_handle,omitempty"`
	WebsiteURL     *string    `json:"website_url,omitempty"`
	IsVerified     bool       `json:"is_verified"`
	LastEnrichedAt *time.Time `json:"last_enriched_at,omitempty"`
}

// Domain is the enrichment profile for one sending domain.
type Domain struct {
	Domain         string     `json:"domain"`
	Name           *string    `json:"name,omitempty"`
	LogoURL        *string    `json:"logo_url,omitempty"`
	Description    *string    `json:"description,omitempty"`
	WebsiteURL     *string    `json:"website_url,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Headquarters   *string    `json:"headquarters,omitempty"`
	LastEnrichedAt *time.Time `json:"last_enriched_at,omitempty"`
}
