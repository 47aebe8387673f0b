package localbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

// GetSenderInfo retrieves one sender profile, nil when no enrichment
// exists for the address yet.
func (b *Backend) GetSenderInfo(ctx context.Context, address string) (*model.Sender, error) {
	var s model.Sender
	var verified int
	err := b.db.QueryRowxContext(ctx, `
		SELECT address, name, avatar_url, job_title, company, bio, location,
			github_handle, linkedin_handle, twitter_handle, website_url,
			is_verified, last_enriched_at
		FROM senders WHERE address = ?`, strings.ToLower(address),
	).Scan(&s.Address, &s.Name, &s.AvatarURL, &s.JobTitle, &s.Company,
		&s.Bio, &s.Location, &s.GithubHandle, &s.LinkedinHandle,
		&s.TwitterHandle, &s.WebsiteURL, &verified, &s.LastEnrichedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sender %q: %w", address, err)
	}
	s.IsVerified = verified != 0
	return &s, nil
}

// RegenerateSenderInfo re-derives a sender profile. The local backend has
// no enrichment provider, so regeneration fills what it can from the
// address itself, stamps the enrichment time, and emits sender-updated.
func (b *Backend) RegenerateSenderInfo(ctx context.Context, address string, manual bool) (*model.Sender, error) {
	address = strings.ToLower(address)
	name := nameFromAddress(address)
	now := time.Now().UTC()

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO senders (address, name, last_enriched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			name = COALESCE(senders.name, excluded.name),
			last_enriched_at = excluded.last_enriched_at`,
		address, name, now,
	)
	if err != nil {
		return nil, fmt.Errorf("regenerating sender %q: %w", address, err)
	}

	b.log.WithField("address", address).WithField("manual", manual).
		Debug("regenerated sender profile")
	b.emit(gateway.EventSenderUpdated, address)
	return b.GetSenderInfo(ctx, address)
}

// UpdateSenderInfo persists a user edit to a sender profile and emits
// sender-updated.
func (b *Backend) UpdateSenderInfo(ctx context.Context, s model.Sender) error {
	s.Address = strings.ToLower(s.Address)
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO senders (
			address, name, avatar_url, job_title, company, bio, location,
			github_handle, linkedin_handle, twitter_handle, website_url,
			is_verified, last_enriched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			name = excluded.name,
			avatar_url = excluded.avatar_url,
			job_title = excluded.job_title,
			company = excluded.company,
			bio = excluded.bio,
			location = excluded.location,
			github_handle = excluded.github_handle,
			linkedin_handle = excluded.linkedin_handle,
			twitter_handle = excluded.twitter_handle,
			website_url = excluded.website_url,
			is_verified = excluded.is_verified,
			last_enriched_at = excluded.last_enriched_at`,
		s.Address, s.Name, s.AvatarURL, s.JobTitle, s.Company, s.Bio,
		s.Location, s.GithubHandle, s.LinkedinHandle, s.TwitterHandle,
		s.WebsiteURL, boolToInt(s.IsVerified), s.LastEnrichedAt,
	)
	if err != nil {
		return fmt.Errorf("updating sender %q: %w", s.Address, err)
	}

	b.emit(gateway.EventSenderUpdated, s.Address)
	return nil
}

// GetDomainInfo retrieves one domain profile, nil when no enrichment
// exists for the domain yet.
func (b *Backend) GetDomainInfo(ctx context.Context, domain string) (*model.Domain, error) {
	var d model.Domain
	err := b.db.QueryRowxContext(ctx, `
		SELECT domain, name, logo_url, description, website_url,
			location, headquarters, last_enriched_at
		FROM domains WHERE domain = ?`, strings.ToLower(domain),
	).Scan(&d.Domain, &d.Name, &d.LogoURL, &d.Description,
		&d.WebsiteURL, &d.Location, &d.Headquarters, &d.LastEnrichedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading domain %q: %w", domain, err)
	}
	return &d, nil
}

// nameFromAddress derives a display name from the local part of an
// address: "jane.doe@x.com" becomes "Jane Doe".
func nameFromAddress(address string) string {
	local, _, ok := strings.Cut(address, "@")
	if !ok || local == "" {
		return address
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
