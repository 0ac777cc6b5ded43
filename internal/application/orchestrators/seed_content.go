package orchestrators

import (
	"context"
	"log/slog"
	"time"

	contentStore "society/internal/adapters/storage/content"
	"society/internal/domain/content"
	"society/internal/domain/member"
)

// ContentStoreForSeed defines the store interface needed by SeedContent.
type ContentStoreForSeed interface {
	Save(ctx context.Context, item content.Item) error
	List(ctx context.Context, filter contentStore.ListFilter) ([]content.Item, error)
}

// MemberStoreForSeed defines the member store interface needed by SeedContent.
type MemberStoreForSeed interface {
	Save(ctx context.Context, m member.Member) error
}

// SeedContentDeps holds dependencies for SeedContent.
type SeedContentDeps struct {
	ContentStore ContentStoreForSeed
	MemberStore  MemberStoreForSeed
	GenerateID   func() string
	Now          func() time.Time
}

// seedPlan is the sample catalog: published and draft titles per category.
var seedPlan = []struct {
	category  string
	published []string
	drafts    []string
}{
	{content.CategoryBooks, []string{"Te Reo for Beginners", "Songs of the Harbour", "Weaving Patterns", "Stories of the Founders"}, []string{"Annual Report 2025"}},
	{content.CategoryEbooks, []string{"Digital Archive Vol. 1", "Recipes from the Marae"}, nil},
	{content.CategoryProjects, []string{"Community Garden", "Oral History Recordings", "Youth Kapa Haka"}, []string{"Mural Restoration"}},
	{content.CategoryTeams, []string{"Events Crew", "Archive Volunteers"}, nil},
	{content.CategoryAnnouncements, []string{"Hall Closed for Repairs", "New Opening Hours"}, nil},
	{content.CategoryActivities, []string{"Weekly Language Circle", "Monthly Potluck", "Carving Workshop"}, nil},
	{content.CategoryInitiatives, []string{"Scholarship Fund"}, []string{"Partner School Programme"}},
}

var seedMembers = []struct {
	name, email, role string
}{
	{"Aroha Ngata", "aroha@example.org", member.RoleBoard},
	{"Tama Wiremu", "tama@example.org", member.RoleVolunteer},
	{"Mei Chen", "mei@example.org", member.RoleMember},
	{"Sione Fifita", "sione@example.org", member.RoleMember},
	{"Hana Parata", "hana@example.org", member.RoleMember},
}

// ExecuteSeedContent inserts a sample catalog and member list when the catalog is empty.
// PRE: development mode only
// POST: Every category except users has items; drafts are included and do not count
func ExecuteSeedContent(ctx context.Context, deps SeedContentDeps) error {
	existing, err := deps.ContentStore.List(ctx, contentStore.ListFilter{Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := deps.Now()
	n := 0
	for _, p := range seedPlan {
		for _, batch := range []struct {
			status string
			titles []string
		}{{content.StatusPublished, p.published}, {content.StatusDraft, p.drafts}} {
			for _, title := range batch.titles {
				item := content.Item{
					ID:        deps.GenerateID(),
					Category:  p.category,
					Title:     title,
					Status:    batch.status,
					CreatedAt: now.Add(-time.Duration(n) * time.Hour),
				}
				if err := item.Validate(); err != nil {
					return err
				}
				if err := deps.ContentStore.Save(ctx, item); err != nil {
					return err
				}
				n++
			}
		}
	}

	for i, s := range seedMembers {
		m := member.Member{
			ID:       deps.GenerateID(),
			Name:     s.name,
			Email:    s.email,
			Role:     s.role,
			Status:   member.StatusActive,
			JoinedAt: now.AddDate(0, -i, 0),
		}
		if err := deps.MemberStore.Save(ctx, m); err != nil {
			return err
		}
	}

	slog.Info("content_seeded", "items", n, "members", len(seedMembers))
	return nil
}
