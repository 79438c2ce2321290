package repo_test

import (
	"testing"

	"sitewatch/internal/repo"
	"sitewatch/internal/repo/memory"
	pg "sitewatch/internal/repo/postgres"
	sq "sitewatch/internal/repo/sqlite"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.SiteStore = memory.New()
	var _ repo.CheckStore = memory.New()
	var _ repo.WebhookStore = memory.New()

	// DB-backed store types compile against the interfaces, too.
	var _ repo.SiteStore = (*pg.Store)(nil)
	var _ repo.CheckStore = (*pg.Store)(nil)
	var _ repo.WebhookStore = (*pg.Store)(nil)
	var _ repo.SiteStore = (*sq.Store)(nil)
	var _ repo.CheckStore = (*sq.Store)(nil)
	var _ repo.WebhookStore = (*sq.Store)(nil)
}
