package agenda

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
)

func TestExportICS(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestingService()

	_, err := svc.ExportICS(ctx, "u1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	saved := saveTestingAgenda(t, svc, "u1", newTestingSnapshot(testingCatalog(), "ses-101", "ses-202"))
	_, err = svc.AddFavoriteToAgenda(ctx, "u1", "ses-201")
	require.NoError(t, err)

	ics, err := svc.ExportICS(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR"))
	assert.Contains(t, ics, "METHOD:PUBLISH")
	assert.Equal(t, 3, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "SUMMARY:Opening Keynote")
	assert.Contains(t, ics, "SUMMARY:Agents in Production")
	assert.Contains(t, ics, "LOCATION:Hall AI")
	assert.Contains(t, ics, "ses-101@confagenda")
	assert.Contains(t, ics, saved.ID[:8])
	// 2025-10-15 09:00 in Los Angeles
	assert.Contains(t, ics, "20251015T160000Z")
	assert.Equal(t, 1, strings.Count(ics, "CATEGORIES:FAVORITE"))
}

func TestExportFeed(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestingService()

	_, err := svc.ExportFeed(ctx, "u1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	saveTestingAgenda(t, svc, "u1", newTestingSnapshot(testingCatalog(), "ses-101", "ses-202"))

	atom, err := svc.ExportFeed(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, atom, "<feed")
	assert.Contains(t, atom, "ITC Vegas 2025 Smart Agenda")
	assert.Contains(t, atom, "2025-10-15 9:00 AM: Opening Keynote")
	assert.Contains(t, atom, "2025-10-16 9:00 AM: Pricing Engines")
	assert.Equal(t, 2, strings.Count(atom, "<entry>"))
	// rendered markdown is escaped into the content element
	assert.Contains(t, atom, "Ada Lin (Acme Mutual)")
	assert.Contains(t, atom, "&lt;strong&gt;Track:&lt;/strong&gt;")
}

func TestMarkdownDescription(t *testing.T) {
	session := catalogByID()["ses-101"]
	session.Description = "Where the industry is going."

	md := markdownDescription(session)
	assert.Equal(t, "Where the industry is going.\n\n**Track:** AI\n\n**Speakers:**\n\n- Ada Lin (Acme Mutual)", md)

	html, err := renderMarkdown(md)
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Track:</strong> AI")
	assert.Contains(t, html, "<li>Ada Lin (Acme Mutual)</li>")

	assert.Equal(t, "Where the industry is going.\n\nSpeakers: Ada Lin", plainDescription(session))
}
