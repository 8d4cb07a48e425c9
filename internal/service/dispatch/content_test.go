package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torsdagskos/backend/internal/civiltime"
	"github.com/torsdagskos/backend/internal/model"
)

func osloResolver(t *testing.T) *civiltime.Resolver {
	t.Helper()

	civil, err := civiltime.New("Europe/Oslo")
	require.NoError(t, err)
	return civil
}

func strPtr(s string) *string { return &s }

func baseSnapshot() model.EventSnapshot {
	return model.EventSnapshot{
		Title:       "Thursday gathering",
		Description: "Food and games",
		DateTime:    time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC),
		Location:    "The usual place",
	}
}

func TestChangedFields_LocationOnly(t *testing.T) {
	civil := osloResolver(t)

	previous := baseSnapshot()
	updated := baseSnapshot()
	updated.Location = "New spot downtown"

	changes := changedFields(civil, previous, updated)

	require.Len(t, changes, 1)
	assert.Equal(t, "Location", changes[0].Label)
	assert.Equal(t, "The usual place", changes[0].Previous)
	assert.Equal(t, "New spot downtown", changes[0].Updated)
}

func TestChangedFields_AllFieldsInFixedOrder(t *testing.T) {
	civil := osloResolver(t)

	previous := baseSnapshot()
	updated := model.EventSnapshot{
		Title:       "Moved gathering",
		Description: "",
		DateTime:    time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC),
		Location:    "Somewhere else",
		MapLink:     strPtr("https://maps.example.com/somewhere"),
	}

	changes := changedFields(civil, previous, updated)

	require.Len(t, changes, 5)
	labels := make([]string, len(changes))
	for i, c := range changes {
		labels[i] = c.Label
	}
	assert.Equal(t, []string{"Title", "Description", "Date & time", "Location", "Map link"}, labels)

	// Cleared description and absent map links render placeholders.
	assert.Equal(t, "(empty)", changes[1].Updated)
	assert.Equal(t, "(none)", changes[4].Previous)
}

func TestChangedFields_WhitespaceOnlyChangeIgnored(t *testing.T) {
	civil := osloResolver(t)

	previous := baseSnapshot()
	updated := baseSnapshot()
	updated.Title = "  Thursday gathering  "
	updated.MapLink = strPtr("   ")

	changes := changedFields(civil, previous, updated)
	assert.Empty(t, changes)
}

func TestChangedFields_DateComparedNumerically(t *testing.T) {
	civil := osloResolver(t)

	previous := baseSnapshot()
	updated := baseSnapshot()
	// Same instant in a different location value; must not register a change.
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	updated.DateTime = previous.DateTime.In(loc)

	changes := changedFields(civil, previous, updated)
	assert.Empty(t, changes)
}

func TestBuildEventUpdateEmail_NoChanges(t *testing.T) {
	civil := osloResolver(t)

	content := buildEventUpdateEmail(civil, UpdateTrigger{
		EventID:  1,
		Previous: baseSnapshot(),
		Updated:  baseSnapshot(),
	})

	assert.Equal(t, "Event updated: Thursday gathering", content.Subject)
	assert.Contains(t, content.Text, "no user-visible fields changed")
	assert.Contains(t, content.HTML, "no user-visible fields changed")
}

func TestBuildEventUpdateEmail_ListsEveryChange(t *testing.T) {
	civil := osloResolver(t)

	previous := baseSnapshot()
	updated := baseSnapshot()
	updated.Title = "Moved gathering"
	updated.Location = "Somewhere else"

	content := buildEventUpdateEmail(civil, UpdateTrigger{EventID: 1, Previous: previous, Updated: updated})

	assert.Contains(t, content.Text, "Title")
	assert.Contains(t, content.Text, "Before: Thursday gathering")
	assert.Contains(t, content.Text, "After: Moved gathering")
	assert.Contains(t, content.Text, "Before: The usual place")
	assert.Contains(t, content.Text, "After: Somewhere else")
}

func TestBuildNewEventEmail_EscapesHTML(t *testing.T) {
	civil := osloResolver(t)

	content := buildNewEventEmail(civil, NewEventTrigger{
		EventID:     1,
		Title:       `<script>alert("x")</script>`,
		Description: "Tom & Jerry",
		DateTime:    time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC),
		Location:    "A <b>place</b>",
	})

	assert.NotContains(t, content.HTML, "<script>")
	assert.Contains(t, content.HTML, "&lt;script&gt;")
	assert.Contains(t, content.HTML, "Tom &amp; Jerry")
	// Plain text keeps the raw values.
	assert.Contains(t, content.Text, `<script>alert("x")</script>`)
}

func TestBuildNewEventEmail_DescriptionPlaceholder(t *testing.T) {
	civil := osloResolver(t)

	content := buildNewEventEmail(civil, NewEventTrigger{
		EventID:  1,
		Title:    "Thursday gathering",
		DateTime: time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC),
		Location: "The usual place",
	})

	assert.Contains(t, content.Text, "No description provided.")
	assert.Contains(t, content.HTML, "No description provided.")
	// 17:00 UTC in March is 18:00 in Oslo.
	assert.Contains(t, content.Text, "Thursday 5 March 2026, 18:00 (Europe/Oslo)")
}

func TestBuildReminderEmail_MapLinkVariants(t *testing.T) {
	civil := osloResolver(t)

	ev := model.Event{
		ID:       1,
		Title:    "Thursday gathering",
		DateTime: time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC),
		Location: "The usual place",
	}

	content := buildReminderEmail(civil, ev)
	assert.Equal(t, "Reminder: Thursday gathering is tomorrow", content.Subject)
	assert.Contains(t, content.Text, "Map link: (not provided)")
	assert.Contains(t, content.HTML, "Not provided")

	ev.MapLink = strPtr("https://maps.example.com/place")
	content = buildReminderEmail(civil, ev)
	assert.Contains(t, content.Text, "Map link: https://maps.example.com/place")
	assert.True(t, strings.Contains(content.HTML, `<a href="https://maps.example.com/place">`))
}
