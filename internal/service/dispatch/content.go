package dispatch

import (
	"fmt"
	"html"
	"strings"

	"github.com/torsdagskos/backend/internal/civiltime"
	"github.com/torsdagskos/backend/internal/model"
)

const noDescription = "No description provided."

// Content is one rendered email, shared across every recipient of a trigger.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// ChangedField is one before/after pair in an event update.
type ChangedField struct {
	Label    string
	Previous string
	Updated  string
}

func normalizeText(value string) string {
	return strings.TrimSpace(value)
}

func normalizeNullableText(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

func buildNewEventEmail(civil *civiltime.Resolver, t NewEventTrigger) Content {
	formattedDate := civil.FormatEventDate(t.DateTime)
	zone := civil.Zone()

	description := normalizeText(t.Description)
	if description == "" {
		description = noDescription
	}

	safeTitle := html.EscapeString(t.Title)
	safeLocation := html.EscapeString(t.Location)
	safeDescription := html.EscapeString(description)

	text := strings.Join([]string{
		"A new event has been created.",
		"",
		"Title: " + t.Title,
		fmt.Sprintf("Date & time: %s (%s)", formattedDate, zone),
		"Location: " + t.Location,
		"Description: " + description,
	}, "\n")

	htmlBody := fmt.Sprintf(`
      <h2>New Torsdagskos Event</h2>
      <p>A new event has been created:</p>
      <ul>
        <li><strong>Title:</strong> %s</li>
        <li><strong>Date &amp; time:</strong> %s (%s)</li>
        <li><strong>Location:</strong> %s</li>
      </ul>
      <p><strong>Description:</strong></p>
      <p>%s</p>
    `, safeTitle, formattedDate, zone, safeLocation, safeDescription)

	return Content{
		Subject: "New Torsdagskos event: " + t.Title,
		HTML:    htmlBody,
		Text:    text,
	}
}

func buildReminderEmail(civil *civiltime.Resolver, ev model.Event) Content {
	formattedDate := civil.FormatEventDate(ev.DateTime)
	zone := civil.Zone()

	description := normalizeText(ev.Description)
	if description == "" {
		description = noDescription
	}

	safeTitle := html.EscapeString(ev.Title)
	safeLocation := html.EscapeString(ev.Location)
	safeDescription := html.EscapeString(description)

	mapLinkText := "Map link: (not provided)"
	mapLinkHTML := "<li><strong>Map link:</strong> Not provided</li>"
	if link := normalizeNullableText(ev.MapLink); link != nil {
		safeLink := html.EscapeString(*link)
		mapLinkText = "Map link: " + *link
		mapLinkHTML = fmt.Sprintf(`<li><strong>Map link:</strong> <a href="%s">%s</a></li>`, safeLink, safeLink)
	}

	text := strings.Join([]string{
		"Reminder: You have an event tomorrow.",
		"",
		"Title: " + ev.Title,
		fmt.Sprintf("Date & time: %s (%s)", formattedDate, zone),
		"Location: " + ev.Location,
		"Description: " + description,
		mapLinkText,
	}, "\n")

	htmlBody := fmt.Sprintf(`
      <h2>Torsdagskos Reminder</h2>
      <p>Your event is happening tomorrow:</p>
      <ul>
        <li><strong>Title:</strong> %s</li>
        <li><strong>Date &amp; time:</strong> %s (%s)</li>
        <li><strong>Location:</strong> %s</li>
        %s
      </ul>
      <p><strong>Description:</strong></p>
      <p>%s</p>
    `, safeTitle, formattedDate, zone, safeLocation, mapLinkHTML, safeDescription)

	return Content{
		Subject: fmt.Sprintf("Reminder: %s is tomorrow", ev.Title),
		HTML:    htmlBody,
		Text:    text,
	}
}

// changedFields diffs two snapshots in a fixed order: title, description,
// date & time, location, map link. The instant is compared numerically, never
// by formatted representation.
func changedFields(civil *civiltime.Resolver, previous, updated model.EventSnapshot) []ChangedField {
	zone := civil.Zone()

	var changes []ChangedField

	if normalizeText(previous.Title) != normalizeText(updated.Title) {
		changes = append(changes, ChangedField{
			Label:    "Title",
			Previous: previous.Title,
			Updated:  updated.Title,
		})
	}

	prevDescription := normalizeText(previous.Description)
	updDescription := normalizeText(updated.Description)
	if prevDescription != updDescription {
		changes = append(changes, ChangedField{
			Label:    "Description",
			Previous: orPlaceholder(prevDescription, "(empty)"),
			Updated:  orPlaceholder(updDescription, "(empty)"),
		})
	}

	if !previous.DateTime.Equal(updated.DateTime) {
		changes = append(changes, ChangedField{
			Label:    "Date & time",
			Previous: fmt.Sprintf("%s (%s)", civil.FormatEventDate(previous.DateTime), zone),
			Updated:  fmt.Sprintf("%s (%s)", civil.FormatEventDate(updated.DateTime), zone),
		})
	}

	if normalizeText(previous.Location) != normalizeText(updated.Location) {
		changes = append(changes, ChangedField{
			Label:    "Location",
			Previous: previous.Location,
			Updated:  updated.Location,
		})
	}

	prevMapLink := normalizeNullableText(previous.MapLink)
	updMapLink := normalizeNullableText(updated.MapLink)
	if !equalNullable(prevMapLink, updMapLink) {
		changes = append(changes, ChangedField{
			Label:    "Map link",
			Previous: derefOr(prevMapLink, "(none)"),
			Updated:  derefOr(updMapLink, "(none)"),
		})
	}

	return changes
}

func buildEventUpdateEmail(civil *civiltime.Resolver, t UpdateTrigger) Content {
	changes := changedFields(civil, t.Previous, t.Updated)
	zone := civil.Zone()

	title := t.Updated.Title
	if title == "" {
		title = t.Previous.Title
	}

	subject := "Event updated: " + title

	if len(changes) == 0 {
		text := strings.Join([]string{
			fmt.Sprintf("The event %q was updated, but no user-visible fields changed.", title),
			"",
			fmt.Sprintf("Date & time: %s (%s)", civil.FormatEventDate(t.Updated.DateTime), zone),
			"Location: " + t.Updated.Location,
		}, "\n")

		htmlBody := fmt.Sprintf(`
        <h2>Torsdagskos Event Updated</h2>
        <p>The event <strong>%s</strong> was updated, but no user-visible fields changed.</p>
        <ul>
          <li><strong>Date &amp; time:</strong> %s (%s)</li>
          <li><strong>Location:</strong> %s</li>
        </ul>
      `, html.EscapeString(title), civil.FormatEventDate(t.Updated.DateTime), zone, html.EscapeString(t.Updated.Location))

		return Content{Subject: subject, HTML: htmlBody, Text: text}
	}

	textChanges := make([]string, 0, len(changes))
	htmlChanges := make([]string, 0, len(changes))
	for _, change := range changes {
		textChanges = append(textChanges, fmt.Sprintf(
			"%s\n- Before: %s\n- After: %s",
			change.Label, change.Previous, change.Updated,
		))

		htmlChanges = append(htmlChanges, fmt.Sprintf(`
        <li>
          <strong>%s</strong><br />
          <span>Before: %s</span><br />
          <span>After: %s</span>
        </li>
      `, html.EscapeString(change.Label), html.EscapeString(change.Previous), html.EscapeString(change.Updated)))
	}

	text := strings.Join([]string{
		"An event has been updated: " + title,
		"",
		"What changed:",
		strings.Join(textChanges, "\n\n"),
	}, "\n")

	htmlBody := fmt.Sprintf(`
      <h2>Torsdagskos Event Updated</h2>
      <p>An event has been updated: <strong>%s</strong></p>
      <p><strong>What changed:</strong></p>
      <ul>
        %s
      </ul>
    `, html.EscapeString(title), strings.Join(htmlChanges, ""))

	return Content{Subject: subject, HTML: htmlBody, Text: text}
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}

	return value
}

func derefOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}

	return *value
}

func equalNullable(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
