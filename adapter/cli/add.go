package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/spf13/cobra"
)

var (
	addDescription string
	addDue         string
)

var addCmd = &cobra.Command{
	Use:   "add [description...]",
	Short: "Add an item",
	Long: `Add a NOT_DONE item. The due date must lie in the future.

--due accepts:
- RFC3339 timestamps (2024-03-20T17:00:00Z) or zone-less ones read as UTC
- a date (2024-03-20), meaning midnight UTC
- a duration from now (2h, 90m, in 3h)
- today's end of day ("tonight"), tomorrow, next week, or a weekday name

Without --due the description is scanned for the same phrases.

Examples:
  todolist add --description "Buy milk" --due 2024-03-20T17:00:00Z
  todolist add "Buy milk tomorrow"
  todolist add "Call the bank by friday"
  todolist add "Water plants" --due "in 2h"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		now := app.Clock.Now().UTC()
		description := addDescription
		if description == "" {
			description = strings.Join(args, " ")
		}

		var due time.Time
		if addDue != "" {
			due, err = parseDue(addDue, now)
			if err != nil {
				return err
			}
		} else if extracted, rest := extractDueDate(description, now); extracted != nil {
			due = *extracted
			description = cleanDescription(rest)
		}

		added, err := app.AddItemHandler.Handle(cmd.Context(), commands.AddItemCommand{
			Description: description,
			DueDate:     due,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !jsonOutput {
			fmt.Fprintln(out, "Item added!")
		}
		return printItem(out, queries.ToItemDTO(added))
	},
}

var dueLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseDue reads an explicit --due value relative to now (UTC).
func parseDue(input string, now time.Time) (time.Time, error) {
	value := strings.TrimSpace(input)
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.UTC); err == nil {
		return t, nil
	}

	relative := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(value), "in "), "+")
	if d, err := time.ParseDuration(strings.ReplaceAll(relative, " ", "")); err == nil {
		return now.Add(d), nil
	}

	if t, _ := extractDueDate(value, now); t != nil {
		return *t, nil
	}
	return time.Time{}, fmt.Errorf("cannot read due date %q", input)
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// extractDueDate finds a due phrase in free text and returns the text
// without it. Day-based phrases resolve to midnight UTC of that day.
func extractDueDate(input string, now time.Time) (*time.Time, string) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	relativeDates := []struct {
		keyword string
		date    time.Time
	}{
		{"next week", today.AddDate(0, 0, 7)},
		{"tomorrow", today.AddDate(0, 0, 1)},
		{"tonight", today.Add(23*time.Hour + 59*time.Minute)},
	}
	for _, rd := range relativeDates {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(rd.keyword) + `\b`)
		if re.MatchString(input) {
			d := rd.date
			return &d, re.ReplaceAllString(input, "")
		}
	}

	for dayName, weekday := range weekdays {
		re := regexp.MustCompile(`(?i)\b(?:by\s+|next\s+|on\s+)?` + dayName + `\b`)
		if re.MatchString(input) {
			date := nextWeekday(today, weekday)
			return &date, re.ReplaceAllString(input, "")
		}
	}

	datePattern := regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	if matches := datePattern.FindStringSubmatch(input); len(matches) > 1 {
		if date, err := time.ParseInLocation("2006-01-02", matches[1], time.UTC); err == nil {
			return &date, datePattern.ReplaceAllString(input, "")
		}
	}

	return nil, input
}

func nextWeekday(from time.Time, target time.Weekday) time.Time {
	daysUntil := int(target) - int(from.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	return from.AddDate(0, 0, daysUntil)
}

var (
	whitespace     = regexp.MustCompile(`\s+`)
	leadingFiller  = regexp.MustCompile(`(?i)^\s*(?:by|for|at|on|due)\s+`)
	trailingFiller = regexp.MustCompile(`(?i)\s+(?:by|for|at|on|due)\s*$`)
)

// cleanDescription collapses whitespace left behind by extractDueDate and
// drops a dangling "by"/"due" and similar.
func cleanDescription(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = leadingFiller.ReplaceAllString(s, "")
	s = trailingFiller.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "item description")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date")
	rootCmd.AddCommand(addCmd)
}
