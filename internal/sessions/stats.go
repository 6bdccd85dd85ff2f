package sessions

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/strrl/chatdash/pkg/models"
)

// StatusBreakdown buckets sessions for the status ring: no messages is on
// hold, anything unread is in progress, the rest is completed.
func StatusBreakdown(sessions []models.SessionSummary) models.ProportionRecord {
	var r models.ProportionRecord
	for _, s := range sessions {
		switch {
		case s.LatestMessage == nil:
			r.OnHold++
		case s.UnreadCount > 0:
			r.InProgress++
		default:
			r.Completed++
		}
	}
	return r
}

// UnreadByParticipant sums unread messages per display name, largest first.
// Participants with nothing unread are left out. limit <= 0 keeps all.
func UnreadByParticipant(sessions []models.SessionSummary, limit int) []models.CategoryEntry {
	groups := lo.GroupBy(sessions, func(s models.SessionSummary) string {
		return s.DisplayName()
	})
	names := lo.Uniq(lo.Map(sessions, func(s models.SessionSummary, _ int) string {
		return s.DisplayName()
	}))

	entries := lo.FilterMap(names, func(name string, _ int) (models.CategoryEntry, bool) {
		group := groups[name]
		unread := lo.SumBy(group, func(s models.SessionSummary) int {
			return max(s.UnreadCount, 0)
		})
		if unread == 0 {
			return models.CategoryEntry{}, false
		}
		return models.CategoryEntry{
			Title:   name,
			Count:   float64(unread),
			Tooltip: fmt.Sprintf("%s: %d unread in %d %s", name, unread, len(group), plural(len(group), "chat", "chats")),
		}, true
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
