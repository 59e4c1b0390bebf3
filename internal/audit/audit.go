// Package audit keeps the append-only activity log: one row per completed
// user action, written best effort so a logging failure never undoes the
// action that caused it.
package audit

import (
	"time"

	"github.com/frahmantamala/hr-registry/internal/core/events"
	"github.com/frahmantamala/hr-registry/internal/sheet"
)

const (
	ColDate     = "Date"
	ColTime     = "Heure"
	ColUsername = "Utilisateur"
	ColAction   = "Action"
	ColDetails  = "Détails"
)

var Columns = []string{ColDate, ColTime, ColUsername, ColAction, ColDetails}

// Action tags, as published on the event bus.
const (
	ActionLogin       = events.ActionLogin
	ActionLogout      = events.ActionLogout
	ActionHire        = events.ActionHire
	ActionEdit        = events.ActionEdit
	ActionDepart      = events.ActionDepart
	ActionReintegrate = events.ActionReintegrate
	ActionDelete      = events.ActionDelete
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

type Entry struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Username string `json:"username"`
	Action   string `json:"action"`
	Details  string `json:"details"`
}

func NewEntry(at time.Time, username, action, details string) Entry {
	return Entry{
		Date:     at.Format(dateLayout),
		Time:     at.Format(timeLayout),
		Username: username,
		Action:   action,
		Details:  details,
	}
}

func (e Entry) Row() []string {
	return []string{e.Date, e.Time, e.Username, e.Action, e.Details}
}

func FromTable(t sheet.Table) []Entry {
	t = t.Conform(Columns)
	out := make([]Entry, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, Entry{
			Date:     row[0],
			Time:     row[1],
			Username: row[2],
			Action:   row[3],
			Details:  row[4],
		})
	}
	return out
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
