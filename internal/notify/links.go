package notify

import "strings"

// Links builds absolute deep links into the web app. With an empty base the
// links stay relative.
type Links struct {
	Base string
}

func (l Links) Dashboard(venueID string) string {
	return l.abs("/dashboard/" + venueID + "/")
}

func (l Links) MyReservations() string {
	return l.abs("/my-reservations/")
}

func (l Links) abs(path string) string {
	return strings.TrimRight(l.Base, "/") + path
}
