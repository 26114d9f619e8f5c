package redisx

import (
	"fmt"
	"time"
)

const (
	// Venue cache: venue:{venue_id} -> JSON venue
	KeyVenue = "venue:%s"

	// Email de-dup: email:sent:{notification_id}
	KeyEmailSent = "email:sent:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLVenueCache = 5 * time.Minute
	TTLEmailSent  = 24 * time.Hour
	TTLDedup      = 48 * time.Hour
)

func VenueKey(venueID string) string { return fmt.Sprintf(KeyVenue, venueID) }

func EmailSentKey(notificationID string) string { return fmt.Sprintf(KeyEmailSent, notificationID) }

func DedupKey(service, id string) string { return fmt.Sprintf(KeyDedup, service, id) }
