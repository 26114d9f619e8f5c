package reservations

const TopicReservationEvents = "reservation.events"

// Partition key = reservation id, so every event of one reservation keeps its order.
func PartitionKey(reservationID string) []byte { return []byte(reservationID) }
