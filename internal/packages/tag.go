package packages

// Tag marks transient state a package has while the operation queue owns it.
type Tag int

const (
	TagDefault Tag = iota
	TagOnQueue
	TagBeingProcessed
	TagIgnored
)

func (t Tag) String() string {
	switch t {
	case TagOnQueue:
		return "on-queue"
	case TagBeingProcessed:
		return "being-processed"
	case TagIgnored:
		return "ignored"
	default:
		return "default"
	}
}

// Busy reports whether a package with this tag must be left out of a new
// update batch.
func (t Tag) Busy() bool {
	return t == TagOnQueue || t == TagBeingProcessed
}
