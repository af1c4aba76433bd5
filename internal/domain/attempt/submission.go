package attempt

import (
	"fmt"
	"time"

	"github.com/okian/cragrank/internal/domain/model"
)

// Submission is one judge input addressed to a (climber, boulder) pair of
// a group. ID is the idempotency key.
type Submission struct {
	ID        string          `json:"submissionId"`
	RoundID   model.RoundID   `json:"roundId"`
	GroupID   model.GroupID   `json:"groupId"`
	ClimberID model.ClimberID `json:"climberId"`
	BoulderID model.BoulderID `json:"boulderId"`
	Attempt   Attempt         `json:"attempt"`
	// PartitionKey routes every submission of one category to the same worker.
	PartitionKey string    `json:"-"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// PartitionKey builds the routing key of a category inside a competition.
func PartitionKey(competition model.CompetitionID, category model.Category) string {
	return fmt.Sprintf("%d/%s", competition, category.Key())
}
