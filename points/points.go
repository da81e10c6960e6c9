// Package points scores a weekly metric vector against a weight table.
package points

import (
	"chapterstats/models"
)

// Weights is the scoring table applied to a weekly metric vector. It is
// plain data so a rule change is a value change, not a code change.
type Weights struct {
	Present    int
	Absent     int
	Late       int
	Medical    int
	Substitute int
	Referral   int
	Visitor    int
	OneToOne   int
	CEU        int
	Training   int
	// TYFCBPer1000 is awarded once per full 1000 currency units of closed
	// business; the remainder is dropped.
	TYFCBPer1000 int
}

// Default is the current chapter scoring table. Late, medical and substitute
// attendance count like presence; closed business pays 5 points per full
// 1000 units.
var Default = Weights{
	Present:      2,
	Absent:       -2,
	Late:         2,
	Medical:      2,
	Substitute:   2,
	Referral:     5,
	Visitor:      10,
	OneToOne:     5,
	CEU:          5,
	Training:     5,
	TYFCBPer1000: 5,
}

// Total computes the score for a metric vector. Pure and deterministic.
func (w Weights) Total(m models.Metrics) int {
	total := m.Present * w.Present
	total += m.Absent * w.Absent
	total += m.Late * w.Late
	total += m.Medical * w.Medical
	total += m.Substitute * w.Substitute
	total += (m.ReferralsGivenIn + m.ReferralsGivenOut + m.ReferralsReceivedIn + m.ReferralsReceivedOut) * w.Referral
	total += m.Visitors * w.Visitor
	total += m.OneToOnes * w.OneToOne
	total += m.CEU * w.CEU
	total += m.Trainings * w.Training
	total += int(m.TYFCBAmount) / 1000 * w.TYFCBPer1000
	return total
}
