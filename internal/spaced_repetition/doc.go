// Package spaced_repetition schedules practice spots with an SM-2 derived
// update rule, compresses intervals ahead of a concert deadline, scores
// urgency and packs time-boxed practice sessions.
//
// Everything here is a pure function of its inputs: no storage, no clock,
// no logging. Callers load spots, pass the current time explicitly and
// persist the returned values.
//
//	s, err := spaced_repetition.NewScheduler(spaced_repetition.SchedulerConfig{})
//	if err != nil {
//	    return err
//	}
//	spot = s.RecordOutcome(spot, models.Good, piece.Deadline(), time.Now())
package spaced_repetition
