package scheduling

// ReconcilePlan is the diff between an activity's persisted schedule set and
// the requested replacement set.
type ReconcilePlan struct {
	ToKeep   []Schedule
	ToDelete []Schedule
	ToCreate []Schedule
	// TimingChanged is true when any surviving schedule's start or duration
	// changed, or when the identity sets differ at all. Callers must treat it
	// as a hard cascade trigger: every registration of the activity is
	// invalidated when set.
	TimingChanged bool
}

// Final returns the schedule set that would exist after applying the plan,
// suitable for conflict validation.
func (p ReconcilePlan) Final() []Schedule {
	final := make([]Schedule, 0, len(p.ToKeep)+len(p.ToCreate))
	final = append(final, p.ToKeep...)
	final = append(final, p.ToCreate...)
	return final
}

// Empty reports whether the plan would leave the activity without schedules.
func (p ReconcilePlan) Empty() bool {
	return len(p.ToKeep)+len(p.ToCreate) == 0
}

// Reconcile matches the requested schedule set against the persisted one by
// identity. Requested schedules without a persisted identity are created,
// persisted schedules absent from the request are deleted (orphan cleanup),
// and the rest are kept with their requested fields. Submitting the exact
// persisted set is a no-op: nothing is deleted and TimingChanged stays false.
func Reconcile(old, requested []Schedule) ReconcilePlan {
	oldByID := make(map[string]Schedule, len(old))
	for _, schedule := range old {
		oldByID[schedule.ID] = schedule
	}

	plan := ReconcilePlan{}
	requestedIDs := make(map[string]struct{}, len(requested))

	for _, schedule := range requested {
		previous, known := oldByID[schedule.ID]
		if schedule.ID == "" || !known {
			plan.ToCreate = append(plan.ToCreate, schedule)
			continue
		}
		requestedIDs[schedule.ID] = struct{}{}
		if !previous.Start.Equal(schedule.Start) || previous.DurationMinutes != schedule.DurationMinutes {
			plan.TimingChanged = true
		}
		plan.ToKeep = append(plan.ToKeep, schedule)
	}

	for _, schedule := range old {
		if _, kept := requestedIDs[schedule.ID]; !kept {
			plan.ToDelete = append(plan.ToDelete, schedule)
		}
	}

	if len(plan.ToCreate) > 0 || len(plan.ToDelete) > 0 {
		plan.TimingChanged = true
	}

	return plan
}
