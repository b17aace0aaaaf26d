package scheduling

// CategoryKey identifies the (event, activity category) pair that scopes
// sequential activity numbering.
type CategoryKey struct {
	EventID            string
	ActivityCategoryID string
}

// CategoryMember is the projection of an activity needed for index assignment.
type CategoryMember struct {
	EventID            string
	ActivityCategoryID string
	IndexInCategory    int
}

// NextCategoryIndex computes the next sequential index for a new activity
// within key. Members outside the pair are ignored, the empty set yields 1,
// and indices are never reclaimed after deletion (gaps are tolerated).
func NextCategoryIndex(key CategoryKey, members []CategoryMember) int {
	highest := 0
	for _, member := range members {
		if member.EventID != key.EventID || member.ActivityCategoryID != key.ActivityCategoryID {
			continue
		}
		if member.IndexInCategory > highest {
			highest = member.IndexInCategory
		}
	}
	return highest + 1
}
