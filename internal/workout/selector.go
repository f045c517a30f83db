package workout

// NextPending returns the id of the first pending entry after afterID,
// wrapping around to the start of the list and stopping before afterID
// itself. A nil or unknown afterID scans the whole list from the start.
// It returns nil when no entry other than the reference is pending.
func NextPending(entries []Entry, afterID *string) *string {
	ref := -1
	if afterID != nil {
		for i := range entries {
			if entries[i].ID == *afterID {
				ref = i
				break
			}
		}
	}
	for i := ref + 1; i < len(entries); i++ {
		if entries[i].Status == EntryPending {
			return stringPtr(entries[i].ID)
		}
	}
	for i := 0; i < ref; i++ {
		if entries[i].Status == EntryPending {
			return stringPtr(entries[i].ID)
		}
	}
	return nil
}
