package models

// ReadSet lists the usernames that acknowledged an item. A nil set is empty.
type ReadSet []string

// Contains reports whether username acknowledged the item.
func (s ReadSet) Contains(username string) bool {
	for _, u := range s {
		if u == username {
			return true
		}
	}
	return false
}

// With returns a copy that includes username. Existing order is kept.
func (s ReadSet) With(username string) ReadSet {
	out := make(ReadSet, 0, len(s)+1)
	out = append(out, s...)
	if username == "" || s.Contains(username) {
		return out
	}
	return append(out, username)
}

// Without returns a copy with every occurrence of username removed.
func (s ReadSet) Without(username string) ReadSet {
	out := make(ReadSet, 0, len(s))
	for _, u := range s {
		if u != username {
			out = append(out, u)
		}
	}
	return out
}
