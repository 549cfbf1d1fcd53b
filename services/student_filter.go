package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vnkhanh/hostel-server/models"
)

type StatusFilter string

const (
	StatusAll         StatusFilter = "all"
	StatusAllocated   StatusFilter = "allocated"
	StatusUnallocated StatusFilter = "unallocated"
)

// ParseStatusFilter treats an empty value as "all".
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", StatusAll:
		return StatusAll, nil
	case StatusAllocated, StatusUnallocated:
		return f, nil
	default:
		return "", &ValidationError{Err: fmt.Errorf("unknown status filter %q", raw)}
	}
}

// AllocatedSet holds the ids of students with an active allocation.
type AllocatedSet map[uuid.UUID]struct{}

func NewAllocatedSet(rows []models.ActiveAllocation) AllocatedSet {
	set := make(AllocatedSet, len(rows))
	for _, a := range rows {
		set[a.StudentID] = struct{}{}
	}
	return set
}

func (s AllocatedSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// FilterStudents applies the search term, then the status filter. The search
// matches name, email and course case-insensitively; phone is matched as typed.
// With an empty term and StatusAll the input slice is returned as is.
func FilterStudents(all []models.Profile, searchTerm string, status StatusFilter, allocated AllocatedSet) []models.Profile {
	filtered := all

	if searchTerm != "" {
		term := strings.ToLower(searchTerm)
		filtered = keep(filtered, func(p models.Profile) bool {
			return strings.Contains(strings.ToLower(p.FullName), term) ||
				strings.Contains(strings.ToLower(p.Email), term) ||
				(p.Course != nil && strings.Contains(strings.ToLower(*p.Course), term)) ||
				(p.Phone != nil && strings.Contains(*p.Phone, term))
		})
	}

	switch status {
	case StatusAllocated:
		return keep(filtered, func(p models.Profile) bool { return allocated.Has(p.ID) })
	case StatusUnallocated:
		return keep(filtered, func(p models.Profile) bool { return !allocated.Has(p.ID) })
	default:
		return filtered
	}
}

func keep(in []models.Profile, pred func(models.Profile) bool) []models.Profile {
	out := make([]models.Profile, 0, len(in))
	for _, p := range in {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
