// Package schema resolves optional column roles against a table header using
// ordered candidate name lists.
package schema

import "slices"

// Role is an optional column a view depends on.
type Role string

const (
	RoleLatitude     Role = "latitude"
	RoleLongitude    Role = "longitude"
	RoleConservation Role = "conservation"
)

// Roles returns all resolvable roles in report order.
func Roles() []Role {
	return []Role{RoleLatitude, RoleLongitude, RoleConservation}
}

// Candidates maps each role to its candidate column names, highest priority first.
type Candidates map[Role][]string

// DefaultCandidates returns the column names seen across the bird monitoring exports.
func DefaultCandidates() Candidates {
	return Candidates{
		RoleLatitude:     {"Latitude", "Lat", "Latitude_DD", "GPS_Latitude"},
		RoleLongitude:    {"Longitude", "Lon", "Longitude_DD", "GPS_Longitude"},
		RoleConservation: {"Conservation_Status", "PIF_Watchlist_Status", "Regional_Stewardship_Status"},
	}
}

// Resolution maps each role to the chosen column. Missing roles are absent.
type Resolution map[Role]string

// Column returns the resolved column for a role.
func (r Resolution) Column(role Role) (string, bool) {
	col, ok := r[role]
	return col, ok
}

// HasCoordinates reports whether both latitude and longitude resolved.
func (r Resolution) HasCoordinates() bool {
	_, lat := r[RoleLatitude]
	_, lon := r[RoleLongitude]
	return lat && lon
}

// Missing returns the unresolved roles in report order.
func (r Resolution) Missing() []Role {
	var missing []Role
	for _, role := range Roles() {
		if _, ok := r[role]; !ok {
			missing = append(missing, role)
		}
	}
	return missing
}

// FirstPresent returns the first candidate, in candidate order, that appears in columns.
// Matching is exact and case-sensitive.
func FirstPresent(columns, candidates []string) (string, bool) {
	for _, name := range candidates {
		if slices.Contains(columns, name) {
			return name, true
		}
	}
	return "", false
}

// Resolve picks a column for every role that has candidates.
func Resolve(columns []string, candidates Candidates) Resolution {
	res := make(Resolution, len(candidates))
	for role, names := range candidates {
		if col, ok := FirstPresent(columns, names); ok {
			res[role] = col
		}
	}
	return res
}
