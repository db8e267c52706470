package toolserver

import (
	"encoding/json"
	"fmt"
	"strings"
)

// College is one embedded dataset record.
type College struct {
	Name       string   `json:"name"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	Enrollment int      `json:"enrollment"`
	FocusAreas []string `json:"focusAreas"`
}

// Place is one gazetteer record.
type Place struct {
	Name      string  `json:"name"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// colleges is the embedded dataset. Small on purpose: the engine only
// needs a realistic tool to talk to, not a complete directory.
var colleges = []College{
	{Name: "Massachusetts Institute of Technology", City: "Cambridge", State: "MA", Enrollment: 11920, FocusAreas: []string{"engineering", "computer science", "physics"}},
	{Name: "Harvard University", City: "Cambridge", State: "MA", Enrollment: 21613, FocusAreas: []string{"law", "medicine", "economics"}},
	{Name: "Stanford University", City: "Stanford", State: "CA", Enrollment: 17680, FocusAreas: []string{"computer science", "business", "engineering"}},
	{Name: "University of California, Berkeley", City: "Berkeley", State: "CA", Enrollment: 45307, FocusAreas: []string{"engineering", "chemistry", "public policy"}},
	{Name: "Carnegie Mellon University", City: "Pittsburgh", State: "PA", Enrollment: 15818, FocusAreas: []string{"computer science", "robotics", "drama"}},
	{Name: "University of Michigan", City: "Ann Arbor", State: "MI", Enrollment: 51225, FocusAreas: []string{"engineering", "medicine", "business"}},
	{Name: "Georgia Institute of Technology", City: "Atlanta", State: "GA", Enrollment: 45296, FocusAreas: []string{"engineering", "computing", "industrial design"}},
	{Name: "University of Texas at Austin", City: "Austin", State: "TX", Enrollment: 52384, FocusAreas: []string{"computer science", "petroleum engineering", "business"}},
	{Name: "Yale University", City: "New Haven", State: "CT", Enrollment: 14776, FocusAreas: []string{"law", "drama", "history"}},
	{Name: "University of Washington", City: "Seattle", State: "WA", Enrollment: 52319, FocusAreas: []string{"computer science", "medicine", "oceanography"}},
}

// places is the embedded gazetteer, keyed lookups are case-insensitive
// on name with optional ", ST" suffix.
var places = []Place{
	{Name: "Cambridge", State: "MA", Latitude: 42.3736, Longitude: -71.1097},
	{Name: "Boston", State: "MA", Latitude: 42.3601, Longitude: -71.0589},
	{Name: "Stanford", State: "CA", Latitude: 37.4275, Longitude: -122.1697},
	{Name: "Berkeley", State: "CA", Latitude: 37.8715, Longitude: -122.2730},
	{Name: "Pittsburgh", State: "PA", Latitude: 40.4406, Longitude: -79.9959},
	{Name: "Ann Arbor", State: "MI", Latitude: 42.2808, Longitude: -83.7430},
	{Name: "Atlanta", State: "GA", Latitude: 33.7490, Longitude: -84.3880},
	{Name: "Austin", State: "TX", Latitude: 30.2672, Longitude: -97.7431},
	{Name: "New Haven", State: "CT", Latitude: 41.3083, Longitude: -72.9279},
	{Name: "Seattle", State: "WA", Latitude: 47.6062, Longitude: -122.3321},
}

const defaultSearchLimit = 5

// searchColleges matches the query case-insensitively against name,
// city, state and focus areas, in dataset order.
func searchColleges(query string, limit int) []College {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	var matches []College
	for _, c := range colleges {
		if collegeMatches(c, needle) {
			matches = append(matches, c)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

func collegeMatches(c College, needle string) bool {
	if strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.City), needle) ||
		strings.EqualFold(c.State, needle) {
		return true
	}
	for _, area := range c.FocusAreas {
		if strings.Contains(strings.ToLower(area), needle) {
			return true
		}
	}
	return false
}

// lookupPlace resolves "City" or "City, ST" against the gazetteer.
func lookupPlace(location string) (Place, bool) {
	name := location
	state := ""
	if idx := strings.LastIndex(location, ","); idx >= 0 {
		name = strings.TrimSpace(location[:idx])
		state = strings.TrimSpace(location[idx+1:])
	}

	for _, p := range places {
		if !strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			continue
		}
		if state != "" && !strings.EqualFold(p.State, state) {
			continue
		}
		return p, true
	}
	return Place{}, false
}

func encodeColleges(matches []College) (string, error) {
	data, err := json.Marshal(matches)
	if err != nil {
		return "", fmt.Errorf("marshal colleges: %w", err)
	}
	return string(data), nil
}

func encodePlace(p Place) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal place: %w", err)
	}
	return string(data), nil
}
