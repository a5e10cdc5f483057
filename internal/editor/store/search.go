package store

import (
	"fmt"
	"strconv"
	"strings"
)

// SearchResult описывает найденный узел иерархии и путь к нему.
type SearchResult struct {
	Type string   `json:"type"` // complex, siteplan, building, floorplan
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Path []string `json:"path"`
}

// Search ищет подстроку без учета регистра по именам и метаданным документов.
func (s *Store) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []SearchResult{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := []SearchResult{}
	for _, c := range s.state.Complexes {
		if strings.Contains(strings.ToLower(c.Name), q) {
			results = append(results, SearchResult{Type: "complex", ID: c.ID, Name: c.Name, Path: []string{c.Name}})
		}
		for _, sp := range c.SitePlans {
			if strings.Contains(strings.ToLower(sp.Name), q) {
				results = append(results, SearchResult{Type: "siteplan", ID: sp.ID, Name: sp.Name, Path: []string{c.Name, sp.Name}})
			}
			for _, b := range sp.Buildings {
				if strings.Contains(strings.ToLower(b.Name), q) {
					results = append(results, SearchResult{Type: "building", ID: b.ID, Name: b.Name, Path: []string{c.Name, sp.Name, b.Name}})
				}
				for _, fp := range b.Floorplans {
					m := fp.Metadata
					floor := ""
					if m.FloorNumber != nil {
						floor = strconv.Itoa(*m.FloorNumber)
					}
					text := strings.ToLower(strings.Join([]string{
						strings.Join(m.UnitNumbers, ", "),
						floor,
						m.BuildingID,
						m.FloorplanType,
					}, " "))
					if !strings.Contains(text, q) {
						continue
					}
					name := floorplanName(m.FloorplanType, floor, m.UnitNumbers)
					results = append(results, SearchResult{
						Type: "floorplan",
						ID:   fp.ID,
						Name: name,
						Path: []string{c.Name, sp.Name, b.Name, name},
					})
				}
			}
		}
	}
	return results
}

func floorplanName(kind, floor string, units []string) string {
	switch {
	case kind != "":
		return kind
	case len(units) > 0:
		return "Unit " + strings.Join(units, ", ")
	case floor != "":
		return fmt.Sprintf("Floor %s", floor)
	default:
		return "Untitled Floorplan"
	}
}
