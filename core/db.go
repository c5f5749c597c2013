package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses a comma separated list of fields, eg: "nombre,-codigo".
// A leading "-" means descending. Fields missing from allowed are dropped;
// allowed maps API field names to their storage field names.
func ParseOrdering(s string, allowed map[string]string) []DBOrdering {
	if s == "" {
		return nil
	}
	var ords []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		col, ok := allowed[field]
		if !ok {
			continue
		}
		ords = append(ords, DBOrdering{Field: col, Ascending: !descending})
	}
	return ords
}
