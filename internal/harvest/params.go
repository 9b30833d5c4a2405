package harvest

// Combinations expands list parameters into every single-valued assignment,
// varying the last list fastest. No list parameters yields one empty
// assignment.
func Combinations(params []Param) []map[string]string {
	combos := []map[string]string{{}}
	for _, p := range params {
		if !p.List {
			continue
		}
		next := make([]map[string]string, 0, len(combos)*len(p.Values))
		for _, base := range combos {
			for _, v := range p.Values {
				c := make(map[string]string, len(base)+1)
				for k, bv := range base {
					c[k] = bv
				}
				c[p.Key] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}
