// Package governance flattens a company's corporate-governance filing into
// board-of-directors and committee-membership rows.
package governance

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const unknown = "Unknown"

// Director is one board member.
type Director struct {
	Symbol      string
	Name        string
	DIN         string
	Designation string
	Tenure      string
	Membership  []string
}

// CommitteeMember is one seat on a board committee.
type CommitteeMember struct {
	Symbol               string
	Committee            string
	Name                 string
	Designation          string
	CommitteeDesignation string
}

// Filing is the flattened governance data for one symbol.
type Filing struct {
	Directors  []Director
	Committees []CommitteeMember
}

// Parse flattens a corporate-governance response. Directors come from
// cobod[0].data.CompositionBOD; committee seats from each non-empty list under
// coc[0].data, in document order.
func Parse(symbol string, doc gjson.Result) Filing {
	var f Filing

	doc.Get("cobod.0.data.CompositionBOD").ForEach(func(_, d gjson.Result) bool {
		f.Directors = append(f.Directors, Director{
			Symbol:      symbol,
			Name:        d.Get("title").String() + d.Get("directorName").String(),
			DIN:         d.Get("din").String(),
			Designation: d.Get("category").String(),
			Tenure:      d.Get("tenure").String(),
			Membership:  splitMembership(d.Get("membershipinCommofCompany").String()),
		})
		return true
	})

	committees := doc.Get("coc.0.data")
	if !committees.IsObject() {
		return f
	}
	committees.ForEach(func(name, members gjson.Result) bool {
		if !members.IsArray() {
			return true
		}
		members.ForEach(func(_, m gjson.Result) bool {
			if !m.IsObject() {
				return true
			}
			f.Committees = append(f.Committees, CommitteeMember{
				Symbol:               symbol,
				Committee:            name.String(),
				Name:                 orUnknown(m.Get("name")),
				Designation:          orUnknown(m.Get("category")),
				CommitteeDesignation: orUnknown(m.Get("chairPersonMember")),
			})
			return true
		})
		return true
	})
	return f
}

func splitMembership(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orUnknown(r gjson.Result) string {
	if !r.Exists() || r.Type == gjson.Null {
		return unknown
	}
	return r.String()
}

// membershipJSON renders a membership list as a JSON array for storage.
func membershipJSON(m []string) string {
	if m == nil {
		m = []string{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}
