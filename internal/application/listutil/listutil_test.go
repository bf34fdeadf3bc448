package listutil

import (
	"net/url"
	"reflect"
	"testing"
)

var testColumns = Columns{Sort: []string{"username", "wins"}, Filters: []string{"skill"}}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		v    url.Values
		want Query
	}{
		{
			name: "defaults",
			v:    url.Values{},
			want: Query{Page: 1, PerPage: DefaultPerPage, Filters: map[string]string{}},
		},
		{
			name: "everything set",
			v:    url.Values{"page": {"3"}, "per_page": {"50"}, "sort": {"wins"}, "dir": {"DESC"}, "q": {"  man "}, "skill": {"advanced"}},
			want: Query{Page: 3, PerPage: 50, Sort: "wins", Desc: true, Search: "man", Filters: map[string]string{"skill": "advanced"}},
		},
		{
			name: "unknown values dropped",
			v:    url.Values{"page": {"-1"}, "per_page": {"25"}, "sort": {"password"}, "dir": {"sideways"}, "role": {"setter"}},
			want: Query{Page: 1, PerPage: DefaultPerPage, Filters: map[string]string{}},
		},
		{
			name: "garbage numbers",
			v:    url.Values{"page": {"two"}, "per_page": {"x"}},
			want: Query{Page: 1, PerPage: DefaultPerPage, Filters: map[string]string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.v, testColumns); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQuery_MatchesAndAccepts(t *testing.T) {
	if !(Query{}).Matches("anything") {
		t.Error("empty search should match")
	}
	q := Query{Search: "MAN", Filters: map[string]string{"skill": "advanced"}}
	if !q.Matches("Manu") || q.Matches("player1") {
		t.Error("substring match mismatch")
	}
	if !q.Accepts("skill", "advanced") || q.Accepts("skill", "beginner") {
		t.Error("skill filter mismatch")
	}
	if !q.Accepts("role", "libero") {
		t.Error("unfiltered key should accept anything")
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		q        Query
		want     []int
		wantInfo PageInfo
	}{
		{"first page", Query{Page: 1, PerPage: 2}, []int{1, 2}, PageInfo{Page: 1, PerPage: 2, Total: 5, TotalPages: 3}},
		{"last page", Query{Page: 3, PerPage: 2}, []int{5}, PageInfo{Page: 3, PerPage: 2, Total: 5, TotalPages: 3}},
		{"past the end", Query{Page: 9, PerPage: 2}, []int{5}, PageInfo{Page: 3, PerPage: 2, Total: 5, TotalPages: 3}},
		{"zero value", Query{}, []int{1, 2, 3, 4, 5}, PageInfo{Page: 1, PerPage: DefaultPerPage, Total: 5, TotalPages: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := Paginate(items, tt.q)
			if !reflect.DeepEqual(got, tt.want) || info != tt.wantInfo {
				t.Errorf("Paginate() = %v %+v, want %v %+v", got, info, tt.want, tt.wantInfo)
			}
		})
	}

	rows, info := Paginate([]string{}, Query{Page: 1, PerPage: 10})
	if len(rows) != 0 || info.TotalPages != 1 {
		t.Errorf("empty = %v %+v", rows, info)
	}
}
