package identity

import "testing"

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Manchester United", "Man Utd", true},
		{"Arsenal", "Chelsea", false},
		{"Liverpool FC", "Liverpool", true},
		{"Tottenham Hotspur", "Tottenham", true},
		{"Borussia Dortmund", "Borussia Dortmnd", true},
		{"Wolverhampton", "Wolverhamptn", true},
		{"Everton", "Evertn", true},
		{"Roma", "Rome", true},
		{"Roma", "Lazio", false},
		{"Real Madrid", "Real Betis", false},
		{"", "Arsenal", false},
		{"FC", "City", false},
	}
	for _, tt := range tests {
		if got := NamesMatch(tt.a, tt.b); got != tt.want {
			t.Errorf("NamesMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := NamesMatch(tt.b, tt.a); got != tt.want {
			t.Errorf("NamesMatch(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Liverpool FC", "liverpool"},
		{"Manchester United", "manchester"},
		{"Man Utd", "man"},
		{"Leicester City", "leicester"},
		{"  St. Pauli ", "stpauli"},
		{"Fcsb", "fcsb"},
		{"Brighton & Hove Albion", "brightonhovealbion"},
		{"1. FC Köln", "1köln"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"arsenal", "arsenal", 0},
		{"köln", "koln", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSplitTeams(t *testing.T) {
	tests := []struct {
		in         string
		home, away string
		ok         bool
	}{
		{"Arsenal vs Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal - Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal v Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal – Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal", "", "", false},
		{" vs Chelsea", "", "", false},
	}
	for _, tt := range tests {
		h, a, ok := SplitTeams(tt.in)
		if h != tt.home || a != tt.away || ok != tt.ok {
			t.Errorf("SplitTeams(%q) = %q, %q, %v; want %q, %q, %v", tt.in, h, a, ok, tt.home, tt.away, tt.ok)
		}
	}
}
