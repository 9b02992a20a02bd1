package intent

import "testing"

func TestParse_YearAndQuality(t *testing.T) {
	router := NewRouter(DefaultConfig())

	tests := []struct {
		text        string
		wantYear    int
		wantQuality string
		wantTitle   string
	}{
		{"Find Inception in 1080p", 0, "1080p", "Inception"},
		{"Add the movie Interstellar from 2014", 2014, "", "Interstellar"},
		{"grab Alien in UHD", 0, "UHD", "Alien"},
		{"request Dune in 4k", 0, "4k", "Dune"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := router.Parse(tt.text).Context
			if got.Year != tt.wantYear {
				t.Errorf("Parse(%q) year = %d, want %d", tt.text, got.Year, tt.wantYear)
			}
			if got.Quality != tt.wantQuality {
				t.Errorf("Parse(%q) quality = %q, want %q", tt.text, got.Quality, tt.wantQuality)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Parse(%q) title = %q, want %q", tt.text, got.Title, tt.wantTitle)
			}
		})
	}
}

func TestParse_SeasonAndEpisode(t *testing.T) {
	router := NewRouter(DefaultConfig())

	tests := []struct {
		text        string
		wantSeason  int
		wantEpisode int
		wantTitle   string
	}{
		{"get Breaking Bad S03E05", 3, 5, "Breaking Bad"},
		{"download season 2 of Westworld", 2, 0, "Westworld"},
		{"play episode 7 of Severance", 0, 7, "Severance"},
		{"watch Dark s2", 2, 0, "Dark"},
		{"grab Foundation e9", 0, 9, "Foundation"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := router.Parse(tt.text).Context
			if got.Season != tt.wantSeason {
				t.Errorf("Parse(%q) season = %d, want %d", tt.text, got.Season, tt.wantSeason)
			}
			if got.Episode != tt.wantEpisode {
				t.Errorf("Parse(%q) episode = %d, want %d", tt.text, got.Episode, tt.wantEpisode)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Parse(%q) title = %q, want %q", tt.text, got.Title, tt.wantTitle)
			}
		})
	}
}

func TestParse_TitlePatterns(t *testing.T) {
	router := NewRouter(DefaultConfig())

	tests := []struct {
		name      string
		text      string
		wantTitle string
	}{
		{"double quoted", `Add "The Office" to sonarr`, "The Office"},
		{"called with single quotes", "add the series called 'Dark Matter' now", "Dark Matter"},
		{"capitalized after noun", "add the movie Dune Part Two", "Dune Part Two"},
		{"leftover span", "Search for Dune", "Dune"},
		{"nothing left", "get subtitles in french", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Parse(tt.text).Context
			if got.Title != tt.wantTitle {
				t.Errorf("Parse(%q) title = %q, want %q", tt.text, got.Title, tt.wantTitle)
			}
		})
	}
}

func TestParse_Language(t *testing.T) {
	router := NewRouter(DefaultConfig())

	tests := []struct {
		text         string
		wantLanguage string
	}{
		{"download spanish subs for Coco", "Spanish"},
		{"get subtitles in french", "French"},
		{"fetch korean captions", "Korean"},
		{"download subtitles for Dune", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := router.Parse(tt.text).Context
			if got.Language != tt.wantLanguage {
				t.Errorf("Parse(%q) language = %q, want %q", tt.text, got.Language, tt.wantLanguage)
			}
		})
	}
}

func TestParse_Flags(t *testing.T) {
	router := NewRouter(DefaultConfig())

	tests := []struct {
		name            string
		text            string
		wantMonitored   bool
		wantSearchOnAdd bool
		wantIs4K        bool
	}{
		{"defaults", "add Dune", true, true, false},
		{"unmonitor", "unmonitor the show Lost", false, true, false},
		{"no search on add", "add Dune but don't search yet", true, false, false},
		{"4k flag", "request Dune in 4k", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Parse(tt.text).Context
			if got.Monitored != tt.wantMonitored {
				t.Errorf("Parse(%q) monitored = %v, want %v", tt.text, got.Monitored, tt.wantMonitored)
			}
			if got.SearchOnAdd != tt.wantSearchOnAdd {
				t.Errorf("Parse(%q) searchOnAdd = %v, want %v", tt.text, got.SearchOnAdd, tt.wantSearchOnAdd)
			}
			if got.Is4K != tt.wantIs4K {
				t.Errorf("Parse(%q) is4K = %v, want %v", tt.text, got.Is4K, tt.wantIs4K)
			}
		})
	}
}
