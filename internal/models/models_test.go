package models

import "testing"

func TestTrack(t *testing.T) {
	valid := func() *Track {
		return &Track{
			ISRC:      "USRC17607839",
			SpotifyID: "sp1",
			Name:      "Song",
			Artists:   []ArtistRef{"b", "a"},
		}
	}

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*Track)
			wantErr bool
		}{
			{name: "valid", mutate: func(*Track) {}},
			{name: "missing isrc", mutate: func(tr *Track) { tr.ISRC = "" }, wantErr: true},
			{name: "missing spotify id", mutate: func(tr *Track) { tr.SpotifyID = "" }, wantErr: true},
			{name: "missing name", mutate: func(tr *Track) { tr.Name = "" }, wantErr: true},
			{name: "no artists", mutate: func(tr *Track) { tr.Artists = nil }, wantErr: false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				track := valid()
				tt.mutate(track)
				if err := track.Validate(); (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("ArtistIDs keeps credit order", func(t *testing.T) {
		ids := valid().ArtistIDs()
		if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
			t.Errorf("expected [b a], got %v", ids)
		}
	})
}

func TestArtist(t *testing.T) {
	artist := &Artist{ID: "id-1", SpotifyID: "sp", Name: "Name"}
	if err := artist.Validate(); err != nil {
		t.Errorf("expected valid artist, got %v", err)
	}
	if artist.Ref() != ArtistRef("id-1") {
		t.Errorf("expected ref id-1, got %s", artist.Ref())
	}

	if err := (&Artist{Name: "x"}).Validate(); err == nil {
		t.Error("expected error for missing spotify id")
	}
}
