package combine

import "github.com/padraicbc/racefeat/racekey"

// Data-type codes of the JRDB record types the default configuration knows.
const (
	KYI = "KYI" // entrant
	BAC = "BAC" // race metadata
	SED = "SED" // finishing results
	CYB = "CYB" // training analysis
	KAB = "KAB" // meeting-day going
	UKC = "UKC" // horse master
)

// FinishColumn holds the finishing position in result records.
const FinishColumn = "finish_pos"

// JoinConfig is the rule for left-joining one secondary record type.
type JoinConfig struct {
	// Keys are matched between the combined table and the secondary table.
	Keys []string
	// OptionalKeys are added to Keys when both sides carry the column.
	OptionalKeys []string
	// RaceKey makes the secondary rows take a race_key rebuilt from their
	// race columns and the race-metadata date, and adds race_key to Keys.
	RaceKey bool
	// FinishedOnly keeps rows with a strictly positive numeric finish_pos.
	FinishedOnly bool
}

// Config names the base and race-metadata types and the join rule for
// every other type the combiner accepts.
type Config struct {
	Base     string
	RaceMeta string
	// DatedRaceKey qualifies race_key with the race-metadata date.
	DatedRaceKey bool
	Joins        map[string]JoinConfig
}

// DefaultConfig covers the record types shipped in the format catalog.
func DefaultConfig() Config {
	return Config{
		Base:         KYI,
		RaceMeta:     BAC,
		DatedRaceKey: true,
		Joins: map[string]JoinConfig{
			SED: {Keys: []string{"horse_no"}, RaceKey: true, FinishedOnly: true},
			CYB: {Keys: []string{"horse_no"}, RaceKey: true},
			KAB: {
				Keys:         []string{racekey.Venue, racekey.Meeting, racekey.Day},
				OptionalKeys: []string{racekey.Year},
			},
			UKC: {Keys: []string{"horse_id"}},
		},
	}
}
