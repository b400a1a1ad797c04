package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// The dashboard reports activity in the household's local zone, so
// date math done in any other zone would misattribute reading days.
// Everything that turns a timestamp into a calendar day goes through
// this location.
func Now() time.Time {
	return time.Now().In(Location)
}
