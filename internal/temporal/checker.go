package temporal

import (
	"fmt"
	"time"
)

const (
	// ClauseID identifies the synthetic operating-hours violation
	ClauseID = "INTERNAL-TIME-01"

	// RuleName is the fixed rule name attached to the verdict
	RuleName = "Operating Hours Compliance"

	// Permitted calling window in local (IST) hours: [openingHour, closingHour)
	openingHour = 8
	closingHour = 19
)

// ist is the fixed local offset calls are judged against (UTC+5:30)
var ist = time.FixedZone("IST", 5*3600+30*60)

// Verdict is the result of the operating-hours check
type Verdict struct {
	Violation   bool   `json:"violation"`
	LocalTime   string `json:"ist_time"`
	ClauseID    string `json:"clause_id"`
	RuleName    string `json:"rule_name"`
	Description string `json:"description"`
}

// CheckCallTime maps a call's UTC timestamp to an operating-hours verdict.
// The permitted window is 8 AM to 7 PM IST; hour 8 is an inclusive start.
// Unparsable input fails soft with violation=false and an error note.
func CheckCallTime(callTimestampUTC string) Verdict {
	utc, err := time.Parse(time.RFC3339, callTimestampUTC)
	if err != nil {
		return Verdict{
			Violation:   false,
			LocalTime:   "unknown",
			ClauseID:    ClauseID,
			RuleName:    RuleName,
			Description: "Could not determine call time. Timestamp parse error.",
		}
	}

	local := utc.In(ist)
	hour := local.Hour()
	localTime := local.Format("15:04")

	violation := hour < openingHour || hour >= closingHour

	var description string
	if violation {
		period := "evening (after 7 PM)"
		if hour < openingHour {
			period = "morning (before 8 AM)"
		}
		description = fmt.Sprintf(
			"Call placed outside approved hours (8 AM - 7 PM IST). Call was received at %s IST, which is in the %s.",
			localTime, period,
		)
	} else {
		description = fmt.Sprintf("Call placed within approved hours. IST time: %s.", localTime)
	}

	return Verdict{
		Violation:   violation,
		LocalTime:   localTime,
		ClauseID:    ClauseID,
		RuleName:    RuleName,
		Description: description,
	}
}
