package notify

import (
	"fmt"
	"strings"
	"time"

	"sitewatch/internal/domain"
)

const alertTimeLayout = "2006-01-02 15:04:05 UTC"

// RenderMessage formats the alert text for a transition. Every webhook
// receives the same rendered message.
func RenderMessage(tr domain.Transition) string {
	name := tr.Site.DisplayName()
	when := tr.Result.CheckedAt.UTC().Format(alertTimeLayout)

	var b strings.Builder
	if tr.To == domain.StatusDown {
		fmt.Fprintf(&b, "🔴 Website Down Alert\n")
		fmt.Fprintf(&b, "Site: %s (%s)\n", name, tr.Site.URL)
		fmt.Fprintf(&b, "Status: DOWN\n")
		fmt.Fprintf(&b, "Time: %s\n", when)
		if tr.Result.Error != "" {
			fmt.Fprintf(&b, "Error: %s", tr.Result.Error)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "🟢 Website Recovery Alert\n")
	fmt.Fprintf(&b, "Site: %s (%s)\n", name, tr.Site.URL)
	fmt.Fprintf(&b, "Status: UP\n")
	fmt.Fprintf(&b, "Time: %s", when)
	if tr.Recovered() {
		fmt.Fprintf(&b, "\nDowntime Duration: %s", humanizeDuration(tr.Downtime))
	}
	return b.String()
}

// humanizeDuration renders a downtime span the way operators read it:
// seconds under a minute, minutes under an hour, hours and minutes above.
func humanizeDuration(d time.Duration) string {
	secs := int(d.Seconds())
	switch {
	case secs < 60:
		return fmt.Sprintf("%d seconds", secs)
	case secs < 3600:
		return fmt.Sprintf("%d minutes", secs/60)
	default:
		return fmt.Sprintf("%d hours %d minutes", secs/3600, (secs%3600)/60)
	}
}
