// Package ntp implements the one-shot SNTP query used to seed the clock chip.
package ntp

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// DefaultTimeout bounds a query whose context has no deadline.
const DefaultTimeout = 5 * time.Second

// Query asks server ("host" or "host:port") for the current time. The reply must pass the usual SNTP sanity checks
// (stratum, leap indicator, reference time freshness) to be used.
func Query(ctx context.Context, server string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	timeout := DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return time.Time{}, context.DeadlineExceeded
		}
	}

	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return time.Time{}, fmt.Errorf("ntp: querying %s: %w", server, err)
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("ntp: reply from %s: %w", server, err)
	}
	return resp.Time.UTC(), nil
}
