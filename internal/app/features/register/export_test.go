package register

import "time"

// SetNow fixes the clock used to date sales.
func (h *Handler) SetNow(now func() time.Time) { h.now = now }
