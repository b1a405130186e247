package metrics

import "testing"

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()

	IncHoldAcquire("granted")
	IncHoldAcquire("conflict")
	IncBookingTransition("pending")
	IncWaitlistNotified()
	AddReapedHolds(3)
	IncHTTP("availability")
}
