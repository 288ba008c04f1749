package models

import "testing"

func TestDeliveryFeeSchedule(t *testing.T) {
	fee, ok := DeliveryFee(DeliveryPickupMtaani)
	if !ok || fee != 200 {
		t.Fatalf("expected pickup fee 200, got %v (ok=%v)", fee, ok)
	}

	fee, ok = DeliveryFee(DeliveryDoorstep)
	if !ok || fee != 350 {
		t.Fatalf("expected doorstep fee 350, got %v (ok=%v)", fee, ok)
	}

	if _, ok := DeliveryFee("courier"); ok {
		t.Fatal("unknown delivery method must not be priced")
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"254712345678", "254100000000"}
	for _, phone := range valid {
		if !ValidPhone(phone) {
			t.Fatalf("expected %q to be valid", phone)
		}
	}

	invalid := []string{"0712345678", "+254712345678", "25471234567", "2547123456789", "254712345a78", ""}
	for _, phone := range invalid {
		if ValidPhone(phone) {
			t.Fatalf("expected %q to be invalid", phone)
		}
	}
}

func TestAttemptTerminal(t *testing.T) {
	if AttemptTerminal(AttemptPending) {
		t.Fatal("pending is not terminal")
	}
	for _, status := range []string{AttemptConfirmed, AttemptFailed, AttemptExpired} {
		if !AttemptTerminal(status) {
			t.Fatalf("expected %q to be terminal", status)
		}
	}
}
