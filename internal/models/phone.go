package models

import "regexp"

// phonePattern matches Kenyan MSISDNs in the 254XXXXXXXXX form the
// mobile-money provider requires. Local formats like 07XXXXXXXX are rejected.
var phonePattern = regexp.MustCompile(`^254\d{9}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
