package service

import "identity-service/internal/models"

// needsSecondary decides whether the request carries information the cluster
// does not have yet.
//
// A contact whose fields equal the request, with absent request fields
// matching anything, means the request is a repeat. Otherwise a new row is
// needed only when a supplied email or phone number appears nowhere in the
// cluster. An absent field is never new.
func needsSecondary(cluster []*models.Contact, email, phoneNumber *string) bool {
	knownEmail, knownPhone := false, false
	for _, c := range cluster {
		if fieldMatches(email, c.Email) && fieldMatches(phoneNumber, c.PhoneNumber) {
			return false
		}
		if email != nil && c.Email != nil && *c.Email == *email {
			knownEmail = true
		}
		if phoneNumber != nil && c.PhoneNumber != nil && *c.PhoneNumber == *phoneNumber {
			knownPhone = true
		}
	}

	newEmail := email != nil && !knownEmail
	newPhone := phoneNumber != nil && !knownPhone
	return newEmail || newPhone
}

func fieldMatches(want, have *string) bool {
	if want == nil {
		return true
	}
	return have != nil && *have == *want
}
