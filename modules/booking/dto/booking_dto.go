package dto

import authDto "bookline-api/modules/auth/dto"

// BookingPageResponse is the public view of a professional's booking page.
type BookingPageResponse struct {
	Professional authDto.UserResponse `json:"professional"`
}

type PersonalBookingURLResponse struct {
	URL string `json:"url"`
}
